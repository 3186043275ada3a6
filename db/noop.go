package db

import (
	"github.com/pkg/errors"
)

// ErrNotImplemented is an error returned when an operation is Not Implemented.
var ErrNotImplemented = errors.Errorf("not implemented")

// NoopDB implements the AuditDB interface with Noops
type NoopDB int

// StoreVerdict noop
func (n *NoopDB) StoreVerdict(*Verdict) error {
	return nil
}

// GetVerdict returns a "NotImplemented" error.
func (n *NoopDB) GetVerdict(string) (*Verdict, error) {
	return nil, ErrNotImplemented
}

// Shutdown returns nil
func (n *NoopDB) Shutdown() error {
	return nil
}
