package db

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/smallstep/nosql"
)

var verdictsTable = []byte("cmp_verdicts")

// ErrAlreadyExists can be returned if the DB attempts to set a key that has
// been previously set.
var ErrAlreadyExists = errors.New("already exists")

// ErrNotFound is returned when a verdict does not exist.
var ErrNotFound = errors.New("not found")

// Config represents the JSON attributes used for configuring the audit DB.
type Config struct {
	Type       string `json:"type"`
	DataSource string `json:"dataSource"`
}

// Validate checks the DB configuration, nil is ok.
func (c *Config) Validate() error {
	switch {
	case c == nil:
		return nil
	case c.Type == "":
		return errors.New("db.type cannot be empty")
	case c.DataSource == "":
		return errors.New("db.dataSource cannot be empty")
	}
	switch strings.ToLower(c.Type) {
	case nosql.BBoltDriver, nosql.BadgerDriver, nosql.BadgerV1Driver, nosql.BadgerV2Driver:
		return nil
	default:
		return errors.Errorf("unsupported db.type '%s'", c.Type)
	}
}

// AuditDB is the interface of the verdict audit store.
type AuditDB interface {
	StoreVerdict(v *Verdict) error
	GetVerdict(id string) (*Verdict, error)
	Shutdown() error
}

// Verdict is the stored outcome of a validation.
type Verdict struct {
	ID                string    `json:"id"`
	Profile           string    `json:"profile"`
	Stage             string    `json:"stage"`
	TransactionID     string    `json:"transactionId,omitempty"`
	BodyType          string    `json:"bodyType,omitempty"`
	Valid             bool      `json:"valid"`
	Kind              string    `json:"kind,omitempty"`
	FailInfo          string    `json:"failInfo,omitempty"`
	CRMF              bool      `json:"crmf,omitempty"`
	Detail            string    `json:"detail,omitempty"`
	SignerSubject     string    `json:"signerSubject,omitempty"`
	SignerFingerprint string    `json:"signerFingerprint,omitempty"`
	ValidatedAt       time.Time `json:"validatedAt"`
}

// DB is a wrapper over the nosql.DB interface.
type DB struct {
	nosql.DB
}

// New returns a new database client that implements the AuditDB interface.
func New(c *Config) (AuditDB, error) {
	if c == nil {
		return new(NoopDB), nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	db, err := nosql.New(strings.ToLower(c.Type), c.DataSource)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s database", c.Type)
	}
	if err := db.CreateTable(verdictsTable); err != nil {
		return nil, errors.Wrapf(err, "error creating table %s", string(verdictsTable))
	}

	return &DB{db}, nil
}

// StoreVerdict stores a verdict keyed by its id. Verdicts are never
// overwritten.
func (db *DB) StoreVerdict(v *Verdict) error {
	if v.ID == "" {
		return errors.New("verdict id cannot be empty")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "error marshaling verdict")
	}
	_, swapped, err := db.CmpAndSwap(verdictsTable, []byte(v.ID), nil, b)
	switch {
	case err != nil:
		return errors.Wrap(err, "database CmpAndSwap error")
	case !swapped:
		return ErrAlreadyExists
	default:
		return nil
	}
}

// GetVerdict returns the verdict with the given id.
func (db *DB) GetVerdict(id string) (*Verdict, error) {
	b, err := db.Get(verdictsTable, []byte(id))
	if err != nil {
		if nosql.IsErrNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "error loading verdict %s", id)
	}
	v := new(Verdict)
	if err := json.Unmarshal(b, v); err != nil {
		return nil, errors.Wrapf(err, "error unmarshaling verdict %s", id)
	}
	return v, nil
}

// Shutdown sends a shutdown message to the database.
func (db *DB) Shutdown() error {
	if err := db.Close(); err != nil {
		return errors.Wrap(err, "database shutdown error")
	}
	return nil
}
