package cmp

import (
	"crypto/x509"
	"strings"

	"github.com/pkg/errors"
)

// DefaultMaxIterationCount bounds the attacker controlled iteration count of
// the password based MAC algorithms when the configuration does not set one.
const DefaultMaxIterationCount = 10000

// ProtectionMethod is the message protection a configuration expects.
type ProtectionMethod int

// Protection methods.
const (
	ProtectionMethodMAC ProtectionMethod = iota + 1
	ProtectionMethodSignature
)

// String returns the configuration name of the method.
func (p ProtectionMethod) String() string {
	switch p {
	case ProtectionMethodMAC:
		return "mac"
	case ProtectionMethodSignature:
		return "signature"
	default:
		return "unknown"
	}
}

// ParseProtectionMethod parses "mac" or "signature".
func ParseProtectionMethod(s string) (ProtectionMethod, error) {
	switch strings.ToLower(s) {
	case "mac", "shared_secret", "sharedsecret":
		return ProtectionMethodMAC, nil
	case "signature":
		return ProtectionMethodSignature, nil
	default:
		return 0, errors.Errorf("unsupported protection method '%s'", s)
	}
}

// ConfigurationContext is supplied by the caller on every validation. The
// validators never resolve configuration themselves.
type ConfigurationContext interface {
	// Name identifies the configuration in diagnostics.
	Name() string
	// ProtectionMethod returns the expected message protection.
	ProtectionMethod() ProtectionMethod
	// SharedSecret returns the secret used by the MAC based protections.
	SharedSecret() []byte
	// ValidateOnCrmfRequest applies CA specific policy to ir, cr and kur
	// messages after their structure has been validated.
	ValidateOnCrmfRequest(msg *PKIMessage) error
	// ValidateOnCrmfResponse applies CA specific policy to ip, cp and kup
	// messages after their structure has been validated.
	ValidateOnCrmfResponse(msg *PKIMessage) error
}

// IterationLimiter can be implemented by a ConfigurationContext to override
// DefaultMaxIterationCount.
type IterationLimiter interface {
	MaxIterationCount() int
}

// SignerObserver can be implemented by a ConfigurationContext to be notified
// of the certificate whose key verified a signature protected message.
type SignerObserver interface {
	OnSigner(msg *PKIMessage, signer *x509.Certificate)
}

func maxIterationCount(cfg ConfigurationContext) int {
	if l, ok := cfg.(IterationLimiter); ok {
		if n := l.MaxIterationCount(); n > 0 {
			return n
		}
	}
	return DefaultMaxIterationCount
}
