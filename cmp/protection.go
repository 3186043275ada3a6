package cmp

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ValidateProtection verifies the protection of msg. Unprotected messages
// are only accepted for error, pkiconf and rp bodies. The protection
// algorithm selects password based MAC, PBMAC1 or signature verification.
func ValidateProtection(msg *PKIMessage, cfg ConfigurationContext) error {
	if msg == nil || msg.Header == nil || msg.Body == nil {
		return NewError(KindBadDataFormat, msg.TransactionID(), "message is incomplete")
	}
	tid := msg.Header.TransactionID

	if !msg.HasProtection() {
		switch msg.Body.Type {
		case BodyTypeError, BodyTypePKIConf, BodyTypeRP:
			return nil
		default:
			return NewError(KindNotAuthorized, tid, "protection is required for %s messages", msg.Body.Type)
		}
	}
	if msg.Header.ProtectionAlg == nil {
		return NewError(KindBadDataFormat, tid, "protectionAlg is missing for a protected message")
	}
	if cfg == nil {
		return NewError(KindConfigurationError, tid, "configuration is missing")
	}

	switch alg := msg.Header.ProtectionAlg.Algorithm; {
	case alg.Equal(oidPasswordBasedMAC):
		return validatePasswordBasedMAC(msg, cfg)
	case alg.Equal(oidPBMAC1):
		return validatePBMAC1(msg, cfg)
	default:
		return validateSignatureProtection(msg, cfg)
	}
}

// protectedPart returns the DER encoding of ProtectedPart, the SEQUENCE of
// the original header and body encodings.
func protectedPart(msg *PKIMessage) ([]byte, error) {
	if len(msg.Header.Raw) == 0 || len(msg.Body.Raw) == 0 {
		return nil, errors.New("message has no original encoding")
	}
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(msg.Header.Raw)
		b.AddBytes(msg.Body.Raw)
	})
	return b.Bytes()
}

// requireMAC fails when the configuration only accepts signatures.
func requireMAC(msg *PKIMessage, cfg ConfigurationContext) error {
	if cfg.ProtectionMethod() == ProtectionMethodSignature {
		return NewError(KindConfigurationError, msg.TransactionID(),
			"configuration %s requires signature protection but the message is MAC protected", cfg.Name())
	}
	if len(cfg.SharedSecret()) == 0 {
		return NewError(KindConfigurationError, msg.TransactionID(),
			"configuration %s has no shared secret", cfg.Name())
	}
	return nil
}

// checkIterationCount bounds the attacker controlled iteration count.
func checkIterationCount(msg *PKIMessage, cfg ConfigurationContext, n int) error {
	if limit := maxIterationCount(cfg); n < 1 || n > limit {
		return NewError(KindBadDataFormat, msg.TransactionID(),
			"iteration count %d out of range [1, %d]", n, limit)
	}
	return nil
}
