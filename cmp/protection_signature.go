package cmp

import (
	"github.com/pkg/errors"
)

// validateSignatureProtection verifies the protection as a signature made
// with the key of the first extraCerts certificate. The signer certificate
// is not chained to any trust anchor here.
func validateSignatureProtection(msg *PKIMessage, cfg ConfigurationContext) error {
	tid := msg.TransactionID()
	if len(msg.ExtraCerts) == 0 || msg.ExtraCerts[0] == nil {
		return NewError(KindAddInfoNotAvailable, tid, "extraCerts is missing for a signature protected message")
	}
	signer := msg.ExtraCerts[0]
	if signer.PublicKey == nil {
		return NewError(KindNotAuthorized, tid, "signer certificate has an unsupported public key")
	}

	data, err := protectedPart(msg)
	if err != nil {
		return WrapError(KindNotAuthorized, tid, err, "error encoding protected part")
	}
	err = verifySignature(signer.PublicKey, *msg.Header.ProtectionAlg, data, msg.Protection.RightAlign())
	switch {
	case errors.Is(err, errUnsupportedAlgorithm):
		return WrapError(KindBadAlg, tid, err, "unsupported protection algorithm %s", msg.Header.ProtectionAlg.Algorithm)
	case errors.Is(err, errKeyMismatch):
		return WrapError(KindNotAuthorized, tid, err, "signer certificate key cannot verify the protection")
	case err != nil:
		return WrapError(KindWrongIntegrity, tid, err, "signature protection is invalid")
	}

	if o, ok := cfg.(SignerObserver); ok {
		o.OnSigner(msg, signer)
	}
	return nil
}
