package cmp

import (
	"crypto/x509"
)

// ValidatePOP validates the proof-of-possession of the single request of an
// ir, cr or kur message. Only the signature POP computed over the
// CertRequest, with subject and public key in the template (RFC 4211
// section 4.1 case 3), is accepted.
func ValidatePOP(msg *PKIMessage, _ ConfigurationContext) error {
	if msg == nil || msg.Body == nil {
		return NewError(KindBadDataFormat, msg.TransactionID(), "message body is missing")
	}
	tid := msg.TransactionID()
	switch msg.Body.Type {
	case BodyTypeIR, BodyTypeCR, BodyTypeKUR:
	default:
		return NewError(KindBadDataFormat, tid, "%s body carries no proof of possession", msg.Body.Type)
	}

	req, err := singleCertReqMsg(msg)
	if err != nil {
		return asCRMF(err, tid)
	}
	return asCRMF(validatePOP(tid, req), tid)
}

func validatePOP(tid []byte, req *CertReqMsg) error {
	switch pop := req.POP.(type) {
	case nil:
		return NewError(KindBadPOP, tid, "missing proof of possession")
	case RAVerified:
		return NewError(KindBadPOP, tid, "RA verified proof of possession is not accepted")
	case *KeyEncipherment:
		return NewError(KindBadPOP, tid, "key encipherment proof of possession is not implemented yet")
	case *KeyAgreement:
		return NewError(KindBadPOP, tid, "key agreement proof of possession is not implemented yet")
	case *POPOSigningKey:
		if pop.POPOSKInput != nil {
			return NewError(KindBadPOP, tid, "signature proof of possession with poposkInput is not implemented yet")
		}
		return validateSigningKeyPOP(tid, req.CertReq, pop)
	default:
		return NewError(KindBadPOP, tid, "unknown proof of possession %T", pop)
	}
}

// validateSigningKeyPOP verifies the POP signature over the CertRequest
// with the public key requested in the template.
func validateSigningKeyPOP(tid []byte, cr *CertRequest, pop *POPOSigningKey) error {
	if cr == nil || cr.CertTemplate == nil {
		return NewError(KindBadPOP, tid, "certTemplate is missing")
	}
	tmpl := cr.CertTemplate
	if tmpl.PublicKey == nil || len(tmpl.PublicKey.PublicKey.Bytes) == 0 {
		return NewError(KindBadPOP, tid, "certTemplate public key is missing")
	}
	if tmpl.Subject == nil {
		return NewError(KindBadPOP, tid, "certTemplate subject is missing")
	}
	pub, err := x509.ParsePKIXPublicKey(tmpl.PublicKey.Raw)
	if err != nil {
		return WrapError(KindBadPOP, tid, err, "certTemplate public key cannot be parsed")
	}
	if len(cr.Raw) == 0 {
		return NewError(KindBadPOP, tid, "certReq has no original encoding")
	}
	if err := verifySignature(pub, pop.Algorithm, cr.Raw, pop.Signature.RightAlign()); err != nil {
		return WrapError(KindBadPOP, tid, err, "proof of possession signature is invalid")
	}
	return nil
}
