package cmptest

import (
	"crypto"
	"crypto/x509"

	"github.com/pkg/errors"
)

// SignedCertReqMessages returns CertReqMessages with a single request for
// the public key of signer. The request carries a signature POP computed
// over the CertRequest. The template public key is set from signer when
// empty.
func SignedCertReqMessages(signer crypto.Signer, certReqID int64, tmpl *Template) ([]byte, error) {
	if tmpl.PublicKey == nil {
		spki, err := x509.MarshalPKIXPublicKey(signer.Public())
		if err != nil {
			return nil, errors.Wrap(err, "error marshaling public key")
		}
		tmpl.PublicKey = spki
	}
	cr := CertRequest(certReqID, tmpl.Marshal())
	alg, sig, err := Sign(signer, cr)
	if err != nil {
		return nil, errors.Wrap(err, "error signing certificate request")
	}
	return CertReqMessages(CertReqMsg(cr, SignaturePOP(alg, sig, nil))), nil
}

// PBMProtect protects body with a PasswordBasedMac using SHA-256 for both
// owf and mac. It sets the protectionAlg of h and returns the message.
func PBMProtect(h *Header, body, secret []byte, iterationCount int) []byte {
	salt := Nonce(16)
	h.ProtectionAlg = PBMAlgorithm(salt, OIDSHA256, iterationCount, OIDHMACWithSHA256)
	header := h.Marshal()
	key := PBMKey(crypto.SHA256, secret, salt, iterationCount)
	return Message(header, body, HMAC(crypto.SHA256, key, ProtectedPart(header, body)))
}

// SignatureProtect protects body with signer. The certificate is sent as
// the first extraCerts entry when not nil.
func SignatureProtect(h *Header, body []byte, signer crypto.Signer, certificate []byte) ([]byte, error) {
	alg, err := SignatureAlgorithm(signer.Public())
	if err != nil {
		return nil, err
	}
	h.ProtectionAlg = &alg
	header := h.Marshal()
	_, sig, err := Sign(signer, ProtectedPart(header, body))
	if err != nil {
		return nil, err
	}
	if certificate == nil {
		return Message(header, body, sig), nil
	}
	return Message(header, body, sig, certificate), nil
}
