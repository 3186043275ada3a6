package profile

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/czertainly/cmp-validator/cmp"
)

var oidExtensionSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

// keyTypes maps the accepted configuration values to the canonical key
// type.
var keyTypes = map[string]string{
	"RSA":     "RSA",
	"EC":      "EC",
	"ECDSA":   "EC",
	"ED25519": "Ed25519",
	"OKP":     "Ed25519",
}

// ValidateOnCrmfRequest implements cmp.ConfigurationContext. It checks the
// requested key and names against the profile.
func (p *Profile) ValidateOnCrmfRequest(msg *cmp.PKIMessage) error {
	tid := msg.TransactionID()
	if msg == nil || msg.Body == nil {
		return cmp.NewError(cmp.KindBadDataFormat, tid, "CertReqMessages expected")
	}
	reqs, ok := msg.Body.Content.(cmp.CertReqMessages)
	if !ok {
		return cmp.NewError(cmp.KindBadDataFormat, tid, "CertReqMessages expected")
	}
	for _, req := range reqs {
		if req == nil || req.CertReq == nil || req.CertReq.CertTemplate == nil {
			return cmp.NewError(cmp.KindBadDataFormat, tid, "certReq has no certTemplate")
		}
		tmpl := req.CertReq.CertTemplate
		if err := p.checkKey(tid, tmpl.PublicKey); err != nil {
			return err
		}
		if err := p.checkNames(tid, tmpl); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOnCrmfResponse implements cmp.ConfigurationContext. Every
// returned certificate must be valid now.
func (p *Profile) ValidateOnCrmfResponse(msg *cmp.PKIMessage) error {
	tid := msg.TransactionID()
	if msg == nil || msg.Body == nil {
		return cmp.NewError(cmp.KindBadDataFormat, tid, "CertRepMessage expected")
	}
	rep, ok := msg.Body.Content.(*cmp.CertRepMessage)
	if !ok || rep == nil {
		return cmp.NewError(cmp.KindBadDataFormat, tid, "CertRepMessage expected")
	}
	now := p.now()
	for _, resp := range rep.Response {
		if resp == nil || resp.CertifiedKeyPair == nil || resp.CertifiedKeyPair.Certificate == nil {
			continue
		}
		crt := resp.CertifiedKeyPair.Certificate
		if now.Before(crt.NotBefore) {
			return cmp.NewError(cmp.KindBadCertTemplate, tid, "certificate %s is not yet valid", crt.SerialNumber)
		}
		if now.After(crt.NotAfter) {
			return cmp.NewError(cmp.KindBadCertTemplate, tid, "certificate %s has expired", crt.SerialNumber)
		}
	}
	return nil
}

func (p *Profile) checkKey(tid []byte, spki *cmp.SubjectPublicKeyInfo) error {
	if len(p.keyTypes) == 0 && p.minRSAKeySize == 0 {
		return nil
	}
	if spki == nil {
		return cmp.NewError(cmp.KindBadCertTemplate, tid, "certTemplate public key is missing")
	}
	pub, err := x509.ParsePKIXPublicKey(spki.Raw)
	if err != nil {
		return cmp.WrapError(cmp.KindBadCertTemplate, tid, err, "certTemplate public key cannot be parsed")
	}

	var kty string
	switch k := pub.(type) {
	case *rsa.PublicKey:
		kty = "RSA"
		if p.minRSAKeySize > 0 && k.N.BitLen() < p.minRSAKeySize {
			return cmp.NewError(cmp.KindBadCertTemplate, tid, "RSA key size %d is below the minimum of %d bits", k.N.BitLen(), p.minRSAKeySize)
		}
	case *ecdsa.PublicKey:
		kty = "EC"
	case ed25519.PublicKey:
		kty = "Ed25519"
	default:
		kty = "unknown"
	}
	if len(p.keyTypes) > 0 {
		if _, ok := p.keyTypes[kty]; !ok {
			return cmp.NewError(cmp.KindBadCertTemplate, tid, "key type %s is not allowed by profile %s", kty, p.name)
		}
	}
	return nil
}

func (p *Profile) checkNames(tid []byte, tmpl *cmp.CertTemplate) error {
	if p.engine.IsEmpty() {
		return nil
	}
	var commonName string
	if tmpl.Subject != nil {
		commonName = tmpl.Subject.CommonName
	}
	dnsNames, err := dnsNamesFromExtensions(tmpl.Extensions)
	if err != nil {
		return cmp.WrapError(cmp.KindBadCertTemplate, tid, err, "invalid subjectAltName extension")
	}
	if err := p.engine.AreNamesAllowed(commonName, dnsNames); err != nil {
		return cmp.WrapError(cmp.KindNotAuthorized, tid, err, "certificate request denied by profile %s", p.name)
	}
	return nil
}

// dnsNamesFromExtensions returns the dNSName entries of the subjectAltName
// extension, if any.
func dnsNamesFromExtensions(exts []pkix.Extension) ([]string, error) {
	var names []string
	for _, ext := range exts {
		if !ext.Id.Equal(oidExtensionSubjectAltName) {
			continue
		}
		input := cryptobyte.String(ext.Value)
		var seq cryptobyte.String
		if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
			return nil, errors.New("malformed GeneralNames")
		}
		for !seq.Empty() {
			var name cryptobyte.String
			var tag cbasn1.Tag
			if !seq.ReadAnyASN1(&name, &tag) {
				return nil, errors.New("malformed GeneralName")
			}
			if tag == cbasn1.Tag(2).ContextSpecific() {
				names = append(names, string(name))
			}
		}
	}
	return names, nil
}
