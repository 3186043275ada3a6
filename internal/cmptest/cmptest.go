// Package cmptest builds DER encoded CMP messages for tests.
package cmptest

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"time"

	"go.step.sm/crypto/randutil"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// PKIBody tags.
const (
	TagIR       = 0
	TagIP       = 1
	TagCR       = 2
	TagCP       = 3
	TagP10CR    = 4
	TagKUR      = 7
	TagKUP      = 8
	TagKRR      = 9
	TagRR       = 11
	TagRP       = 12
	TagCAnn     = 16
	TagPKIConf  = 19
	TagNested   = 20
	TagGenM     = 21
	TagGenP     = 22
	TagError    = 23
	TagCertConf = 24
	TagPollReq  = 25
	TagPollRep  = 26
)

func contextTag(n int) cbasn1.Tag {
	return cbasn1.Tag(n).ContextSpecific().Constructed()
}

func must(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

// retag replaces the universal tag of der with the context specific tag n,
// keeping the constructed bit, as required by IMPLICIT tagging.
func retag(der []byte, n int) []byte {
	out := append([]byte{}, der...)
	out[0] = der[0]&0x20 | 0x80 | byte(n)
	return out
}

// Nonce returns n random bytes.
func Nonce(n int) []byte {
	return must(randutil.Bytes(n))
}

// Header describes a PKIHeader. Nil fields are omitted.
type Header struct {
	PVNO          int
	BigPVNO       *big.Int // replaces PVNO when set
	Sender        pkix.Name
	Recipient     pkix.Name
	MessageTime   time.Time
	ProtectionAlg *pkix.AlgorithmIdentifier
	SenderKID     []byte
	TransactionID []byte
	SenderNonce   []byte
	RecipNonce    []byte
}

// NewHeader returns a cmp2000 header with random 16 bytes transaction id
// and sender nonce.
func NewHeader() *Header {
	return &Header{
		PVNO:          2,
		Sender:        pkix.Name{CommonName: "Test Client"},
		Recipient:     pkix.Name{CommonName: "Test CA"},
		TransactionID: Nonce(16),
		SenderNonce:   Nonce(16),
	}
}

func addName(b *cryptobyte.Builder, tag int, name pkix.Name) {
	rdn := must(asn1.Marshal(name.ToRDNSequence()))
	b.AddASN1(contextTag(tag), func(b *cryptobyte.Builder) {
		b.AddBytes(rdn)
	})
}

func addOctetString(b *cryptobyte.Builder, tag int, v []byte) {
	if v == nil {
		return
	}
	b.AddASN1(contextTag(tag), func(b *cryptobyte.Builder) {
		b.AddASN1OctetString(v)
	})
}

// Marshal returns the DER encoding of the header.
func (h *Header) Marshal() []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		if h.BigPVNO != nil {
			b.AddASN1BigInt(h.BigPVNO)
		} else {
			b.AddASN1Int64(int64(h.PVNO))
		}
		addName(b, 4, h.Sender)
		addName(b, 4, h.Recipient)
		if !h.MessageTime.IsZero() {
			b.AddASN1(contextTag(0), func(b *cryptobyte.Builder) {
				b.AddASN1GeneralizedTime(h.MessageTime.UTC())
			})
		}
		if h.ProtectionAlg != nil {
			alg := must(asn1.Marshal(*h.ProtectionAlg))
			b.AddASN1(contextTag(1), func(b *cryptobyte.Builder) {
				b.AddBytes(alg)
			})
		}
		addOctetString(b, 2, h.SenderKID)
		addOctetString(b, 4, h.TransactionID)
		addOctetString(b, 5, h.SenderNonce)
		addOctetString(b, 6, h.RecipNonce)
	})
	return b.BytesOrPanic()
}

// Body wraps content in the explicit PKIBody tag.
func Body(tag int, content []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(contextTag(tag), func(b *cryptobyte.Builder) {
		b.AddBytes(content)
	})
	return b.BytesOrPanic()
}

// ProtectedPart returns the DER encoding of ProtectedPart.
func ProtectedPart(header, body []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(header)
		b.AddBytes(body)
	})
	return b.BytesOrPanic()
}

// Message returns a PKIMessage. The protection is omitted when nil.
func Message(header, body, protection []byte, extraCerts ...[]byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(header)
		b.AddBytes(body)
		if protection != nil {
			b.AddASN1(contextTag(0), func(b *cryptobyte.Builder) {
				b.AddASN1BitString(protection)
			})
		}
		if len(extraCerts) > 0 {
			b.AddASN1(contextTag(1), func(b *cryptobyte.Builder) {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					for _, crt := range extraCerts {
						b.AddBytes(crt)
					}
				})
			})
		}
	})
	return b.BytesOrPanic()
}

// Template describes a CertTemplate. Nil fields are omitted.
type Template struct {
	Version      *int
	SerialNumber *big.Int
	Issuer       *pkix.Name
	NotBefore    time.Time
	NotAfter     time.Time
	Subject      *pkix.Name
	// PublicKey is a DER encoded SubjectPublicKeyInfo.
	PublicKey  []byte
	Extensions []pkix.Extension
}

type optionalValidity struct {
	NotBefore time.Time `asn1:"explicit,optional,tag:0,generalized"`
	NotAfter  time.Time `asn1:"explicit,optional,tag:1,generalized"`
}

// Marshal returns the DER encoding of the template.
func (t *Template) Marshal() []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		if t.Version != nil {
			b.AddBytes(retag(must(asn1.Marshal(*t.Version)), 0))
		}
		if t.SerialNumber != nil {
			b.AddBytes(retag(must(asn1.Marshal(t.SerialNumber)), 1))
		}
		if t.Issuer != nil {
			addName(b, 3, *t.Issuer)
		}
		if !t.NotBefore.IsZero() || !t.NotAfter.IsZero() {
			v := optionalValidity{NotBefore: t.NotBefore.UTC(), NotAfter: t.NotAfter.UTC()}
			b.AddBytes(retag(must(asn1.Marshal(v)), 4))
		}
		if t.Subject != nil {
			addName(b, 5, *t.Subject)
		}
		if t.PublicKey != nil {
			b.AddBytes(retag(t.PublicKey, 6))
		}
		if t.Extensions != nil {
			b.AddBytes(retag(must(asn1.Marshal(t.Extensions)), 9))
		}
	})
	return b.BytesOrPanic()
}

// CertRequest returns a CertRequest with the given id and template.
func CertRequest(certReqID int64, template []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(certReqID)
		b.AddBytes(template)
	})
	return b.BytesOrPanic()
}

// CertReqMsg returns a CertReqMsg. The POP is omitted when nil.
func CertReqMsg(certRequest, pop []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(certRequest)
		if pop != nil {
			b.AddBytes(pop)
		}
	})
	return b.BytesOrPanic()
}

// CertReqMessages returns a SEQUENCE of CertReqMsg.
func CertReqMessages(msgs ...[]byte) []byte {
	return sequence(msgs...)
}

func sequence(elements ...[]byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, el := range elements {
			b.AddBytes(el)
		}
	})
	return b.BytesOrPanic()
}

// RAVerifiedPOP returns the raVerified POP.
func RAVerifiedPOP() []byte {
	return []byte{0x80, 0x00}
}

// SignaturePOP returns the signature POP. poposkInput is omitted when nil.
func SignaturePOP(alg pkix.AlgorithmIdentifier, signature, poposkInput []byte) []byte {
	algDER := must(asn1.Marshal(alg))
	var b cryptobyte.Builder
	b.AddASN1(contextTag(1), func(b *cryptobyte.Builder) {
		if poposkInput != nil {
			b.AddASN1(contextTag(0), func(b *cryptobyte.Builder) {
				b.AddBytes(poposkInput)
			})
		}
		b.AddBytes(algDER)
		b.AddASN1BitString(signature)
	})
	return b.BytesOrPanic()
}

// KeyEnciphermentPOP returns a keyEncipherment POP using the thisMessage
// choice.
func KeyEnciphermentPOP() []byte {
	return []byte{0xa2, 0x03, 0x80, 0x01, 0x00}
}

// KeyAgreementPOP returns a keyAgreement POP using the thisMessage choice.
func KeyAgreementPOP() []byte {
	return []byte{0xa3, 0x03, 0x80, 0x01, 0x00}
}

// StatusInfo returns a PKIStatusInfo. failInfo is omitted when nil.
func StatusInfo(status int, failInfo *asn1.BitString) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(int64(status))
		if failInfo != nil {
			b.AddBytes(must(asn1.Marshal(*failInfo)))
		}
	})
	return b.BytesOrPanic()
}

// FailInfo returns a PKIFailureInfo with the given bit set.
func FailInfo(bit int) *asn1.BitString {
	bs := &asn1.BitString{Bytes: make([]byte, bit/8+1), BitLength: bit + 1}
	bs.Bytes[bit/8] |= 0x80 >> uint(bit%8)
	return bs
}

// CertResponse returns a CertResponse. The CertifiedKeyPair is omitted when
// certificate is nil.
func CertResponse(certReqID int64, status, certificate []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(certReqID)
		b.AddBytes(status)
		if certificate != nil {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1(contextTag(0), func(b *cryptobyte.Builder) {
					b.AddBytes(certificate)
				})
			})
		}
	})
	return b.BytesOrPanic()
}

// CertRepMessage returns a CertRepMessage without caPubs.
func CertRepMessage(responses ...[]byte) []byte {
	return sequence(sequence(responses...))
}

// RevDetails returns a RevDetails. crlEntryDetails is omitted when nil.
func RevDetails(certDetails []byte, crlEntryDetails []pkix.Extension) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(certDetails)
		if crlEntryDetails != nil {
			b.AddBytes(must(asn1.Marshal(crlEntryDetails)))
		}
	})
	return b.BytesOrPanic()
}

// RevReqContent returns a SEQUENCE of RevDetails.
func RevReqContent(details ...[]byte) []byte {
	return sequence(details...)
}

// RevRepContent returns a RevRepContent with the given statuses.
func RevRepContent(statuses ...[]byte) []byte {
	return sequence(sequence(statuses...))
}

// ReasonCode returns a CRL entry reasonCode extension.
func ReasonCode(reason int) pkix.Extension {
	return pkix.Extension{
		Id:    asn1.ObjectIdentifier{2, 5, 29, 21},
		Value: must(asn1.Marshal(asn1.Enumerated(reason))),
	}
}

// CertStatus returns a CertStatus. certHash is omitted when nil.
func CertStatus(certHash []byte, certReqID int64) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		if certHash != nil {
			b.AddASN1OctetString(certHash)
		}
		b.AddASN1Int64(certReqID)
	})
	return b.BytesOrPanic()
}

// CertConfirmContent returns a SEQUENCE of CertStatus.
func CertConfirmContent(statuses ...[]byte) []byte {
	return sequence(statuses...)
}

// PKIConfirmContent returns the NULL content of pkiconf.
func PKIConfirmContent() []byte {
	return []byte{0x05, 0x00}
}

// ErrorMsgContent returns an ErrorMsgContent with the given status.
func ErrorMsgContent(status []byte) []byte {
	return sequence(status)
}

// GenMsgContent returns an empty genm content.
func GenMsgContent() []byte {
	return sequence()
}
