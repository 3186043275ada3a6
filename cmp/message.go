package cmp

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"time"
)

// PVNO2000 is the cmp2000 protocol version, the only one accepted.
const PVNO2000 = 2

// CertReqID is the only certReqId supported by the single request profile.
const CertReqID = 0

// BodyType is the PKIBody CHOICE tag defined in RFC 4210 section 5.1.2.
type BodyType int

// PKIBody types.
const (
	BodyTypeIR       BodyType = 0
	BodyTypeIP       BodyType = 1
	BodyTypeCR       BodyType = 2
	BodyTypeCP       BodyType = 3
	BodyTypeP10CR    BodyType = 4
	BodyTypePOPDecC  BodyType = 5
	BodyTypePOPDecR  BodyType = 6
	BodyTypeKUR      BodyType = 7
	BodyTypeKUP      BodyType = 8
	BodyTypeKRR      BodyType = 9
	BodyTypeKRP      BodyType = 10
	BodyTypeRR       BodyType = 11
	BodyTypeRP       BodyType = 12
	BodyTypeCCR      BodyType = 13
	BodyTypeCCP      BodyType = 14
	BodyTypeCKUAnn   BodyType = 15
	BodyTypeCAnn     BodyType = 16
	BodyTypeRAnn     BodyType = 17
	BodyTypeCRLAnn   BodyType = 18
	BodyTypePKIConf  BodyType = 19
	BodyTypeNested   BodyType = 20
	BodyTypeGenM     BodyType = 21
	BodyTypeGenP     BodyType = 22
	BodyTypeError    BodyType = 23
	BodyTypeCertConf BodyType = 24
	BodyTypePollReq  BodyType = 25
	BodyTypePollRep  BodyType = 26
)

var bodyTypeNames = map[BodyType]string{
	BodyTypeIR:       "ir",
	BodyTypeIP:       "ip",
	BodyTypeCR:       "cr",
	BodyTypeCP:       "cp",
	BodyTypeP10CR:    "p10cr",
	BodyTypePOPDecC:  "popdecc",
	BodyTypePOPDecR:  "popdecr",
	BodyTypeKUR:      "kur",
	BodyTypeKUP:      "kup",
	BodyTypeKRR:      "krr",
	BodyTypeKRP:      "krp",
	BodyTypeRR:       "rr",
	BodyTypeRP:       "rp",
	BodyTypeCCR:      "ccr",
	BodyTypeCCP:      "ccp",
	BodyTypeCKUAnn:   "ckuann",
	BodyTypeCAnn:     "cann",
	BodyTypeRAnn:     "rann",
	BodyTypeCRLAnn:   "crlann",
	BodyTypePKIConf:  "pkiconf",
	BodyTypeNested:   "nested",
	BodyTypeGenM:     "genm",
	BodyTypeGenP:     "genp",
	BodyTypeError:    "error",
	BodyTypeCertConf: "certConf",
	BodyTypePollReq:  "pollReq",
	BodyTypePollRep:  "pollRep",
}

// String returns the RFC 4210 name of the body type.
func (t BodyType) String() string {
	if s, ok := bodyTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// IsCRMF reports whether the body type carries CRMF structures: ir, ip, cr,
// cp, kur and kup.
func (t BodyType) IsCRMF() bool {
	switch t {
	case BodyTypeIR, BodyTypeIP, BodyTypeCR, BodyTypeCP, BodyTypeKUR, BodyTypeKUP:
		return true
	default:
		return false
	}
}

// PKIMessage is a decoded CMP message. Raw encodings are kept for the parts
// that protection and proof-of-possession are computed over.
type PKIMessage struct {
	Raw        []byte
	Header     *PKIHeader
	Body       *PKIBody
	Protection *asn1.BitString
	ExtraCerts []*x509.Certificate
}

// HasProtection reports whether the message carries a protection value.
func (m *PKIMessage) HasProtection() bool {
	return m != nil && m.Protection != nil
}

// TransactionID returns the transaction id of the message header, if any.
func (m *PKIMessage) TransactionID() []byte {
	if m == nil || m.Header == nil {
		return nil
	}
	return m.Header.TransactionID
}

// BodyType returns the body discriminant or -1 if the body is missing.
func (m *PKIMessage) BodyType() BodyType {
	if m == nil || m.Body == nil {
		return -1
	}
	return m.Body.Type
}

// PKIHeader is the CMP message header.
type PKIHeader struct {
	Raw           []byte
	PVNO          int
	Sender        *asn1.RawValue
	Recipient     *asn1.RawValue
	MessageTime   time.Time
	ProtectionAlg *pkix.AlgorithmIdentifier
	SenderKID     []byte
	RecipKID      []byte
	TransactionID []byte
	SenderNonce   []byte
	RecipNonce    []byte
	FreeText      []string
	GeneralInfo   []byte
}

// PKIBody is the CMP body, tagged by Type. Content is nil when the body
// carried no decodable content.
type PKIBody struct {
	Raw     []byte
	Type    BodyType
	Content BodyContent
}

// BodyContent is implemented by every PKIBody variant.
type BodyContent interface {
	bodyContent()
}

// CertReqMessages is the content of ir, cr and kur bodies.
type CertReqMessages []*CertReqMsg

// CertReqMsg is a single CRMF certificate request.
type CertReqMsg struct {
	CertReq *CertRequest
	POP     ProofOfPossession
	RegInfo []byte
}

// CertRequest holds the certificate request. Raw is the DER encoding the
// signing key proof-of-possession is computed over.
type CertRequest struct {
	Raw          []byte
	CertReqID    *big.Int
	CertTemplate *CertTemplate
	Controls     []byte
}

// CertTemplate is the RFC 4211 certificate template. Absent optional fields
// are nil.
type CertTemplate struct {
	Raw          []byte
	Version      *int
	SerialNumber *big.Int
	SigningAlg   *pkix.AlgorithmIdentifier
	Issuer       *pkix.Name
	Validity     *OptionalValidity
	Subject      *pkix.Name
	PublicKey    *SubjectPublicKeyInfo
	Extensions   []pkix.Extension
}

// OptionalValidity is the validity requested in a template.
type OptionalValidity struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// SubjectPublicKeyInfo is a public key as carried in a template. Raw is
// always the universal SEQUENCE encoding, suitable for
// x509.ParsePKIXPublicKey.
type SubjectPublicKeyInfo struct {
	Raw       []byte
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// ProofOfPossession is implemented by the RFC 4211 section 4 POP variants:
// RAVerified, *POPOSigningKey, *KeyEncipherment and *KeyAgreement.
type ProofOfPossession interface {
	popType() int
}

// RAVerified indicates the RA already verified the POP.
type RAVerified struct{}

// POPOSigningKey is the signature POP.
type POPOSigningKey struct {
	POPOSKInput []byte
	Algorithm   pkix.AlgorithmIdentifier
	Signature   asn1.BitString
}

// KeyEncipherment is the POPOPrivKey POP for encryption keys.
type KeyEncipherment struct {
	Raw []byte
}

// KeyAgreement is the POPOPrivKey POP for key agreement keys.
type KeyAgreement struct {
	Raw []byte
}

func (RAVerified) popType() int       { return 0 }
func (*POPOSigningKey) popType() int  { return 1 }
func (*KeyEncipherment) popType() int { return 2 }
func (*KeyAgreement) popType() int    { return 3 }

// CertRepMessage is the content of ip, cp and kup bodies.
type CertRepMessage struct {
	CAPubs   []*x509.Certificate
	Response []*CertResponse
}

// CertResponse is a response to a single certificate request.
type CertResponse struct {
	CertReqID        *big.Int
	Status           *PKIStatusInfo
	CertifiedKeyPair *CertifiedKeyPair
	RspInfo          []byte
}

// CertifiedKeyPair holds the issued certificate. Certificate is nil when
// the certificate was returned encrypted.
type CertifiedKeyPair struct {
	Certificate   *x509.Certificate
	EncryptedCert []byte
	PrivateKey    []byte
}

// PKIStatus is the RFC 4210 PKIStatus.
type PKIStatus int

// PKIStatus values.
const (
	StatusAccepted               PKIStatus = 0
	StatusGrantedWithMods        PKIStatus = 1
	StatusRejection              PKIStatus = 2
	StatusWaiting                PKIStatus = 3
	StatusRevocationWarning      PKIStatus = 4
	StatusRevocationNotification PKIStatus = 5
	StatusKeyUpdateWarning       PKIStatus = 6
)

// PKIStatusInfo is a status and optional failure information.
type PKIStatusInfo struct {
	Status       PKIStatus
	StatusString []string
	FailInfo     *asn1.BitString
}

// RevReqContent is the content of rr bodies.
type RevReqContent []*RevDetails

// RevDetails identifies a certificate to revoke. CRLEntryDetails is nil
// when absent.
type RevDetails struct {
	CertDetails     *CertTemplate
	CRLEntryDetails []pkix.Extension
}

// RevRepContent is the content of rp bodies.
type RevRepContent struct {
	Status   []*PKIStatusInfo
	RevCerts []byte
	CRLs     []byte
}

// CertConfirmContent is the content of certConf bodies.
type CertConfirmContent []*CertStatus

// CertStatus confirms acceptance of a single certificate. CertHash is nil
// when absent.
type CertStatus struct {
	CertHash   []byte
	CertReqID  *big.Int
	StatusInfo *PKIStatusInfo
	HashAlg    *pkix.AlgorithmIdentifier
}

// PKIConfirmContent is the (empty) content of pkiconf bodies.
type PKIConfirmContent struct{}

// ErrorMsgContent is the content of error bodies.
type ErrorMsgContent struct {
	PKIStatusInfo *PKIStatusInfo
	ErrorCode     *big.Int
	ErrorDetails  []string
}

// UnsupportedContent keeps the encoding of bodies this package does not
// decode.
type UnsupportedContent struct {
	Raw []byte
}

func (CertReqMessages) bodyContent()     {}
func (*CertRepMessage) bodyContent()     {}
func (RevReqContent) bodyContent()       {}
func (*RevRepContent) bodyContent()      {}
func (CertConfirmContent) bodyContent()  {}
func (PKIConfirmContent) bodyContent()   {}
func (*ErrorMsgContent) bodyContent()    {}
func (*UnsupportedContent) bodyContent() {}
