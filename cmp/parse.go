package cmp

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/czertainly/cmp-validator/internal/cast"
)

// ParseMessage decodes a DER encoded PKIMessage. The encodings of the
// header, the body and every CertRequest are kept so that protection and
// proof-of-possession can be verified over the original bytes.
func ParseMessage(der []byte) (*PKIMessage, error) {
	msg := new(PKIMessage)
	if err := parseMessage(msg, der); err != nil {
		return nil, WrapError(KindBadDataFormat, msg.TransactionID(), err, "malformed PKIMessage")
	}
	return msg, nil
}

func contextTag(n int) cbasn1.Tag {
	return cbasn1.Tag(n).ContextSpecific().Constructed()
}

func primitiveContextTag(n int) cbasn1.Tag {
	return cbasn1.Tag(n).ContextSpecific()
}

// readElement reads the next element with the given tag, returning both its
// full encoding and its contents.
func readElement(s *cryptobyte.String, tag cbasn1.Tag) (full, content cryptobyte.String, ok bool) {
	if !s.ReadASN1Element(&full, tag) {
		return nil, nil, false
	}
	c := full
	if !c.ReadASN1(&content, tag) {
		return nil, nil, false
	}
	return full, content, true
}

// readOptionalElement reads the next element only if it has the given tag.
func readOptionalElement(s *cryptobyte.String, tag cbasn1.Tag) (cryptobyte.String, bool, error) {
	if !s.PeekASN1Tag(tag) {
		return nil, false, nil
	}
	var el cryptobyte.String
	if !s.ReadASN1Element(&el, tag) {
		return nil, false, errors.Errorf("malformed element with tag %#x", uint8(tag))
	}
	return el, true, nil
}

func unmarshalExact(der []byte, v interface{}, params string) error {
	rest, err := asn1.UnmarshalWithParams(der, v, params)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return errors.New("trailing data")
	}
	return nil
}

func parseMessage(msg *PKIMessage, der []byte) error {
	input := cryptobyte.String(der)
	raw, seq, ok := readElement(&input, cbasn1.SEQUENCE)
	if !ok || !input.Empty() {
		return errors.New("invalid PKIMessage sequence")
	}
	msg.Raw = raw

	hdrRaw, hdr, ok := readElement(&seq, cbasn1.SEQUENCE)
	if !ok {
		return errors.New("invalid PKIHeader")
	}
	h, err := parseHeader(hdrRaw, hdr)
	if err != nil {
		return errors.Wrap(err, "error parsing PKIHeader")
	}
	msg.Header = h

	var bodyRaw cryptobyte.String
	var bodyTag cbasn1.Tag
	if !seq.ReadAnyASN1Element(&bodyRaw, &bodyTag) {
		return errors.New("missing PKIBody")
	}
	if uint8(bodyTag)&0xe0 != 0xa0 {
		return errors.Errorf("invalid PKIBody tag %#x", uint8(bodyTag))
	}
	var inner cryptobyte.String
	wrapper := bodyRaw
	if !wrapper.ReadASN1(&inner, bodyTag) {
		return errors.New("invalid PKIBody")
	}
	body := &PKIBody{
		Raw:  bodyRaw,
		Type: BodyType(uint8(bodyTag) & 0x1f),
	}
	if body.Content, err = parseBodyContent(body.Type, inner); err != nil {
		return errors.Wrapf(err, "error parsing %s body", body.Type)
	}
	msg.Body = body

	var field cryptobyte.String
	var present bool
	if !seq.ReadOptionalASN1(&field, &present, contextTag(0)) {
		return errors.New("invalid protection")
	}
	if present {
		bs := new(asn1.BitString)
		if !field.ReadASN1BitString(bs) || !field.Empty() {
			return errors.New("invalid protection")
		}
		msg.Protection = bs
	}

	if !seq.ReadOptionalASN1(&field, &present, contextTag(1)) {
		return errors.New("invalid extraCerts")
	}
	if present {
		if msg.ExtraCerts, err = parseCertificates(field); err != nil {
			return errors.Wrap(err, "error parsing extraCerts")
		}
	}

	if !seq.Empty() {
		return errors.New("trailing data after PKIMessage")
	}
	return nil
}

// pvnoOutOfRange stands for a protocol version too large for an int.
const pvnoOutOfRange = -1

func parseHeader(raw, s cryptobyte.String) (h *PKIHeader, err error) {
	h = &PKIHeader{Raw: raw}
	pvno := new(big.Int)
	if !s.ReadASN1Integer(pvno) {
		return nil, errors.New("invalid pvno")
	}
	// versions that do not fit an int are left to ValidateHeader
	if h.PVNO, err = cast.SafeBigInt(pvno); err != nil {
		h.PVNO = pvnoOutOfRange
	}
	if h.Sender, err = parseGeneralName(&s); err != nil {
		return nil, errors.Wrap(err, "invalid sender")
	}
	if h.Recipient, err = parseGeneralName(&s); err != nil {
		return nil, errors.Wrap(err, "invalid recipient")
	}

	for n := 0; n <= 8; n++ {
		var field cryptobyte.String
		var present bool
		if !s.ReadOptionalASN1(&field, &present, contextTag(n)) {
			return nil, errors.Errorf("invalid header field [%d]", n)
		}
		if !present {
			continue
		}
		ok := true
		switch n {
		case 0:
			ok = field.ReadASN1GeneralizedTime(&h.MessageTime)
		case 1:
			h.ProtectionAlg, err = parseAlgorithmIdentifier(&field)
			ok = err == nil
		case 2:
			h.SenderKID, ok = readOctetString(&field)
		case 3:
			h.RecipKID, ok = readOctetString(&field)
		case 4:
			h.TransactionID, ok = readOctetString(&field)
		case 5:
			h.SenderNonce, ok = readOctetString(&field)
		case 6:
			h.RecipNonce, ok = readOctetString(&field)
		case 7:
			h.FreeText, ok = readFreeText(&field)
		case 8:
			h.GeneralInfo = append([]byte{}, field...)
			field = nil
		}
		if !ok || !field.Empty() {
			return nil, errors.Errorf("invalid header field [%d]", n)
		}
	}
	if !s.Empty() {
		return nil, errors.New("trailing data after PKIHeader")
	}
	return h, nil
}

func parseGeneralName(s *cryptobyte.String) (*asn1.RawValue, error) {
	var el cryptobyte.String
	var tag cbasn1.Tag
	if !s.ReadAnyASN1Element(&el, &tag) {
		return nil, errors.New("missing GeneralName")
	}
	rv := new(asn1.RawValue)
	if err := unmarshalExact(el, rv, ""); err != nil {
		return nil, err
	}
	return rv, nil
}

func readOctetString(s *cryptobyte.String) ([]byte, bool) {
	var b []byte
	if !s.ReadASN1Bytes(&b, cbasn1.OCTET_STRING) {
		return nil, false
	}
	return append([]byte{}, b...), true
}

func readFreeText(s *cryptobyte.String) ([]string, bool) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) {
		return nil, false
	}
	var texts []string
	for !seq.Empty() {
		var str cryptobyte.String
		if !seq.ReadASN1(&str, cbasn1.UTF8String) {
			return nil, false
		}
		texts = append(texts, string(str))
	}
	return texts, true
}

func parseAlgorithmIdentifier(s *cryptobyte.String) (*pkix.AlgorithmIdentifier, error) {
	var el cryptobyte.String
	if !s.ReadASN1Element(&el, cbasn1.SEQUENCE) {
		return nil, errors.New("invalid AlgorithmIdentifier")
	}
	alg := new(pkix.AlgorithmIdentifier)
	if err := unmarshalExact(el, alg, ""); err != nil {
		return nil, errors.Wrap(err, "invalid AlgorithmIdentifier")
	}
	return alg, nil
}

func parseCertificates(s cryptobyte.String) ([]*x509.Certificate, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, errors.New("invalid certificate sequence")
	}
	var certs []*x509.Certificate
	for !seq.Empty() {
		var el cryptobyte.String
		if !seq.ReadASN1Element(&el, cbasn1.SEQUENCE) {
			return nil, errors.New("invalid certificate")
		}
		crt, err := x509.ParseCertificate(el)
		if err != nil {
			return nil, errors.Wrap(err, "error parsing certificate")
		}
		certs = append(certs, crt)
	}
	return certs, nil
}

func parseBodyContent(t BodyType, s cryptobyte.String) (BodyContent, error) {
	switch t {
	case BodyTypeIR, BodyTypeCR, BodyTypeKUR:
		return parseCertReqMessages(s)
	case BodyTypeIP, BodyTypeCP, BodyTypeKUP:
		return parseCertRepMessage(s)
	case BodyTypeRR:
		return parseRevReqContent(s)
	case BodyTypeRP:
		return parseRevRepContent(s)
	case BodyTypeCertConf:
		return parseCertConfirmContent(s)
	case BodyTypePKIConf:
		var null cryptobyte.String
		if !s.ReadASN1(&null, cbasn1.NULL) || !null.Empty() || !s.Empty() {
			return nil, errors.New("pkiconf content must be NULL")
		}
		return PKIConfirmContent{}, nil
	case BodyTypeError:
		return parseErrorMsgContent(s)
	default:
		return &UnsupportedContent{Raw: append([]byte{}, s...)}, nil
	}
}

func parseCertReqMessages(s cryptobyte.String) (CertReqMessages, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, errors.New("invalid CertReqMessages")
	}
	msgs := CertReqMessages{}
	for !seq.Empty() {
		_, content, ok := readElement(&seq, cbasn1.SEQUENCE)
		if !ok {
			return nil, errors.New("invalid CertReqMsg")
		}
		m, err := parseCertReqMsg(content)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func parseCertReqMsg(s cryptobyte.String) (*CertReqMsg, error) {
	raw, content, ok := readElement(&s, cbasn1.SEQUENCE)
	if !ok {
		return nil, errors.New("invalid CertRequest")
	}
	req, err := parseCertRequest(raw, content)
	if err != nil {
		return nil, err
	}
	m := &CertReqMsg{CertReq: req}

	var el cryptobyte.String
	switch {
	case s.PeekASN1Tag(primitiveContextTag(0)):
		if !s.ReadASN1(&el, primitiveContextTag(0)) || !el.Empty() {
			return nil, errors.New("invalid raVerified")
		}
		m.POP = RAVerified{}
	case s.PeekASN1Tag(contextTag(1)):
		if !s.ReadASN1(&el, contextTag(1)) {
			return nil, errors.New("invalid POPOSigningKey")
		}
		if m.POP, err = parsePOPOSigningKey(el); err != nil {
			return nil, err
		}
	case s.PeekASN1Tag(contextTag(2)):
		if !s.ReadASN1Element(&el, contextTag(2)) {
			return nil, errors.New("invalid keyEncipherment")
		}
		m.POP = &KeyEncipherment{Raw: el}
	case s.PeekASN1Tag(contextTag(3)):
		if !s.ReadASN1Element(&el, contextTag(3)) {
			return nil, errors.New("invalid keyAgreement")
		}
		m.POP = &KeyAgreement{Raw: el}
	}

	if s.PeekASN1Tag(cbasn1.SEQUENCE) {
		if !s.ReadASN1Element(&el, cbasn1.SEQUENCE) {
			return nil, errors.New("invalid regInfo")
		}
		m.RegInfo = el
	}
	if !s.Empty() {
		return nil, errors.New("trailing data after CertReqMsg")
	}
	return m, nil
}

func parsePOPOSigningKey(s cryptobyte.String) (*POPOSigningKey, error) {
	pop := new(POPOSigningKey)
	input, present, err := readOptionalElement(&s, contextTag(0))
	if err != nil {
		return nil, errors.Wrap(err, "invalid poposkInput")
	}
	if present {
		pop.POPOSKInput = input
	}
	alg, err := parseAlgorithmIdentifier(&s)
	if err != nil {
		return nil, err
	}
	pop.Algorithm = *alg
	if !s.ReadASN1BitString(&pop.Signature) || !s.Empty() {
		return nil, errors.New("invalid POPOSigningKey signature")
	}
	return pop, nil
}

func parseCertRequest(raw, s cryptobyte.String) (*CertRequest, error) {
	req := &CertRequest{Raw: raw, CertReqID: new(big.Int)}
	if !s.ReadASN1Integer(req.CertReqID) {
		return nil, errors.New("invalid certReqId")
	}
	tmplRaw, tmpl, ok := readElement(&s, cbasn1.SEQUENCE)
	if !ok {
		return nil, errors.New("invalid certTemplate")
	}
	var err error
	if req.CertTemplate, err = parseCertTemplate(tmplRaw, tmpl); err != nil {
		return nil, err
	}
	if s.PeekASN1Tag(cbasn1.SEQUENCE) {
		var el cryptobyte.String
		if !s.ReadASN1Element(&el, cbasn1.SEQUENCE) {
			return nil, errors.New("invalid controls")
		}
		req.Controls = el
	}
	if !s.Empty() {
		return nil, errors.New("trailing data after CertRequest")
	}
	return req, nil
}

type optionalValidity struct {
	NotBefore time.Time `asn1:"explicit,optional,tag:0"`
	NotAfter  time.Time `asn1:"explicit,optional,tag:1"`
}

type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// parseCertTemplate decodes a CertTemplate. Fields use implicit tags except
// issuer and subject, which are CHOICEs and therefore explicit.
func parseCertTemplate(raw, s cryptobyte.String) (*CertTemplate, error) {
	t := &CertTemplate{Raw: raw}
	fields := []struct {
		tag   cbasn1.Tag
		parse func(el []byte) error
	}{
		{primitiveContextTag(0), func(el []byte) error {
			v := new(int)
			t.Version = v
			return unmarshalExact(el, v, "tag:0")
		}},
		{primitiveContextTag(1), func(el []byte) error {
			return unmarshalExact(el, &t.SerialNumber, "tag:1")
		}},
		{contextTag(2), func(el []byte) error {
			t.SigningAlg = new(pkix.AlgorithmIdentifier)
			return unmarshalExact(el, t.SigningAlg, "tag:2")
		}},
		{contextTag(3), func(el []byte) (err error) {
			t.Issuer, err = parseName(el, 3)
			return
		}},
		{contextTag(4), func(el []byte) error {
			var v optionalValidity
			if err := unmarshalExact(el, &v, "tag:4"); err != nil {
				return err
			}
			t.Validity = &OptionalValidity{NotBefore: v.NotBefore, NotAfter: v.NotAfter}
			return nil
		}},
		{contextTag(5), func(el []byte) (err error) {
			t.Subject, err = parseName(el, 5)
			return
		}},
		{contextTag(6), func(el []byte) error {
			var spki subjectPublicKeyInfo
			if err := unmarshalExact(el, &spki, "tag:6"); err != nil {
				return err
			}
			der, err := asn1.Marshal(spki)
			if err != nil {
				return err
			}
			t.PublicKey = &SubjectPublicKeyInfo{Raw: der, Algorithm: spki.Algorithm, PublicKey: spki.PublicKey}
			return nil
		}},
		{primitiveContextTag(7), func([]byte) error { return nil }},
		{primitiveContextTag(8), func([]byte) error { return nil }},
		{contextTag(9), func(el []byte) error {
			return unmarshalExact(el, &t.Extensions, "tag:9")
		}},
	}
	for i, f := range fields {
		el, present, err := readOptionalElement(&s, f.tag)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid certTemplate field [%d]", i)
		}
		if !present {
			continue
		}
		if err := f.parse(el); err != nil {
			return nil, errors.Wrapf(err, "invalid certTemplate field [%d]", i)
		}
	}
	if !s.Empty() {
		return nil, errors.New("trailing data after CertTemplate")
	}
	return t, nil
}

func parseName(el []byte, tag int) (*pkix.Name, error) {
	var rdn pkix.RDNSequence
	if err := unmarshalExact(el, &rdn, "explicit,tag:"+strconv.Itoa(tag)); err != nil {
		return nil, err
	}
	name := new(pkix.Name)
	name.FillFromRDNSequence(&rdn)
	return name, nil
}

func parseStatusInfo(s *cryptobyte.String) (*PKIStatusInfo, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) {
		return nil, errors.New("invalid PKIStatusInfo")
	}
	si := new(PKIStatusInfo)
	var status int
	if !seq.ReadASN1Integer(&status) {
		return nil, errors.New("invalid PKIStatus")
	}
	si.Status = PKIStatus(status)
	if seq.PeekASN1Tag(cbasn1.SEQUENCE) {
		texts, ok := readFreeText(&seq)
		if !ok {
			return nil, errors.New("invalid statusString")
		}
		si.StatusString = texts
	}
	if seq.PeekASN1Tag(cbasn1.BIT_STRING) {
		si.FailInfo = new(asn1.BitString)
		if !seq.ReadASN1BitString(si.FailInfo) {
			return nil, errors.New("invalid failInfo")
		}
	}
	if !seq.Empty() {
		return nil, errors.New("trailing data after PKIStatusInfo")
	}
	return si, nil
}

func parseCertRepMessage(s cryptobyte.String) (*CertRepMessage, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, errors.New("invalid CertRepMessage")
	}
	rep := new(CertRepMessage)
	var field cryptobyte.String
	var present bool
	if !seq.ReadOptionalASN1(&field, &present, contextTag(1)) {
		return nil, errors.New("invalid caPubs")
	}
	if present {
		certs, err := parseCertificates(field)
		if err != nil {
			return nil, errors.Wrap(err, "error parsing caPubs")
		}
		rep.CAPubs = certs
	}
	var responses cryptobyte.String
	if !seq.ReadASN1(&responses, cbasn1.SEQUENCE) || !seq.Empty() {
		return nil, errors.New("invalid response sequence")
	}
	for !responses.Empty() {
		_, content, ok := readElement(&responses, cbasn1.SEQUENCE)
		if !ok {
			return nil, errors.New("invalid CertResponse")
		}
		r, err := parseCertResponse(content)
		if err != nil {
			return nil, err
		}
		rep.Response = append(rep.Response, r)
	}
	return rep, nil
}

func parseCertResponse(s cryptobyte.String) (*CertResponse, error) {
	r := &CertResponse{CertReqID: new(big.Int)}
	if !s.ReadASN1Integer(r.CertReqID) {
		return nil, errors.New("invalid certReqId")
	}
	var err error
	if r.Status, err = parseStatusInfo(&s); err != nil {
		return nil, err
	}
	if s.PeekASN1Tag(cbasn1.SEQUENCE) {
		var kp cryptobyte.String
		if !s.ReadASN1(&kp, cbasn1.SEQUENCE) {
			return nil, errors.New("invalid CertifiedKeyPair")
		}
		if r.CertifiedKeyPair, err = parseCertifiedKeyPair(kp); err != nil {
			return nil, err
		}
	}
	if s.PeekASN1Tag(cbasn1.OCTET_STRING) {
		var ok bool
		if r.RspInfo, ok = readOctetString(&s); !ok {
			return nil, errors.New("invalid rspInfo")
		}
	}
	if !s.Empty() {
		return nil, errors.New("trailing data after CertResponse")
	}
	return r, nil
}

func parseCertifiedKeyPair(s cryptobyte.String) (*CertifiedKeyPair, error) {
	kp := new(CertifiedKeyPair)
	var field cryptobyte.String
	switch {
	case s.PeekASN1Tag(contextTag(0)):
		if !s.ReadASN1(&field, contextTag(0)) {
			return nil, errors.New("invalid certificate")
		}
		crt, err := x509.ParseCertificate(field)
		if err != nil {
			return nil, errors.Wrap(err, "error parsing certificate")
		}
		kp.Certificate = crt
	case s.PeekASN1Tag(contextTag(1)):
		if !s.ReadASN1Element(&field, contextTag(1)) {
			return nil, errors.New("invalid encryptedCert")
		}
		kp.EncryptedCert = field
	default:
		return nil, errors.New("invalid certOrEncCert")
	}
	el, present, err := readOptionalElement(&s, contextTag(0))
	if err != nil {
		return nil, errors.Wrap(err, "invalid privateKey")
	}
	if present {
		kp.PrivateKey = el
	}
	if _, _, err := readOptionalElement(&s, contextTag(1)); err != nil {
		return nil, errors.Wrap(err, "invalid publicationInfo")
	}
	if !s.Empty() {
		return nil, errors.New("trailing data after CertifiedKeyPair")
	}
	return kp, nil
}

func parseRevReqContent(s cryptobyte.String) (RevReqContent, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, errors.New("invalid RevReqContent")
	}
	content := RevReqContent{}
	for !seq.Empty() {
		var rd cryptobyte.String
		if !seq.ReadASN1(&rd, cbasn1.SEQUENCE) {
			return nil, errors.New("invalid RevDetails")
		}
		raw, tmpl, ok := readElement(&rd, cbasn1.SEQUENCE)
		if !ok {
			return nil, errors.New("invalid certDetails")
		}
		t, err := parseCertTemplate(raw, tmpl)
		if err != nil {
			return nil, err
		}
		details := &RevDetails{CertDetails: t}
		el, present, err := readOptionalElement(&rd, cbasn1.SEQUENCE)
		if err != nil {
			return nil, errors.Wrap(err, "invalid crlEntryDetails")
		}
		if present {
			details.CRLEntryDetails = []pkix.Extension{}
			if err := unmarshalExact(el, &details.CRLEntryDetails, ""); err != nil {
				return nil, errors.Wrap(err, "invalid crlEntryDetails")
			}
		}
		if !rd.Empty() {
			return nil, errors.New("trailing data after RevDetails")
		}
		content = append(content, details)
	}
	return content, nil
}

func parseRevRepContent(s cryptobyte.String) (*RevRepContent, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, errors.New("invalid RevRepContent")
	}
	rep := new(RevRepContent)
	var statuses cryptobyte.String
	if !seq.ReadASN1(&statuses, cbasn1.SEQUENCE) {
		return nil, errors.New("invalid status sequence")
	}
	for !statuses.Empty() {
		si, err := parseStatusInfo(&statuses)
		if err != nil {
			return nil, err
		}
		rep.Status = append(rep.Status, si)
	}
	var err error
	if rep.RevCerts, _, err = readOptionalElement(&seq, contextTag(0)); err != nil {
		return nil, errors.Wrap(err, "invalid revCerts")
	}
	if rep.CRLs, _, err = readOptionalElement(&seq, contextTag(1)); err != nil {
		return nil, errors.Wrap(err, "invalid crls")
	}
	if !seq.Empty() {
		return nil, errors.New("trailing data after RevRepContent")
	}
	return rep, nil
}

func parseCertConfirmContent(s cryptobyte.String) (CertConfirmContent, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, errors.New("invalid CertConfirmContent")
	}
	content := CertConfirmContent{}
	for !seq.Empty() {
		var cs cryptobyte.String
		if !seq.ReadASN1(&cs, cbasn1.SEQUENCE) {
			return nil, errors.New("invalid CertStatus")
		}
		status := &CertStatus{CertReqID: new(big.Int)}
		if cs.PeekASN1Tag(cbasn1.OCTET_STRING) {
			var ok bool
			if status.CertHash, ok = readOctetString(&cs); !ok {
				return nil, errors.New("invalid certHash")
			}
		}
		if !cs.ReadASN1Integer(status.CertReqID) {
			return nil, errors.New("invalid certReqId")
		}
		if cs.PeekASN1Tag(cbasn1.SEQUENCE) {
			si, err := parseStatusInfo(&cs)
			if err != nil {
				return nil, err
			}
			status.StatusInfo = si
		}
		var field cryptobyte.String
		var present bool
		if !cs.ReadOptionalASN1(&field, &present, contextTag(0)) {
			return nil, errors.New("invalid hashAlg")
		}
		if present {
			alg, err := parseAlgorithmIdentifier(&field)
			if err != nil {
				return nil, err
			}
			status.HashAlg = alg
		}
		if !cs.Empty() {
			return nil, errors.New("trailing data after CertStatus")
		}
		content = append(content, status)
	}
	return content, nil
}

func parseErrorMsgContent(s cryptobyte.String) (*ErrorMsgContent, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cbasn1.SEQUENCE) || !s.Empty() {
		return nil, errors.New("invalid ErrorMsgContent")
	}
	content := new(ErrorMsgContent)
	if seq.PeekASN1Tag(cbasn1.SEQUENCE) {
		si, err := parseStatusInfo(&seq)
		if err != nil {
			return nil, err
		}
		content.PKIStatusInfo = si
	}
	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		content.ErrorCode = new(big.Int)
		if !seq.ReadASN1Integer(content.ErrorCode) {
			return nil, errors.New("invalid errorCode")
		}
	}
	if seq.PeekASN1Tag(cbasn1.SEQUENCE) {
		texts, ok := readFreeText(&seq)
		if !ok {
			return nil, errors.New("invalid errorDetails")
		}
		content.ErrorDetails = texts
	}
	if !seq.Empty() {
		return nil, errors.New("trailing data after ErrorMsgContent")
	}
	return content, nil
}
