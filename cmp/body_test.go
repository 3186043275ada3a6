package cmp

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"

	"github.com/czertainly/cmp-validator/internal/cmptest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func certRequestMessage(t BodyType, id int64, tmpl *CertTemplate) *PKIMessage {
	return &PKIMessage{
		Header: validHeader(),
		Body: &PKIBody{Type: t, Content: CertReqMessages{
			{CertReq: &CertRequest{CertReqID: big.NewInt(id), CertTemplate: tmpl}},
		}},
	}
}

func subjectTemplate() *CertTemplate {
	return &CertTemplate{Subject: &pkix.Name{CommonName: "Test"}}
}

func TestValidateBody_certRequest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		certReqID int64
		tmpl      *CertTemplate
		want      Kind
	}{
		{"ok", 0, subjectTemplate(), 0},
		{"ok version 2", 0, &CertTemplate{Version: intPtr(2), Subject: &pkix.Name{}}, 0},
		{"certReqId 1", 1, subjectTemplate(), KindBadDataFormat},
		{"certReqId -1", -1, subjectTemplate(), KindBadDataFormat},
		{"version 0", 0, &CertTemplate{Version: intPtr(0), Subject: &pkix.Name{}}, KindBadCertTemplate},
		{"version 1", 0, &CertTemplate{Version: intPtr(1), Subject: &pkix.Name{}}, KindBadCertTemplate},
		{"version 3", 0, &CertTemplate{Version: intPtr(3), Subject: &pkix.Name{}}, KindBadCertTemplate},
		{"missing subject", 0, &CertTemplate{}, KindBadCertTemplate},
		{"missing template", 0, nil, KindBadCertTemplate},
	}
	for _, tt := range tests {
		tc := tt
		for _, bt := range []BodyType{BodyTypeIR, BodyTypeCR, BodyTypeKUR} {
			bodyType := bt
			t.Run(tc.name+"/"+bodyType.String(), func(t *testing.T) {
				t.Parallel()
				err := ValidateBody(certRequestMessage(bodyType, tc.certReqID, tc.tmpl), macConfig())
				if tc.want == 0 {
					assert.NoError(t, err)
					return
				}
				e := assertKind(t, err, tc.want)
				assert.True(t, e.CRMF)
			})
		}
	}
}

func TestValidateBody_certRequestCollection(t *testing.T) {
	t.Parallel()
	one := &CertReqMsg{CertReq: &CertRequest{CertReqID: big.NewInt(0), CertTemplate: subjectTemplate()}}
	tests := []struct {
		name    string
		content BodyContent
		want    Kind
	}{
		{"missing", nil, KindAddInfoNotAvailable},
		{"empty", CertReqMessages{}, KindBadDataFormat},
		{"two requests", CertReqMessages{one, one}, KindBadDataFormat},
		{"null request", CertReqMessages{nil}, KindBadDataFormat},
		{"null certReq", CertReqMessages{{}}, KindBadDataFormat},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg := &PKIMessage{Header: validHeader(), Body: &PKIBody{Type: BodyTypeCR, Content: tc.content}}
			e := assertKind(t, ValidateBody(msg, macConfig()), tc.want)
			assert.True(t, e.CRMF)
		})
	}
}

func TestValidateBody_certRequestHook(t *testing.T) {
	t.Parallel()
	var called *PKIMessage
	cfg := macConfig()
	cfg.onRequest = func(msg *PKIMessage) error {
		called = msg
		return NewError(KindNotAuthorized, msg.TransactionID(), "denied by policy")
	}
	msg := certRequestMessage(BodyTypeIR, 0, subjectTemplate())
	msg.Header.TransactionID = []byte("0123456789abcdef")

	e := assertKind(t, ValidateBody(msg, cfg), KindNotAuthorized)
	assert.Same(t, msg, called)
	assert.True(t, e.CRMF)
	assert.Equal(t, "denied by policy", e.Detail)
	assert.Equal(t, msg.Header.TransactionID, e.TransactionID)
	assert.Contains(t, e.Error(), "crmf validation")

	// the hook is not reached when the structure is invalid
	called = nil
	assertKind(t, ValidateBody(certRequestMessage(BodyTypeIR, 1, subjectTemplate()), cfg), KindBadDataFormat)
	assert.Nil(t, called)
}

func TestValidateBody_systemFailure(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		hook func(*PKIMessage) error
	}{
		{"untyped error", func(*PKIMessage) error { return errors.New("database is down") }},
		{"panic", func(*PKIMessage) error { panic("boom") }},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := macConfig()
			cfg.onRequest = tc.hook
			e := assertKind(t, ValidateBody(certRequestMessage(BodyTypeIR, 0, subjectTemplate()), cfg), KindSystemFailure)
			assert.True(t, e.CRMF)
			assert.Equal(t, FailSystemFailure, e.FailInfo())
		})
	}
}

func certificate(t *testing.T) *x509.Certificate {
	t.Helper()
	return mustCertificate(t, mustSigner(t, "EC", "P-256", 0))
}

func TestValidateBody_certResponse(t *testing.T) {
	t.Parallel()
	crt := certificate(t)
	badPOP := FailBadPOP.BitString()
	granted := func(s PKIStatus, failInfo *asn1.BitString, crt *x509.Certificate) *CertResponse {
		return &CertResponse{
			CertReqID:        big.NewInt(0),
			Status:           &PKIStatusInfo{Status: s, FailInfo: failInfo},
			CertifiedKeyPair: &CertifiedKeyPair{Certificate: crt},
		}
	}
	rejected := func(s PKIStatus, failInfo *asn1.BitString) *CertResponse {
		return &CertResponse{CertReqID: big.NewInt(0), Status: &PKIStatusInfo{Status: s, FailInfo: failInfo}}
	}
	tests := []struct {
		name    string
		content BodyContent
		want    Kind
	}{
		{"accepted", &CertRepMessage{Response: []*CertResponse{granted(StatusAccepted, nil, crt)}}, 0},
		{"grantedWithMods", &CertRepMessage{Response: []*CertResponse{granted(StatusGrantedWithMods, nil, crt)}}, 0},
		{"rejection", &CertRepMessage{Response: []*CertResponse{rejected(StatusRejection, &badPOP)}}, 0},
		{"accepted with failInfo", &CertRepMessage{Response: []*CertResponse{granted(StatusAccepted, &badPOP, crt)}}, KindBadDataFormat},
		{"accepted without certificate", &CertRepMessage{Response: []*CertResponse{granted(StatusAccepted, nil, nil)}}, KindBadDataFormat},
		{"rejection with key pair", &CertRepMessage{Response: []*CertResponse{granted(StatusRejection, &badPOP, crt)}}, KindBadDataFormat},
		{"rejection without failInfo", &CertRepMessage{Response: []*CertResponse{rejected(StatusRejection, nil)}}, KindBadDataFormat},
		{"waiting without key pair", &CertRepMessage{Response: []*CertResponse{rejected(StatusWaiting, &badPOP)}}, KindBadDataFormat},
		{"accepted without key pair", &CertRepMessage{Response: []*CertResponse{rejected(StatusAccepted, nil)}}, KindBadDataFormat},
		{"missing status", &CertRepMessage{Response: []*CertResponse{{CertReqID: big.NewInt(0)}}}, KindBadDataFormat},
		{"certReqId 1", &CertRepMessage{Response: []*CertResponse{{CertReqID: big.NewInt(1), Status: &PKIStatusInfo{}}}}, KindBadDataFormat},
		{"no response", &CertRepMessage{}, KindBadDataFormat},
		{"missing content", nil, KindAddInfoNotAvailable},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg := &PKIMessage{Header: validHeader(), Body: &PKIBody{Type: BodyTypeIP, Content: tc.content}}
			err := ValidateBody(msg, macConfig())
			if tc.want == 0 {
				assert.NoError(t, err)
				return
			}
			e := assertKind(t, err, tc.want)
			assert.True(t, e.CRMF)
		})
	}
}

// For every status the response is valid exactly when status == rejection
// is equivalent to failInfo being present, with a key pair only on
// positive statuses.
func TestValidateBody_statusInfoBiconditional(t *testing.T) {
	t.Parallel()
	crt := certificate(t)
	fi := FailBadRequest.BitString()
	for s := StatusAccepted; s <= StatusKeyUpdateWarning; s++ {
		for _, withFailInfo := range []bool{false, true} {
			for _, withKeyPair := range []bool{false, true} {
				resp := &CertResponse{CertReqID: big.NewInt(0), Status: &PKIStatusInfo{Status: s}}
				if withFailInfo {
					resp.Status.FailInfo = &fi
				}
				if withKeyPair {
					resp.CertifiedKeyPair = &CertifiedKeyPair{Certificate: crt}
				}
				msg := &PKIMessage{Header: validHeader(), Body: &PKIBody{Type: BodyTypeCP, Content: &CertRepMessage{Response: []*CertResponse{resp}}}}
				err := ValidateBody(msg, macConfig())

				positive := s == StatusAccepted || s == StatusGrantedWithMods
				valid := (withKeyPair && positive && !withFailInfo) || (!withKeyPair && s == StatusRejection && withFailInfo)
				if valid {
					assert.NoError(t, err, "status %d failInfo %v keyPair %v", s, withFailInfo, withKeyPair)
				} else {
					assertKind(t, err, KindBadDataFormat)
				}
			}
		}
	}
}

func TestValidateBody_certResponseHook(t *testing.T) {
	t.Parallel()
	cfg := macConfig()
	cfg.onResponse = func(msg *PKIMessage) error {
		return NewError(KindBadCertTemplate, msg.TransactionID(), "certificate expired")
	}
	msg := &PKIMessage{Header: validHeader(), Body: &PKIBody{Type: BodyTypeKUP, Content: &CertRepMessage{Response: []*CertResponse{{
		CertReqID:        big.NewInt(0),
		Status:           &PKIStatusInfo{Status: StatusAccepted},
		CertifiedKeyPair: &CertifiedKeyPair{Certificate: certificate(t)},
	}}}}}
	e := assertKind(t, ValidateBody(msg, cfg), KindBadCertTemplate)
	assert.True(t, e.CRMF)
}

func revocationMessage(details ...*RevDetails) *PKIMessage {
	return &PKIMessage{Header: validHeader(), Body: &PKIBody{Type: BodyTypeRR, Content: append(RevReqContent{}, details...)}}
}

func revDetails(reason ...pkix.Extension) *RevDetails {
	return &RevDetails{
		CertDetails: &CertTemplate{
			SerialNumber: big.NewInt(42),
			Issuer:       &pkix.Name{CommonName: "Test CA"},
		},
		CRLEntryDetails: reason,
	}
}

func TestValidateBody_revocationRequest(t *testing.T) {
	t.Parallel()
	noSerial := revDetails(cmptest.ReasonCode(0))
	noSerial.CertDetails.SerialNumber = nil
	noIssuer := revDetails(cmptest.ReasonCode(0))
	noIssuer.CertDetails.Issuer = nil
	other := pkix.Extension{Id: asn1.ObjectIdentifier{2, 5, 29, 24}, Value: []byte{0x18, 0x00}}

	tests := []struct {
		name string
		msg  *PKIMessage
		want Kind
	}{
		{"reason 0", revocationMessage(revDetails(cmptest.ReasonCode(0))), 0},
		{"reason 10", revocationMessage(revDetails(cmptest.ReasonCode(10))), 0},
		{"reason 1 after other extension", revocationMessage(revDetails(other, cmptest.ReasonCode(1))), 0},
		{"reason -1", revocationMessage(revDetails(cmptest.ReasonCode(-1))), KindBadDataFormat},
		{"reason 11", revocationMessage(revDetails(cmptest.ReasonCode(11))), KindBadDataFormat},
		{"invalid reason", revocationMessage(revDetails(pkix.Extension{Id: oidExtensionReasonCode, Value: []byte{0x02}})), KindBadDataFormat},
		{"no reason", revocationMessage(revDetails(other)), KindAddInfoNotAvailable},
		{"no crlEntryDetails", revocationMessage(revDetails()), KindAddInfoNotAvailable},
		{"no serialNumber", revocationMessage(noSerial), KindAddInfoNotAvailable},
		{"no issuer", revocationMessage(noIssuer), KindAddInfoNotAvailable},
		{"two requests", revocationMessage(revDetails(cmptest.ReasonCode(0)), revDetails(cmptest.ReasonCode(0))), KindBadDataFormat},
		{"no requests", revocationMessage(), KindBadDataFormat},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateBody(tc.msg, macConfig())
			if tc.want == 0 {
				assert.NoError(t, err)
				return
			}
			e := assertKind(t, err, tc.want)
			assert.False(t, e.CRMF)
		})
	}
}

func TestValidateBody_revocationResponse(t *testing.T) {
	t.Parallel()
	fi := FailBadCertID.BitString()
	tests := []struct {
		name   string
		status []*PKIStatusInfo
		want   Kind
	}{
		{"accepted", []*PKIStatusInfo{{Status: StatusAccepted}}, 0},
		{"rejection", []*PKIStatusInfo{{Status: StatusRejection, FailInfo: &fi}}, 0},
		{"accepted with failInfo", []*PKIStatusInfo{{Status: StatusAccepted, FailInfo: &fi}}, KindBadDataFormat},
		{"rejection without failInfo", []*PKIStatusInfo{{Status: StatusRejection}}, KindBadDataFormat},
		{"revocationWarning", []*PKIStatusInfo{{Status: StatusRevocationWarning, FailInfo: &fi}}, KindBadDataFormat},
		{"two statuses", []*PKIStatusInfo{{Status: StatusAccepted}, {Status: StatusAccepted}}, KindBadDataFormat},
		{"no status", nil, KindBadDataFormat},
		{"null status", []*PKIStatusInfo{nil}, KindBadDataFormat},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg := &PKIMessage{Header: validHeader(), Body: &PKIBody{Type: BodyTypeRP, Content: &RevRepContent{Status: tc.status}}}
			err := ValidateBody(msg, nil)
			if tc.want == 0 {
				assert.NoError(t, err)
				return
			}
			assertKind(t, err, tc.want)
		})
	}
}

func TestValidateBody_confirmationsAndErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body *PKIBody
		want Kind
	}{
		{"certConf", &PKIBody{Type: BodyTypeCertConf, Content: CertConfirmContent{{CertHash: []byte{1}, CertReqID: big.NewInt(0)}}}, 0},
		{"certConf without certHash", &PKIBody{Type: BodyTypeCertConf, Content: CertConfirmContent{{CertReqID: big.NewInt(0)}}}, KindBadDataFormat},
		{"certConf empty", &PKIBody{Type: BodyTypeCertConf, Content: CertConfirmContent{}}, KindBadDataFormat},
		{"certConf two statuses", &PKIBody{Type: BodyTypeCertConf, Content: CertConfirmContent{{CertHash: []byte{1}}, {CertHash: []byte{2}}}}, KindBadDataFormat},
		{"pkiconf", &PKIBody{Type: BodyTypePKIConf, Content: PKIConfirmContent{}}, 0},
		{"error", &PKIBody{Type: BodyTypeError, Content: &ErrorMsgContent{PKIStatusInfo: &PKIStatusInfo{Status: StatusRejection}}}, 0},
		{"error without status", &PKIBody{Type: BodyTypeError, Content: &ErrorMsgContent{}}, KindBadDataFormat},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateBody(&PKIMessage{Header: validHeader(), Body: tc.body}, nil)
			if tc.want == 0 {
				assert.NoError(t, err)
				return
			}
			assertKind(t, err, tc.want)
		})
	}
}

func TestValidateBody_unsupported(t *testing.T) {
	t.Parallel()
	notImplemented := map[BodyType]bool{
		BodyTypeP10CR: true, BodyTypePollReq: true, BodyTypePollRep: true,
		BodyTypeGenM: true, BodyTypeGenP: true, BodyTypeNested: true,
	}
	for _, bt := range []BodyType{
		BodyTypeP10CR, BodyTypePOPDecC, BodyTypePOPDecR, BodyTypeKRR, BodyTypeKRP, BodyTypeCCR, BodyTypeCCP,
		BodyTypeCKUAnn, BodyTypeCAnn, BodyTypeRAnn, BodyTypeCRLAnn, BodyTypeNested, BodyTypeGenM, BodyTypeGenP,
		BodyTypePollReq, BodyTypePollRep,
	} {
		msg := &PKIMessage{Header: validHeader(), Body: &PKIBody{Type: bt, Content: &UnsupportedContent{}}}
		e := assertKind(t, ValidateBody(msg, macConfig()), KindBadDataFormat)
		if notImplemented[bt] {
			assert.Contains(t, e.Detail, "not implemented")
		} else {
			assert.Contains(t, e.Detail, "not supported")
		}
	}
	assertKind(t, ValidateBody(&PKIMessage{Header: validHeader()}, nil), KindBadDataFormat)
}

func TestValidateBody_parsedMessages(t *testing.T) {
	t.Parallel()
	status := cmptest.StatusInfo(int(StatusRejection), cmptest.FailInfo(int(FailBadPOP)))
	crt := certificate(t)
	tests := []struct {
		name string
		body []byte
		want Kind
	}{
		{"ir", newRequestBody(t, mustSigner(t, "EC", "P-256", 0), 0, testTemplate()), 0},
		{"ip", cmptest.Body(cmptest.TagIP, cmptest.CertRepMessage(cmptest.CertResponse(0, cmptest.StatusInfo(0, nil), crt.Raw))), 0},
		{"cp rejected", cmptest.Body(cmptest.TagCP, cmptest.CertRepMessage(cmptest.CertResponse(0, status, nil))), 0},
		{"rr", cmptest.Body(cmptest.TagRR, cmptest.RevReqContent(cmptest.RevDetails(
			(&cmptest.Template{SerialNumber: big.NewInt(7), Issuer: &pkix.Name{CommonName: "Test CA"}}).Marshal(),
			[]pkix.Extension{cmptest.ReasonCode(4)},
		))), 0},
		{"rr without crlEntryDetails", cmptest.Body(cmptest.TagRR, cmptest.RevReqContent(cmptest.RevDetails(
			(&cmptest.Template{SerialNumber: big.NewInt(7), Issuer: &pkix.Name{CommonName: "Test CA"}}).Marshal(), nil,
		))), KindAddInfoNotAvailable},
		{"rp", cmptest.Body(cmptest.TagRP, cmptest.RevRepContent(cmptest.StatusInfo(0, nil))), 0},
		{"certConf", cmptest.Body(cmptest.TagCertConf, cmptest.CertConfirmContent(cmptest.CertStatus([]byte{1, 2}, 0))), 0},
		{"certConf without hash", cmptest.Body(cmptest.TagCertConf, cmptest.CertConfirmContent(cmptest.CertStatus(nil, 0))), KindBadDataFormat},
		{"pkiconf", pkiconfBody(), 0},
		{"error", cmptest.Body(cmptest.TagError, cmptest.ErrorMsgContent(status)), 0},
		{"genm", cmptest.Body(cmptest.TagGenM, cmptest.GenMsgContent()), KindBadDataFormat},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg := mustParse(t, cmptest.Message(cmptest.NewHeader().Marshal(), tc.body, nil))
			err := ValidateBody(msg, macConfig())
			if tc.want == 0 {
				assert.NoError(t, err)
				return
			}
			assertKind(t, err, tc.want)
		})
	}
}
