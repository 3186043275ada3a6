package cmp

import (
	"testing"

	"github.com/czertainly/cmp-validator/internal/cmptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_acceptPBM(t *testing.T) {
	t.Parallel()
	signer := mustSigner(t, "EC", "P-256", 0)
	der := cmptest.PBMProtect(cmptest.NewHeader(), newRequestBody(t, signer, 0, testTemplate()), testSecret, 1000)
	msg := mustParse(t, der)

	cfg := macConfig()
	var requested bool
	cfg.onRequest = func(m *PKIMessage) error {
		requested = true
		assert.Same(t, msg, m)
		return nil
	}
	require.NoError(t, Validate(msg, cfg))
	assert.True(t, requested)
	for _, stage := range []Stage{StageHeader, StageProtection, StageBody, StagePOP, StageAll, ""} {
		assert.NoError(t, ValidateStage(stage, msg, cfg), "stage %q", stage)
	}
}

func TestValidate_acceptSignature(t *testing.T) {
	t.Parallel()
	ra := mustSigner(t, "RSA", "", 2048)
	crt := mustCertificate(t, ra)
	body := cmptest.Body(cmptest.TagCertConf, cmptest.CertConfirmContent(cmptest.CertStatus([]byte{1, 2, 3}, 0)))
	der, err := cmptest.SignatureProtect(cmptest.NewHeader(), body, ra, crt.Raw)
	require.NoError(t, err)

	cfg := signatureConfig()
	require.NoError(t, ValidateStage(StageAll, mustParse(t, der), cfg))
	require.Len(t, cfg.signers, 1)
	assert.Equal(t, crt.Raw, cfg.signers[0].Raw)
}

func TestValidate_badMAC(t *testing.T) {
	t.Parallel()
	signer := mustSigner(t, "EC", "P-256", 0)
	der := cmptest.PBMProtect(cmptest.NewHeader(), newRequestBody(t, signer, 0, testTemplate()), testSecret, 1000)
	// the protection is the last element of the message
	der[len(der)-1] ^= 0x01

	msg := mustParse(t, der)
	assert.NoError(t, ValidateHeader(msg, macConfig()))
	e := assertKind(t, Validate(msg, macConfig()), KindBadMessageCheck)
	assert.Equal(t, FailBadMessageCheck, e.FailInfo())
	assert.False(t, e.CRMF)
}

func TestValidate_missingExtraCerts(t *testing.T) {
	t.Parallel()
	ra := mustSigner(t, "EC", "P-256", 0)
	body := cmptest.Body(cmptest.TagPKIConf, cmptest.PKIConfirmContent())
	der, err := cmptest.SignatureProtect(cmptest.NewHeader(), body, ra, nil)
	require.NoError(t, err)

	e := assertKind(t, Validate(mustParse(t, der), signatureConfig()), KindAddInfoNotAvailable)
	assert.Equal(t, FailAddInfoNotAvailable, e.FailInfo())
}

func TestValidate_stopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	h := cmptest.NewHeader()
	h.PVNO = 1
	signer := mustSigner(t, "EC", "P-256", 0)
	der := cmptest.PBMProtect(h, newRequestBody(t, signer, 0, testTemplate()), []byte("another secret"), 1000)

	cfg := macConfig()
	cfg.onRequest = func(*PKIMessage) error {
		t.Error("body validation must not run")
		return nil
	}
	assertKind(t, Validate(mustParse(t, der), cfg), KindUnsupportedVersion)
}

func TestValidateStage(t *testing.T) {
	t.Parallel()
	signer := mustSigner(t, "EC", "P-256", 0)
	reqs, err := cmptest.SignedCertReqMessages(signer, 0, testTemplate())
	require.NoError(t, err)

	// A broken POP signature only fails the pop stage.
	der := cmptest.PBMProtect(cmptest.NewHeader(), cmptest.Body(cmptest.TagCR, reqs), testSecret, 100)
	msg := mustParse(t, der)
	req := msg.Body.Content.(CertReqMessages)[0]
	pop := req.POP.(*POPOSigningKey)
	sig := append([]byte{}, pop.Signature.Bytes...)
	sig[len(sig)/2] ^= 0x01
	pop.Signature.Bytes = sig

	cfg := macConfig()
	assert.NoError(t, ValidateStage(StageHeader, msg, cfg))
	assert.NoError(t, ValidateStage(StageProtection, msg, cfg))
	assert.NoError(t, ValidateStage(StageBody, msg, cfg))
	assertKind(t, ValidateStage(StagePOP, msg, cfg), KindBadPOP)
	assertKind(t, ValidateStage(StageAll, msg, cfg), KindBadPOP)

	e := assertKind(t, ValidateStage(Stage("everything"), msg, cfg), KindBadRequest)
	assert.Contains(t, e.Detail, "everything")
	assertKind(t, ValidateStage(Stage("everything"), nil, cfg), KindBadRequest)
}

func TestValidateStage_allSkipsPOPForResponses(t *testing.T) {
	t.Parallel()
	status := cmptest.StatusInfo(int(StatusRejection), cmptest.FailInfo(int(FailBadPOP)))
	body := cmptest.Body(cmptest.TagIP, cmptest.CertRepMessage(cmptest.CertResponse(0, status, nil)))
	der := cmptest.PBMProtect(cmptest.NewHeader(), body, testSecret, 100)
	assert.NoError(t, ValidateStage(StageAll, mustParse(t, der), macConfig()))
}
