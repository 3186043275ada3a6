package cmp

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"sync"
	"testing"
	"time"

	"github.com/czertainly/cmp-validator/internal/cmptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.step.sm/crypto/keyutil"
	"go.step.sm/crypto/minica"
)

type testConfig struct {
	method     ProtectionMethod
	secret     []byte
	maxIter    int
	onRequest  func(*PKIMessage) error
	onResponse func(*PKIMessage) error

	mu      sync.Mutex
	signers []*x509.Certificate
}

func (c *testConfig) Name() string                       { return "test" }
func (c *testConfig) ProtectionMethod() ProtectionMethod { return c.method }
func (c *testConfig) SharedSecret() []byte               { return c.secret }
func (c *testConfig) MaxIterationCount() int             { return c.maxIter }

func (c *testConfig) ValidateOnCrmfRequest(msg *PKIMessage) error {
	if c.onRequest != nil {
		return c.onRequest(msg)
	}
	return nil
}

func (c *testConfig) ValidateOnCrmfResponse(msg *PKIMessage) error {
	if c.onResponse != nil {
		return c.onResponse(msg)
	}
	return nil
}

func (c *testConfig) OnSigner(_ *PKIMessage, crt *x509.Certificate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signers = append(c.signers, crt)
}

var testSecret = []byte("a shared secret of the test RA")

func macConfig() *testConfig {
	return &testConfig{method: ProtectionMethodMAC, secret: testSecret}
}

func signatureConfig() *testConfig {
	return &testConfig{method: ProtectionMethodSignature}
}

func mustSigner(t *testing.T, kty, crv string, size int) crypto.Signer {
	t.Helper()
	s, err := keyutil.GenerateSigner(kty, crv, size)
	require.NoError(t, err)
	return s
}

// mustCertificate returns a certificate for the key of signer issued by a
// throwaway CA.
func mustCertificate(t *testing.T, signer crypto.Signer) *x509.Certificate {
	t.Helper()
	ca, err := minica.New()
	require.NoError(t, err)
	crt, err := ca.Sign(&x509.Certificate{
		PublicKey: signer.Public(),
		Subject:   pkix.Name{CommonName: "Test RA"},
		NotBefore: time.Now().Add(-time.Minute),
		NotAfter:  time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return crt
}

func mustParse(t *testing.T, der []byte) *PKIMessage {
	t.Helper()
	msg, err := ParseMessage(der)
	require.NoError(t, err)
	return msg
}

func testTemplate() *cmptest.Template {
	return &cmptest.Template{Subject: &pkix.Name{CommonName: "Test"}}
}

// newRequestBody returns an ir body with a single request for the key of
// signer.
func newRequestBody(t *testing.T, signer crypto.Signer, certReqID int64, tmpl *cmptest.Template) []byte {
	t.Helper()
	reqs, err := cmptest.SignedCertReqMessages(signer, certReqID, tmpl)
	require.NoError(t, err)
	return cmptest.Body(cmptest.TagIR, reqs)
}

func assertKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok, "expected *Error, got %T: %v", err, err)
	assert.Equal(t, kind, e.Kind, "unexpected kind, error: %v", err)
	return e
}
