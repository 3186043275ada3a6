package cmp

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validHeader() *PKIHeader {
	name := &asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 4, IsCompound: true}
	return &PKIHeader{
		PVNO:          PVNO2000,
		Sender:        name,
		Recipient:     name,
		TransactionID: make([]byte, 16),
		SenderNonce:   make([]byte, 16),
	}
}

func TestValidateHeader(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		modify func(m *PKIMessage)
		want   Kind
	}{
		{"ok", func(*PKIMessage) {}, 0},
		{"ok protected", func(m *PKIMessage) {
			m.Protection = &asn1.BitString{Bytes: []byte{1}, BitLength: 8}
			m.Header.ProtectionAlg = &pkix.AlgorithmIdentifier{Algorithm: oidPasswordBasedMAC}
		}, 0},
		{"ok long nonces", func(m *PKIMessage) {
			m.Header.TransactionID = make([]byte, 32)
			m.Header.SenderNonce = make([]byte, 64)
		}, 0},
		{"missing header", func(m *PKIMessage) { m.Header = nil }, KindBadDataFormat},
		{"version 1", func(m *PKIMessage) { m.Header.PVNO = 1 }, KindUnsupportedVersion},
		{"version 3", func(m *PKIMessage) { m.Header.PVNO = 3 }, KindUnsupportedVersion},
		{"version 0", func(m *PKIMessage) { m.Header.PVNO = 0 }, KindUnsupportedVersion},
		{"missing sender", func(m *PKIMessage) { m.Header.Sender = nil }, KindBadDataFormat},
		{"missing recipient", func(m *PKIMessage) { m.Header.Recipient = nil }, KindBadDataFormat},
		{"missing transactionID", func(m *PKIMessage) { m.Header.TransactionID = nil }, KindAddInfoNotAvailable},
		{"short transactionID", func(m *PKIMessage) { m.Header.TransactionID = make([]byte, 15) }, KindBadRequest},
		{"missing senderNonce", func(m *PKIMessage) { m.Header.SenderNonce = nil }, KindAddInfoNotAvailable},
		{"short senderNonce", func(m *PKIMessage) { m.Header.SenderNonce = []byte{} }, KindBadRequest},
		{"protection without protectionAlg", func(m *PKIMessage) {
			m.Protection = &asn1.BitString{Bytes: []byte{1}, BitLength: 8}
		}, KindBadDataFormat},
		{"version checked first", func(m *PKIMessage) {
			m.Header.PVNO = 1
			m.Header.Sender = nil
			m.Header.TransactionID = nil
		}, KindUnsupportedVersion},
		{"transactionID checked before senderNonce", func(m *PKIMessage) {
			m.Header.TransactionID = make([]byte, 4)
			m.Header.SenderNonce = nil
		}, KindBadRequest},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg := &PKIMessage{Header: validHeader()}
			tc.modify(msg)
			err := ValidateHeader(msg, macConfig())
			if tc.want == 0 {
				assert.NoError(t, err)
				return
			}
			assertKind(t, err, tc.want)
		})
	}
}

func TestValidateHeader_nilMessage(t *testing.T) {
	t.Parallel()
	assertKind(t, ValidateHeader(nil, macConfig()), KindBadDataFormat)
}

func TestValidateHeader_transactionID(t *testing.T) {
	t.Parallel()
	h := validHeader()
	h.PVNO = 1
	h.TransactionID = []byte("0123456789abcdef")
	e := assertKind(t, ValidateHeader(&PKIMessage{Header: h}, nil), KindUnsupportedVersion)
	assert.Equal(t, h.TransactionID, e.TransactionID)
	assert.Equal(t, FailUnsupportedVersion, e.FailInfo())
}
