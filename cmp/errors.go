package cmp

import (
	"encoding/asn1"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

// FailInfo is a bit of the RFC 4210 PKIFailureInfo BIT STRING.
type FailInfo int

// PKIFailureInfo bits.
const (
	FailBadAlg              FailInfo = 0
	FailBadMessageCheck     FailInfo = 1
	FailBadRequest          FailInfo = 2
	FailBadTime             FailInfo = 3
	FailBadCertID           FailInfo = 4
	FailBadDataFormat       FailInfo = 5
	FailWrongAuthority      FailInfo = 6
	FailIncorrectData       FailInfo = 7
	FailMissingTimeStamp    FailInfo = 8
	FailBadPOP              FailInfo = 9
	FailCertRevoked         FailInfo = 10
	FailCertConfirmed       FailInfo = 11
	FailWrongIntegrity      FailInfo = 12
	FailBadRecipientNonce   FailInfo = 13
	FailTimeNotAvailable    FailInfo = 14
	FailUnacceptedPolicy    FailInfo = 15
	FailUnacceptedExtension FailInfo = 16
	FailAddInfoNotAvailable FailInfo = 17
	FailBadSenderNonce      FailInfo = 18
	FailBadCertTemplate     FailInfo = 19
	FailSignerNotTrusted    FailInfo = 20
	FailTransactionIDInUse  FailInfo = 21
	FailUnsupportedVersion  FailInfo = 22
	FailNotAuthorized       FailInfo = 23
	FailSystemUnavail       FailInfo = 24
	FailSystemFailure       FailInfo = 25
	FailDuplicateCertReq    FailInfo = 26
)

var failInfoNames = [...]string{
	"badAlg", "badMessageCheck", "badRequest", "badTime", "badCertId",
	"badDataFormat", "wrongAuthority", "incorrectData", "missingTimeStamp",
	"badPOP", "certRevoked", "certConfirmed", "wrongIntegrity",
	"badRecipientNonce", "timeNotAvailable", "unacceptedPolicy",
	"unacceptedExtension", "addInfoNotAvailable", "badSenderNonce",
	"badCertTemplate", "signerNotTrusted", "transactionIdInUse",
	"unsupportedVersion", "notAuthorized", "systemUnavail", "systemFailure",
	"duplicateCertReq",
}

// String returns the ASN.1 name of the failure bit.
func (f FailInfo) String() string {
	if f < 0 || int(f) >= len(failInfoNames) {
		return fmt.Sprintf("failInfo(%d)", int(f))
	}
	return failInfoNames[f]
}

// BitString returns the DER ready PKIFailureInfo with only this bit set.
func (f FailInfo) BitString() asn1.BitString {
	n := int(f)
	b := make([]byte, n/8+1)
	b[n/8] = 0x80 >> uint(n%8)
	return asn1.BitString{Bytes: b, BitLength: n + 1}
}

// Kind classifies validation failures.
type Kind int

// Validation failure kinds.
const (
	KindUnsupportedVersion Kind = iota + 1
	KindBadDataFormat
	KindBadCertTemplate
	KindBadRequest
	KindAddInfoNotAvailable
	KindBadPOP
	KindBadMessageCheck
	KindWrongIntegrity
	KindBadAlg
	KindNotAuthorized
	KindConfigurationError
	KindSystemFailure
	KindNotImplemented
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnsupportedVersion:
		return "unsupportedVersion"
	case KindBadDataFormat:
		return "badDataFormat"
	case KindBadCertTemplate:
		return "badCertTemplate"
	case KindBadRequest:
		return "badRequest"
	case KindAddInfoNotAvailable:
		return "addInfoNotAvailable"
	case KindBadPOP:
		return "badPOP"
	case KindBadMessageCheck:
		return "badMessageCheck"
	case KindWrongIntegrity:
		return "wrongIntegrity"
	case KindBadAlg:
		return "badAlg"
	case KindNotAuthorized:
		return "notAuthorized"
	case KindConfigurationError:
		return "configurationError"
	case KindSystemFailure:
		return "systemFailure"
	case KindNotImplemented:
		return "notImplemented"
	default:
		return "unknown"
	}
}

// FailInfo returns the PKIFailureInfo bit reported for the kind.
func (k Kind) FailInfo() FailInfo {
	switch k {
	case KindUnsupportedVersion:
		return FailUnsupportedVersion
	case KindBadDataFormat:
		return FailBadDataFormat
	case KindBadCertTemplate:
		return FailBadCertTemplate
	case KindBadRequest, KindNotImplemented:
		return FailBadRequest
	case KindAddInfoNotAvailable:
		return FailAddInfoNotAvailable
	case KindBadPOP:
		return FailBadPOP
	case KindBadMessageCheck:
		return FailBadMessageCheck
	case KindWrongIntegrity:
		return FailWrongIntegrity
	case KindBadAlg:
		return FailBadAlg
	case KindNotAuthorized:
		return FailNotAuthorized
	default:
		return FailSystemFailure
	}
}

// Error is the typed validation error. Every failure returned by the
// validators is an *Error.
type Error struct {
	Kind          Kind
	TransactionID []byte
	Detail        string
	Err           error
	// CRMF is set when the failure happened while validating one of the
	// CRMF profiled bodies (ir, ip, cr, cp, kur, kup).
	CRMF bool
}

// NewError returns a new validation error.
func NewError(kind Kind, tid []byte, format string, args ...interface{}) *Error {
	return &Error{
		Kind:          kind,
		TransactionID: tid,
		Detail:        fmt.Sprintf(format, args...),
	}
}

// WrapError returns a new validation error caused by err.
func WrapError(kind Kind, tid []byte, err error, format string, args ...interface{}) *Error {
	e := NewError(kind, tid, format, args...)
	e.Err = err
	return e
}

// FailInfo returns the PKIFailureInfo bit to report to the peer.
func (e *Error) FailInfo() FailInfo {
	return e.Kind.FailInfo()
}

// TransactionIDString returns the hex encoded transaction id.
func (e *Error) TransactionIDString() string {
	return hex.EncodeToString(e.TransactionID)
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := "cmp"
	if e.CRMF {
		prefix = "cmp: crmf validation"
	}
	msg := fmt.Sprintf("%s: %s: %s", prefix, e.Kind.FailInfo(), e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Cause implements the errors.Causer interface and returns the original error.
func (e *Error) Cause() error {
	return e.Err
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// asCRMF marks err as a CRMF validation failure. Untyped errors become a
// system failure.
func asCRMF(err error, tid []byte) error {
	if err == nil {
		return nil
	}
	e, ok := AsError(err)
	if !ok {
		e = WrapError(KindSystemFailure, tid, err, "internal error")
	}
	return &Error{
		Kind:          e.Kind,
		TransactionID: e.TransactionID,
		Detail:        e.Detail,
		Err:           e.Err,
		CRMF:          true,
	}
}
