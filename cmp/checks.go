package cmp

import "math/big"

// MinNonceLength is the minimum length, in bytes, of transactionID and
// senderNonce (RFC 4210 section 5.1.1 recommends 128 bits).
const MinNonceLength = 16

func assertEqual[T comparable](tid []byte, got, want T, kind Kind, detail string) error {
	if got != want {
		return NewError(kind, tid, "%s: expected %v, got %v", detail, want, got)
	}
	return nil
}

func checkPresent(tid []byte, present bool, kind Kind, detail string) error {
	if !present {
		return NewError(kind, tid, "%s", detail)
	}
	return nil
}

// checkMinimalLength fails with addInfoNotAvailable when b is absent and
// with badRequest when it is shorter than minLength.
func checkMinimalLength(tid, b []byte, minLength int, field string) error {
	if b == nil {
		return NewError(KindAddInfoNotAvailable, tid, "%s is missing", field)
	}
	if len(b) < minLength {
		return NewError(KindBadRequest, tid, "%s is too short: %d bytes, at least %d expected", field, len(b), minLength)
	}
	return nil
}

// checkOneElement requires exactly one element in a collection.
func checkOneElement(tid []byte, n int, field string) error {
	if n != 1 {
		return NewError(KindBadDataFormat, tid, "%s must contain exactly one element, got %d", field, n)
	}
	return nil
}

// checkPositiveStatus requires an accepted or grantedWithMods status without
// failInfo.
func checkPositiveStatus(tid []byte, si *PKIStatusInfo) error {
	if si == nil {
		return NewError(KindBadDataFormat, tid, "PKIStatusInfo is missing")
	}
	if si.Status != StatusAccepted && si.Status != StatusGrantedWithMods {
		return NewError(KindBadDataFormat, tid, "positive status expected, got %d", si.Status)
	}
	if si.FailInfo != nil {
		return NewError(KindBadDataFormat, tid, "failInfo must be absent for status %d", si.Status)
	}
	return nil
}

// checkNegativeStatus requires a rejection status with failInfo.
func checkNegativeStatus(tid []byte, si *PKIStatusInfo) error {
	if si == nil {
		return NewError(KindBadDataFormat, tid, "PKIStatusInfo is missing")
	}
	if si.Status != StatusRejection {
		return NewError(KindBadDataFormat, tid, "rejection status expected, got %d", si.Status)
	}
	if si.FailInfo == nil {
		return NewError(KindBadDataFormat, tid, "failInfo must be present for a rejection")
	}
	return nil
}

// checkCertReqID requires the certReqId of the single request profile.
func checkCertReqID(tid []byte, id *big.Int) error {
	if id == nil {
		return NewError(KindBadDataFormat, tid, "certReqId is missing")
	}
	if !id.IsInt64() || id.Int64() != CertReqID {
		return NewError(KindBadDataFormat, tid, "certReqId: expected %d, got %s", CertReqID, id)
	}
	return nil
}
