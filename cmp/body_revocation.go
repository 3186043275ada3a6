package cmp

import (
	"encoding/asn1"
)

var oidExtensionReasonCode = asn1.ObjectIdentifier{2, 5, 29, 21}

// Bounds of the CRLReason enumeration (RFC 5280 section 5.3.1).
const (
	minReasonCode = 0
	maxReasonCode = 10
)

// validateRevocationRequest validates rr bodies: a single RevDetails with
// serialNumber, issuer and a reasonCode entry extension.
func validateRevocationRequest(msg *PKIMessage) error {
	tid := msg.TransactionID()
	reqs, ok := msg.Body.Content.(RevReqContent)
	if !ok || reqs == nil {
		return NewError(KindAddInfoNotAvailable, tid, "RevReqContent is missing")
	}
	if err := checkOneElement(tid, len(reqs), "RevReqContent"); err != nil {
		return err
	}
	details := reqs[0]
	if details == nil || details.CertDetails == nil {
		return NewError(KindBadDataFormat, tid, "revDetails certDetails is missing")
	}
	if details.CertDetails.SerialNumber == nil {
		return NewError(KindAddInfoNotAvailable, tid, "certDetails serialNumber is missing")
	}
	if details.CertDetails.Issuer == nil {
		return NewError(KindAddInfoNotAvailable, tid, "certDetails issuer is missing")
	}
	if details.CRLEntryDetails == nil {
		return NewError(KindAddInfoNotAvailable, tid, "crlEntryDetails is missing")
	}

	for _, ext := range details.CRLEntryDetails {
		if !ext.Id.Equal(oidExtensionReasonCode) {
			continue
		}
		var reason asn1.Enumerated
		if err := unmarshalExact(ext.Value, &reason, ""); err != nil {
			return WrapError(KindBadDataFormat, tid, err, "invalid reasonCode extension")
		}
		if reason < minReasonCode || reason > maxReasonCode {
			return NewError(KindBadDataFormat, tid, "reasonCode %d out of range [%d, %d]", reason, minReasonCode, maxReasonCode)
		}
		return nil
	}
	return NewError(KindAddInfoNotAvailable, tid, "crlEntryDetails has no reasonCode")
}

// validateRevocationResponse validates rp bodies: a single status that is
// either accepted without failInfo or a rejection with failInfo.
func validateRevocationResponse(msg *PKIMessage) error {
	tid := msg.TransactionID()
	rep, ok := msg.Body.Content.(*RevRepContent)
	if !ok || rep == nil {
		return NewError(KindAddInfoNotAvailable, tid, "RevRepContent is missing")
	}
	if err := checkOneElement(tid, len(rep.Status), "RevRepContent status"); err != nil {
		return err
	}
	si := rep.Status[0]
	if si != nil && si.Status == StatusAccepted {
		return checkPositiveStatus(tid, si)
	}
	return checkNegativeStatus(tid, si)
}
