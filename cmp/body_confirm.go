package cmp

// validateCertConfirm requires a single CertStatus carrying a certHash.
// The hash itself is checked by the CA.
func validateCertConfirm(msg *PKIMessage) error {
	tid := msg.TransactionID()
	statuses, ok := msg.Body.Content.(CertConfirmContent)
	if !ok {
		return NewError(KindBadDataFormat, tid, "CertConfirmContent is missing")
	}
	if err := checkOneElement(tid, len(statuses), "CertConfirmContent"); err != nil {
		return err
	}
	if statuses[0] == nil || statuses[0].CertHash == nil {
		return NewError(KindBadDataFormat, tid, "certHash is missing")
	}
	return nil
}

func validatePKIConfirm(msg *PKIMessage) error {
	switch msg.Body.Content.(type) {
	case nil, PKIConfirmContent:
		return nil
	default:
		return NewError(KindBadDataFormat, msg.TransactionID(), "pkiconf body expected")
	}
}

// validateErrorMessage requires the PKIStatusInfo of an error body.
func validateErrorMessage(msg *PKIMessage) error {
	content, ok := msg.Body.Content.(*ErrorMsgContent)
	if !ok || content == nil || content.PKIStatusInfo == nil {
		return NewError(KindBadDataFormat, msg.TransactionID(), "error body has no PKIStatusInfo")
	}
	return nil
}
