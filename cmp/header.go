package cmp

// ValidateHeader checks the structural invariants of the message header. The
// first failing check is returned.
func ValidateHeader(msg *PKIMessage, _ ConfigurationContext) error {
	if msg == nil || msg.Header == nil {
		return NewError(KindBadDataFormat, nil, "message header is missing")
	}
	h := msg.Header
	tid := h.TransactionID

	if err := assertEqual(tid, h.PVNO, PVNO2000, KindUnsupportedVersion, "wrong protocol version"); err != nil {
		return err
	}
	if err := checkPresent(tid, h.Sender != nil, KindBadDataFormat, "sender is missing"); err != nil {
		return err
	}
	if err := checkPresent(tid, h.Recipient != nil, KindBadDataFormat, "recipient is missing"); err != nil {
		return err
	}
	if err := checkMinimalLength(tid, h.TransactionID, MinNonceLength, "transactionID"); err != nil {
		return err
	}
	if err := checkMinimalLength(tid, h.SenderNonce, MinNonceLength, "senderNonce"); err != nil {
		return err
	}
	// protection and protectionAlg are co-mandatory
	if msg.HasProtection() {
		return checkPresent(tid, h.ProtectionAlg != nil, KindBadDataFormat, "protectionAlg is missing for a protected message")
	}
	return nil
}
