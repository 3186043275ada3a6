package cmp

// validateCertRequest validates ir, cr and kur bodies. A single request
// with certReqId 0 is supported.
func validateCertRequest(msg *PKIMessage, cfg ConfigurationContext) error {
	tid := msg.TransactionID()
	req, err := singleCertReqMsg(msg)
	if err != nil {
		return err
	}

	cr := req.CertReq
	if cr == nil {
		return NewError(KindBadDataFormat, tid, "certReq is missing")
	}
	if err := checkCertReqID(tid, cr.CertReqID); err != nil {
		return err
	}
	tmpl := cr.CertTemplate
	if tmpl == nil {
		return NewError(KindBadCertTemplate, tid, "certTemplate is missing")
	}
	if tmpl.Version != nil && *tmpl.Version != 2 {
		return NewError(KindBadCertTemplate, tid, "certTemplate version must be absent or 2, got %d", *tmpl.Version)
	}
	if tmpl.Subject == nil {
		return NewError(KindBadCertTemplate, tid, "certTemplate subject is missing")
	}

	if cfg == nil {
		return NewError(KindConfigurationError, tid, "configuration is missing")
	}
	return cfg.ValidateOnCrmfRequest(msg)
}

// validateCertResponse validates ip, cp and kup bodies.
func validateCertResponse(msg *PKIMessage, cfg ConfigurationContext) error {
	tid := msg.TransactionID()
	rep, ok := msg.Body.Content.(*CertRepMessage)
	if !ok || rep == nil {
		return NewError(KindAddInfoNotAvailable, tid, "CertRepMessage is missing")
	}
	if len(rep.Response) == 0 || rep.Response[0] == nil {
		return NewError(KindBadDataFormat, tid, "CertRepMessage has no response")
	}

	resp := rep.Response[0]
	if err := checkCertReqID(tid, resp.CertReqID); err != nil {
		return err
	}
	if resp.CertifiedKeyPair != nil {
		if err := checkPositiveStatus(tid, resp.Status); err != nil {
			return err
		}
		if resp.CertifiedKeyPair.Certificate == nil {
			return NewError(KindBadDataFormat, tid, "certifiedKeyPair carries no certificate")
		}
	} else if err := checkNegativeStatus(tid, resp.Status); err != nil {
		return err
	}

	if cfg == nil {
		return NewError(KindConfigurationError, tid, "configuration is missing")
	}
	return cfg.ValidateOnCrmfResponse(msg)
}

// singleCertReqMsg returns the only request of an ir, cr or kur body.
func singleCertReqMsg(msg *PKIMessage) (*CertReqMsg, error) {
	tid := msg.TransactionID()
	reqs, ok := msg.Body.Content.(CertReqMessages)
	if !ok || reqs == nil {
		return nil, NewError(KindAddInfoNotAvailable, tid, "CertReqMessages is missing")
	}
	if err := checkOneElement(tid, len(reqs), "CertReqMessages"); err != nil {
		return nil, err
	}
	if reqs[0] == nil {
		return nil, NewError(KindBadDataFormat, tid, "CertReqMessages contains a null request")
	}
	return reqs[0], nil
}
