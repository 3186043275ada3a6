package cmp

// ValidateBody validates the body of msg according to its type. Every
// returned error is an *Error: panics and untyped errors raised by a body
// validator become a system failure, and failures of the CRMF profiled
// bodies are marked as CRMF validation errors.
func ValidateBody(msg *PKIMessage, cfg ConfigurationContext) (err error) {
	if msg == nil || msg.Body == nil {
		return NewError(KindBadDataFormat, msg.TransactionID(), "message body is missing")
	}
	tid := msg.TransactionID()
	t := msg.Body.Type

	defer func() {
		if r := recover(); r != nil {
			err = NewError(KindSystemFailure, tid, "internal error: %v", r)
		}
		if err == nil {
			return
		}
		if _, ok := AsError(err); !ok {
			err = WrapError(KindSystemFailure, tid, err, "internal error")
		}
		if t.IsCRMF() {
			err = asCRMF(err, tid)
		}
	}()

	return validateBody(msg, cfg)
}

func validateBody(msg *PKIMessage, cfg ConfigurationContext) error {
	switch t := msg.Body.Type; t {
	case BodyTypeIR, BodyTypeCR, BodyTypeKUR:
		return validateCertRequest(msg, cfg)
	case BodyTypeIP, BodyTypeCP, BodyTypeKUP:
		return validateCertResponse(msg, cfg)
	case BodyTypeRR:
		return validateRevocationRequest(msg)
	case BodyTypeRP:
		return validateRevocationResponse(msg)
	case BodyTypeCertConf:
		return validateCertConfirm(msg)
	case BodyTypePKIConf:
		return validatePKIConfirm(msg)
	case BodyTypeError:
		return validateErrorMessage(msg)
	case BodyTypeP10CR, BodyTypePollReq, BodyTypePollRep, BodyTypeGenM, BodyTypeGenP, BodyTypeNested:
		return NewError(KindBadDataFormat, msg.TransactionID(), "%s body is not implemented", t)
	default:
		return NewError(KindBadDataFormat, msg.TransactionID(), "%s body is not supported", t)
	}
}
