package cmp

// Validate runs the mandatory stages in order: header, protection and
// body. The first failure aborts the pipeline. Proof-of-possession is
// validated separately with ValidatePOP.
func Validate(msg *PKIMessage, cfg ConfigurationContext) error {
	if err := ValidateHeader(msg, cfg); err != nil {
		return err
	}
	if err := ValidateProtection(msg, cfg); err != nil {
		return err
	}
	return ValidateBody(msg, cfg)
}

// Stage is one step of the validation pipeline.
type Stage string

// Validation stages.
const (
	StageHeader     Stage = "header"
	StageProtection Stage = "protection"
	StageBody       Stage = "body"
	StagePOP        Stage = "pop"
	// StageAll runs the mandatory stages and, for ir, cr and kur messages,
	// the proof-of-possession.
	StageAll Stage = "all"
)

// ValidateStage runs a single stage, or every applicable stage for
// StageAll.
func ValidateStage(stage Stage, msg *PKIMessage, cfg ConfigurationContext) error {
	switch stage {
	case StageHeader:
		return ValidateHeader(msg, cfg)
	case StageProtection:
		return ValidateProtection(msg, cfg)
	case StageBody:
		return ValidateBody(msg, cfg)
	case StagePOP:
		return ValidatePOP(msg, cfg)
	case StageAll, "":
		if err := Validate(msg, cfg); err != nil {
			return err
		}
		switch msg.BodyType() {
		case BodyTypeIR, BodyTypeCR, BodyTypeKUR:
			return ValidatePOP(msg, cfg)
		}
		return nil
	default:
		return NewError(KindBadRequest, msg.TransactionID(), "unknown validation stage '%s'", stage)
	}
}
