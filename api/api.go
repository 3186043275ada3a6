// Package api implements the HTTP validation service. Messages are posted
// as DER and the outcome of the validation is returned as a JSON verdict.
package api

import (
	"crypto/x509"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.step.sm/crypto/x509util"

	"github.com/czertainly/cmp-validator/api/log"
	"github.com/czertainly/cmp-validator/api/read"
	"github.com/czertainly/cmp-validator/api/render"
	"github.com/czertainly/cmp-validator/cmp"
	"github.com/czertainly/cmp-validator/db"
	"github.com/czertainly/cmp-validator/errs"
	"github.com/czertainly/cmp-validator/internal/metrix"
	"github.com/czertainly/cmp-validator/middleware/requestid"
	"github.com/czertainly/cmp-validator/profile"
)

// DefaultMaxMessageSize is the default limit of the request body.
const DefaultMaxMessageSize int64 = 1 << 20

// Router defines a common router interface.
type Router interface {
	// MethodFunc adds routes for `pattern` that matches
	// the `method` HTTP method.
	MethodFunc(method, pattern string, h http.HandlerFunc)
}

// RouterHandler is the interface that a HTTP handler that manages multiple
// endpoints will implement.
type RouterHandler interface {
	Route(r Router)
}

// HealthResponse is the response object that returns the health of the server.
type HealthResponse struct {
	Status string `json:"status"`
}

// ProfilesResponse is the response object that lists the configured profiles.
type ProfilesResponse struct {
	Profiles []string `json:"profiles"`
}

// VerdictResponse is the outcome of a validation.
type VerdictResponse struct {
	ID            string `json:"id,omitempty"`
	Valid         bool   `json:"valid"`
	FailInfo      *int   `json:"failInfo,omitempty"`
	FailInfoName  string `json:"failInfoName,omitempty"`
	Kind          string `json:"kind,omitempty"`
	CRMF          bool   `json:"crmf,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	BodyType      string `json:"bodyType,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// ToLog implements the EnableLogger interface.
func (v *VerdictResponse) ToLog() (any, error) {
	if v.Valid {
		return "valid", nil
	}
	return v.FailInfoName, nil
}

// Option configures the handler.
type Option func(h *handler)

// WithDB sets the store where the verdicts are recorded.
func WithDB(d db.AuditDB) Option {
	return func(h *handler) {
		h.db = d
	}
}

// WithMeter sets the meter updated on every validation.
func WithMeter(m *metrix.Meter) Option {
	return func(h *handler) {
		h.meter = m
	}
}

// WithMaxMessageSize limits the size of the posted messages.
func WithMaxMessageSize(n int64) Option {
	return func(h *handler) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}

type handler struct {
	profiles       *profile.Collection
	db             db.AuditDB
	meter          *metrix.Meter
	maxMessageSize int64
	now            func() time.Time
}

// New creates a new RouterHandler with the validation endpoints.
func New(profiles *profile.Collection, opts ...Option) RouterHandler {
	h := &handler{
		profiles:       profiles,
		db:             new(db.NoopDB),
		maxMessageSize: DefaultMaxMessageSize,
		now:            time.Now,
	}
	for _, fn := range opts {
		fn(h)
	}
	return h
}

func (h *handler) Route(r Router) {
	r.MethodFunc("GET", "/health", h.Health)
	r.MethodFunc("GET", "/profiles", h.Profiles)
	r.MethodFunc("POST", "/profiles/{name}/validate", h.Validate)
	r.MethodFunc("GET", "/verdicts/{id}", h.Verdict)
}

// Health is an HTTP handler that returns the status of the server.
func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, HealthResponse{Status: "ok"})
}

// Profiles is an HTTP handler that returns the names of the profiles.
func (h *handler) Profiles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, &ProfilesResponse{Profiles: h.profiles.Names()})
}

// Validate is an HTTP handler that validates the posted DER encoded
// PKIMessage with the profile in the URL. A rejected message is not an HTTP
// error, the verdict carries the failure.
func (h *handler) Validate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := h.profiles.Load(name)
	if !ok {
		render.Error(w, errs.NotFound("profile %s not found", name))
		return
	}

	stage := cmp.Stage(r.URL.Query().Get("stage"))
	switch stage {
	case "", cmp.StageAll, cmp.StageHeader, cmp.StageProtection, cmp.StageBody, cmp.StagePOP:
	default:
		render.Error(w, errs.BadRequest("unknown validation stage '%s'", stage))
		return
	}

	der, err := read.Body(r.Body, h.maxMessageSize)
	if err != nil {
		render.Error(w, err)
		return
	}

	cfg := &auditContext{Profile: p}
	msg, err := cmp.ParseMessage(der)
	if err != nil {
		if h.meter != nil {
			h.meter.ParseFailed(p.Name())
		}
	} else {
		err = cmp.ValidateStage(stage, msg, cfg)
		if h.meter != nil {
			h.meter.Validated(p.Name(), msg, err)
		}
	}

	id, _ := requestid.FromContext(r.Context())
	verdict := NewVerdict(id, msg, err)

	log.Fields(w, map[string]any{
		"profile":        p.Name(),
		"transaction-id": verdict.TransactionID,
		"body-type":      verdict.BodyType,
		"fail-info":      verdict.FailInfoName,
	})

	if id != "" {
		if err := h.db.StoreVerdict(cfg.record(id, stage, verdict, h.now())); err != nil {
			log.Error(w, errors.Wrap(err, "error storing verdict"))
		}
	}

	render.JSON(w, verdict)
}

// Verdict is an HTTP handler that returns a recorded verdict by the id of
// the request that produced it.
func (h *handler) Verdict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := h.db.GetVerdict(id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		render.Error(w, errs.NotFound("verdict %s not found", id))
	case errors.Is(err, db.ErrNotImplemented):
		render.Error(w, errs.NotFoundErr(err, errs.WithMessage("The verdict store is not configured.")))
	case err != nil:
		render.Error(w, errs.InternalServerErr(err))
	default:
		render.JSON(w, v)
	}
}

// NewVerdict returns the verdict for msg given the error returned by its
// validation. msg may be nil when the message could not be decoded.
func NewVerdict(id string, msg *cmp.PKIMessage, err error) *VerdictResponse {
	v := &VerdictResponse{
		ID:    id,
		Valid: err == nil,
	}
	if msg != nil {
		v.TransactionID = hex.EncodeToString(msg.TransactionID())
		if bt := msg.BodyType(); bt >= 0 {
			v.BodyType = bt.String()
		}
	}
	if err == nil {
		return v
	}

	e, ok := cmp.AsError(err)
	if !ok {
		e = cmp.WrapError(cmp.KindSystemFailure, msg.TransactionID(), err, "internal error")
	}
	fi := e.FailInfo()
	code := int(fi)
	v.FailInfo = &code
	v.FailInfoName = fi.String()
	v.Kind = e.Kind.String()
	v.CRMF = e.CRMF
	v.Detail = e.Detail
	if v.TransactionID == "" {
		v.TransactionID = e.TransactionIDString()
	}
	return v
}

// auditContext is the configuration used for a single request. It records
// the certificate that verified a signature protected message.
type auditContext struct {
	*profile.Profile
	signer *x509.Certificate
}

// OnSigner implements cmp.SignerObserver.
func (a *auditContext) OnSigner(_ *cmp.PKIMessage, crt *x509.Certificate) {
	a.signer = crt
}

func (a *auditContext) record(id string, stage cmp.Stage, v *VerdictResponse, now time.Time) *db.Verdict {
	if stage == "" {
		stage = cmp.StageAll
	}
	rec := &db.Verdict{
		ID:            id,
		Profile:       a.Name(),
		Stage:         string(stage),
		TransactionID: v.TransactionID,
		BodyType:      v.BodyType,
		Valid:         v.Valid,
		Kind:          v.Kind,
		FailInfo:      v.FailInfoName,
		CRMF:          v.CRMF,
		Detail:        v.Detail,
		ValidatedAt:   now.UTC(),
	}
	if a.signer != nil {
		rec.SignerSubject = a.signer.Subject.String()
		rec.SignerFingerprint = x509util.Fingerprint(a.signer)
	}
	return rec
}
