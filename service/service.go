// Package service builds the validation service. It sets up the HTTP
// servers, the middlewares and the HTTP handlers from a configuration.
package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/czertainly/cmp-validator/api"
	"github.com/czertainly/cmp-validator/config"
	"github.com/czertainly/cmp-validator/db"
	"github.com/czertainly/cmp-validator/internal/metrix"
	"github.com/czertainly/cmp-validator/logging"
	"github.com/czertainly/cmp-validator/middleware/requestid"
	"github.com/czertainly/cmp-validator/profile"
	"github.com/czertainly/cmp-validator/server"
)

// Service is the validation service.
type Service struct {
	config     *config.Config
	logger     *logging.Logger
	db         db.AuditDB
	srv        *server.Server
	metricsSrv *server.Server
}

// New creates and initializes the service with the given configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New("cmp-validator", cfg.Logger)
	if err != nil {
		return nil, err
	}

	profiles, err := profile.NewCollectionFromOptions(cfg.Profiles)
	if err != nil {
		return nil, err
	}

	auditDB, err := db.New(cfg.DB)
	if err != nil {
		return nil, err
	}

	opts := []api.Option{
		api.WithDB(auditDB),
		api.WithMaxMessageSize(cfg.MaxMessageSize),
	}

	var meter *metrix.Meter
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		meter = metrix.New()
		opts = append(opts, api.WithMeter(meter))
	}

	// Using chi as the main router
	mux := chi.NewRouter()
	api.New(profiles, opts...).Route(mux)

	s := &Service{
		config: cfg,
		logger: logger,
		db:     auditDB,
	}

	if meter != nil {
		if cfg.Metrics.Address == "" {
			mux.Handle("/metrics", meter)
		} else {
			s.metricsSrv = server.New("metrics", cfg.Metrics.Address, meter, logger.GetImpl())
		}
	}

	handler := logger.Middleware(mux)
	handler = requestid.New(logger.GetTraceHeader()).Middleware(handler)

	s.srv = server.New("api", cfg.Address, handler, logger.GetImpl())
	logger.WithField("profiles", profiles.Names()).Info("validation service initialized")
	return s, nil
}

// Handler returns the HTTP handler of the API server.
func (s *Service) Handler() http.Handler {
	return s.srv.Handler
}

// Run starts the API server and, if configured on its own address, the
// metrics server. It returns when any of them stops.
func (s *Service) Run() error {
	var g errgroup.Group
	g.Go(s.srv.ListenAndServe)
	if s.metricsSrv != nil {
		g.Go(func() error {
			err := s.metricsSrv.ListenAndServe()
			if !errors.Is(err, http.ErrServerClosed) {
				s.srv.Shutdown() //nolint:errcheck
			}
			return err
		})
	}
	return g.Wait()
}

// Stop shuts down the servers and the database.
func (s *Service) Stop() error {
	if err := s.db.Shutdown(); err != nil {
		s.logger.WithError(err).Error("error stopping audit database")
	}
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(); err != nil {
			s.logger.WithError(err).Error("error stopping metrics server")
		}
	}
	return errors.Wrap(s.srv.Shutdown(), "error stopping server")
}
