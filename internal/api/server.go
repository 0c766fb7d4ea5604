// Package api exposes the flow orchestrator and its supporting services over HTTP,
// so thin UI shells can ask which screen comes next.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/BTreeMap/SymptomFlow/internal/config"
	"github.com/BTreeMap/SymptomFlow/internal/flow"
	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultMaxRequests     = 20 // per IP per second
	DefaultShutdownTimeout = 10 * time.Second
)

// PatientLister lists the profiles of the account.
type PatientLister interface {
	ListPatients(ctx context.Context) ([]models.PatientInfo, error)
}

// StartupInfoSource exposes the cached startup info.
type StartupInfoSource interface {
	StartupInfo() models.StartupInfo
	GetWelcomeContent() models.CalloutBoxContent
}

// TokenRegistrar registers push tokens.
type TokenRegistrar interface {
	RegisterToken(ctx context.Context, token, platform string) (bool, error)
}

// ConsentRecorder records the consent document the user signed.
type ConsentRecorder interface {
	SetConsentSigned(ctx context.Context, consent models.Consent) error
}

// StudyResponder records the user's answer to the validation-study invitation.
type StudyResponder interface {
	SetValidationStudyResponse(ctx context.Context, accepted, allowFutureDataUse, allowContact bool) error
}

// Dependencies holds what the Server serves. Orchestrator and Bundle are required.
type Dependencies struct {
	Orchestrator   *flow.Orchestrator
	Bundle         *config.Bundle
	Patients       PatientLister
	Content        StartupInfoSource
	Push           TokenRegistrar
	Consent        ConsentRecorder
	Study          StudyResponder
	AllowedOrigins []string
	MaxRequests    int
}

// Server is the HTTP surface.
type Server struct {
	orch     *flow.Orchestrator
	bundle   *config.Bundle
	patients PatientLister
	content  StartupInfoSource
	push     TokenRegistrar
	consent  ConsentRecorder
	study    StudyResponder
	validate *validator.Validate
	router   chi.Router
}

// NewServer builds the router.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if deps.Bundle == nil {
		return nil, fmt.Errorf("feature bundle is required")
	}
	if deps.MaxRequests <= 0 {
		deps.MaxRequests = DefaultMaxRequests
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		orch:     deps.Orchestrator,
		bundle:   deps.Bundle,
		patients: deps.Patients,
		content:  deps.Content,
		push:     deps.Push,
		consent:  deps.Consent,
		study:    deps.Study,
		validate: validator.New(),
	}
	s.router = s.routes(deps)
	return s, nil
}

func (s *Server) routes(deps Dependencies) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(deps.MaxRequests, time.Second))

	r.Get("/healthz", s.healthHandler)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/config", s.configHandler)
		r.Post("/flow/{event}", s.flowHandler)
		r.Get("/patients", s.patientsHandler)
		r.Get("/content/startup", s.startupHandler)
		r.Post("/push/token", s.pushTokenHandler)
		r.Post("/user/consent", s.consentHandler)
		r.Post("/study/response", s.studyResponseHandler)
	})
	return r
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("API server shutdown failed", "error", err)
		return err
	}
	return nil
}
