package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/BTreeMap/SymptomFlow/internal/config"
	"github.com/BTreeMap/SymptomFlow/internal/flow"
	"github.com/BTreeMap/SymptomFlow/internal/models"
	"github.com/BTreeMap/SymptomFlow/internal/patient"
)

// pushTokenRequest is the body of POST /v1/push/token.
type pushTokenRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

// consentRequest is the body of POST /v1/user/consent.
type consentRequest struct {
	Document             string `json:"document" validate:"required,oneof='US Nurses' US UK SE"`
	DocumentVersion      string `json:"documentVersion" validate:"omitempty,max=64"`
	PrivacyPolicyVersion string `json:"privacyPolicyVersion" validate:"omitempty,max=64"`
}

// studyResponseRequest is the body of POST /v1/study/response.
type studyResponseRequest struct {
	Accepted           *bool `json:"accepted" validate:"required"`
	AllowFutureDataUse bool  `json:"allowFutureDataUse"`
	AllowContact       bool  `json:"allowContact"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

// countryParam reads the optional ?country= query parameter.
func countryParam(r *http.Request) (models.CountryCode, bool, error) {
	raw := r.URL.Query().Get("country")
	if raw == "" {
		return "", false, nil
	}
	c, err := models.ParseCountry(raw)
	if err != nil {
		return "", false, err
	}
	return c, true, nil
}

func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	country, _, err := countryParam(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	cfg, err := s.bundle.For(country)
	if err != nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(cfg))
}

func (s *Server) flowHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	name := flow.EventName(chi.URLParam(r, "event"))
	slog.Debug("Server.flowHandler: processing flow event", "event", name)

	var params flow.EventParams
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			slog.Warn("Server.flowHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
	}
	if err := s.validate.Struct(params); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	// One sink per request; callers on different requests never share navigation state.
	sink := flow.NewRecordingSink()
	orch := s.orch.WithSink(sink)
	country, ok, err := countryParam(r)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	if ok {
		provider, err := config.NewProvider(s.bundle, country)
		if err != nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
			return
		}
		orch = orch.WithConfig(provider)
	}

	d, err := orch.AdvanceNamed(r.Context(), name, params)
	if err != nil {
		status := flowErrorStatus(err)
		slog.Warn("Server.flowHandler: flow event failed", "event", name, "status", status, "error", err)
		writeJSONResponse(w, status, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(d))
}

// flowErrorStatus maps the flow error taxonomy to an HTTP status.
func flowErrorStatus(err error) int {
	switch {
	case errors.Is(err, flow.ErrUnknownFlowEvent):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, patient.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrUpstreamState):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) patientsHandler(w http.ResponseWriter, r *http.Request) {
	if s.patients == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Patient service not configured"))
		return
	}
	list, err := s.patients.ListPatients(r.Context())
	if err != nil {
		slog.Error("Server.patientsHandler: failed to list patients", "error", err)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to list patients"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(list))
}

func (s *Server) startupHandler(w http.ResponseWriter, r *http.Request) {
	if s.content == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Content service not configured"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]any{
		"startupInfo": s.content.StartupInfo(),
		"welcome":     s.content.GetWelcomeContent(),
	}))
}

func (s *Server) pushTokenHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	if s.push == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Push service not configured"))
		return
	}
	var req pushTokenRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}
	sent, err := s.push.RegisterToken(r.Context(), req.Token, req.Platform)
	if err != nil {
		slog.Error("Server.pushTokenHandler: failed to register token", "error", err)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to register push token"))
		return
	}
	msg := "Push token up to date"
	if sent {
		msg = "Push token registered"
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(msg, map[string]bool{"sent": sent}))
}

func (s *Server) consentHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	if s.consent == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Consent service not configured"))
		return
	}
	var req consentRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}
	consent := models.Consent{
		Document:             req.Document,
		DocumentVersion:      req.DocumentVersion,
		PrivacyPolicyVersion: req.PrivacyPolicyVersion,
	}
	if err := s.consent.SetConsentSigned(r.Context(), consent); err != nil {
		slog.Error("Server.consentHandler: failed to record consent", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to record consent"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Consent recorded", consent))
}

func (s *Server) studyResponseHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	if s.study == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Study service not configured"))
		return
	}
	var req studyResponseRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}
	if err := s.study.SetValidationStudyResponse(r.Context(), *req.Accepted, req.AllowFutureDataUse, req.AllowContact); err != nil {
		slog.Error("Server.studyResponseHandler: failed to record study response", "error", err)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to record study response"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Study response recorded", map[string]bool{"accepted": *req.Accepted}))
}
