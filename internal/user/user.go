// Package user holds the per-user settings that shape screen flows: the user's country,
// the consent document they signed, and their validation-study invitation status.
//
// Service implements the config, consent, study and patient providers of the flow package.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/BTreeMap/SymptomFlow/internal/config"
	"github.com/BTreeMap/SymptomFlow/internal/flow"
	"github.com/BTreeMap/SymptomFlow/internal/models"
	"github.com/BTreeMap/SymptomFlow/internal/store"
)

// Local storage keys.
const (
	KeyUserCountry   = "USER_COUNTRY"
	KeyConsentSigned = "CONSENT_SIGNED"
)

// Validation-study response statuses.
const (
	StudyStatusSigned   = "signed"
	StudyStatusDeclined = "declined"
)

// Backend is the subset of apiclient.Client used for study calls.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, payload, out any) error
}

// Service is the user's settings.
type Service struct {
	bundle   *config.Bundle
	storage  store.Store
	backend  Backend
	patients flow.PatientStore

	mu      sync.RWMutex
	country models.CountryCode
}

var (
	_ flow.ConfigProvider  = (*Service)(nil)
	_ flow.ConsentProvider = (*Service)(nil)
	_ flow.StudyProvider   = (*Service)(nil)
	_ flow.PatientStore    = (*Service)(nil)
)

// NewService creates a Service. The country starts as the bundle default until
// LoadCountry or SetUserCountry is called.
func NewService(bundle *config.Bundle, storage store.Store, backend Backend, patients flow.PatientStore) *Service {
	return &Service{
		bundle:   bundle,
		storage:  storage,
		backend:  backend,
		patients: patients,
		country:  bundle.DefaultCountry,
	}
}

// LoadCountry restores the country saved by SetUserCountry and reports whether one
// was saved. Without a saved country the current one is returned unchanged.
func (s *Service) LoadCountry(ctx context.Context) (models.CountryCode, bool, error) {
	var c models.CountryCode
	found, err := s.storage.GetObject(ctx, KeyUserCountry, &c)
	if err != nil {
		return "", false, fmt.Errorf("load user country: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := found && models.IsValidCountry(c)
	if stored {
		s.country = c
	}
	return s.country, stored, nil
}

// SetUserCountry persists the user's country.
func (s *Service) SetUserCountry(ctx context.Context, c models.CountryCode) error {
	if !models.IsValidCountry(c) {
		return fmt.Errorf("unsupported country %q", c)
	}
	if err := s.storage.SetObject(ctx, KeyUserCountry, c); err != nil {
		return fmt.Errorf("save user country: %w", err)
	}
	s.mu.Lock()
	s.country = c
	s.mu.Unlock()
	slog.Debug("UserService SetUserCountry succeeded", "country", c)
	return nil
}

// Country returns the current user country.
func (s *Service) Country() models.CountryCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.country
}

// Get returns the feature config of the user's country.
func (s *Service) Get() (models.FeatureConfig, error) {
	return s.bundle.For(s.Country())
}

// SetConsentSigned records the signed consent document.
func (s *Service) SetConsentSigned(ctx context.Context, consent models.Consent) error {
	if consent.Document == "" {
		return fmt.Errorf("consent document is required")
	}
	if err := s.storage.SetObject(ctx, KeyConsentSigned, consent); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	slog.Info("UserService SetConsentSigned succeeded", "document", consent.Document)
	return nil
}

// ConsentSigned returns the recorded consent, if any.
func (s *Service) ConsentSigned(ctx context.Context) (models.Consent, bool, error) {
	var c models.Consent
	found, err := s.storage.GetObject(ctx, KeyConsentSigned, &c)
	if err != nil {
		return models.Consent{}, false, fmt.Errorf("load consent: %w", err)
	}
	return c, found, nil
}

// SignedConsentDocument returns the signed document name, or "" when none was signed.
func (s *Service) SignedConsentDocument(ctx context.Context) (string, error) {
	c, _, err := s.ConsentSigned(ctx)
	if err != nil {
		return "", err
	}
	return c.Document, nil
}

// ShouldAskForValidationStudy asks the backend whether to invite the user.
func (s *Service) ShouldAskForValidationStudy(ctx context.Context, onThankYouScreen bool) (bool, error) {
	var status models.ValidationStudyStatus
	path := "/study_consent/status/?home_screen=" + strconv.FormatBool(onThankYouScreen)
	if err := s.backend.Get(ctx, path, &status); err != nil {
		slog.Error("UserService ShouldAskForValidationStudy failed", "error", err)
		return false, fmt.Errorf("validation study status: %w", err)
	}
	return status.ShouldAskUKValidationStudy, nil
}

// SetValidationStudyResponse records the user's answer to the invitation.
func (s *Service) SetValidationStudyResponse(ctx context.Context, accepted, allowFutureDataUse, allowContact bool) error {
	status := StudyStatusDeclined
	if accepted {
		status = StudyStatusSigned
	}
	resp := models.ValidationStudyResponse{
		Study:              models.ValidationStudyName,
		Status:             status,
		AllowFutureDataUse: allowFutureDataUse,
		AllowContactByZoe:  allowContact,
	}
	if err := s.backend.Post(ctx, "/study_consent/", resp, nil); err != nil {
		slog.Error("UserService SetValidationStudyResponse failed", "error", err)
		return fmt.Errorf("validation study response: %w", err)
	}
	slog.Info("UserService SetValidationStudyResponse succeeded", "status", status)
	return nil
}

// GetCurrentPatient returns the patient snapshot with the signed consent attached.
func (s *Service) GetCurrentPatient(ctx context.Context, patientID string) (models.PatientState, error) {
	st, err := s.patients.GetCurrentPatient(ctx, patientID)
	if err != nil {
		return models.PatientState{}, err
	}
	doc, err := s.SignedConsentDocument(ctx)
	if err != nil {
		return models.PatientState{}, err
	}
	st.ConsentDocument = doc
	return st, nil
}
