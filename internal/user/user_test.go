package user

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/SymptomFlow/internal/apiclient"
	"github.com/BTreeMap/SymptomFlow/internal/config"
	"github.com/BTreeMap/SymptomFlow/internal/models"
	"github.com/BTreeMap/SymptomFlow/internal/store"
)

type stubPatients struct {
	state models.PatientState
	err   error
}

func (s stubPatients) GetCurrentPatient(ctx context.Context, patientID string) (models.PatientState, error) {
	if s.err != nil {
		return models.PatientState{}, s.err
	}
	st := s.state
	st.PatientID = patientID
	return st, nil
}

func newBackend(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := apiclient.New(apiclient.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestCountry_PersistsAndDrivesConfig(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()
	svc := NewService(config.Default(), kv, nil, stubPatients{})

	cfg, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, models.CountryGB, cfg.Country)

	require.NoError(t, svc.SetUserCountry(ctx, models.CountryUS))
	cfg, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, models.CountryUS, cfg.Country)
	assert.True(t, cfg.EnableCohorts)

	assert.Error(t, svc.SetUserCountry(ctx, "FR"))

	restored := NewService(config.Default(), kv, nil, stubPatients{})
	c, stored, err := restored.LoadCountry(ctx)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, models.CountryUS, c)

	fresh := NewService(config.Default(), store.NewInMemoryStore(), nil, stubPatients{})
	c, stored, err = fresh.LoadCountry(ctx)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Equal(t, models.CountryGB, c)
}

func TestConsent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(config.Default(), store.NewInMemoryStore(), nil, stubPatients{})

	doc, err := svc.SignedConsentDocument(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)

	assert.Error(t, svc.SetConsentSigned(ctx, models.Consent{}))
	require.NoError(t, svc.SetConsentSigned(ctx, models.Consent{Document: models.ConsentDocumentUSNurses, DocumentVersion: "1.0"}))

	doc, err = svc.SignedConsentDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ConsentDocumentUSNurses, doc)

	c, found, err := svc.ConsentSigned(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1.0", c.DocumentVersion)
}

func TestShouldAskForValidationStudy(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/study_consent/status/", r.URL.Path)
		if r.URL.Query().Get("home_screen") == "true" {
			_, _ = io.WriteString(w, `{"should_ask_uk_validation_study":false}`)
			return
		}
		_, _ = io.WriteString(w, `{"should_ask_uk_validation_study":true}`)
	})
	svc := NewService(config.Default(), store.NewInMemoryStore(), backend, stubPatients{})

	ask, err := svc.ShouldAskForValidationStudy(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, ask)

	ask, err = svc.ShouldAskForValidationStudy(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, ask)
}

func TestShouldAskForValidationStudy_BackendError(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	svc := NewService(config.Default(), store.NewInMemoryStore(), backend, stubPatients{})

	_, err := svc.ShouldAskForValidationStudy(context.Background(), false)
	var apiErr *apiclient.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestSetValidationStudyResponse(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/study_consent/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"study":"UK Validation Study","status":"signed","allow_future_data_use":true,"allow_contact_by_zoe":false}`, string(body))
		w.WriteHeader(http.StatusCreated)
	})
	svc := NewService(config.Default(), store.NewInMemoryStore(), backend, stubPatients{})

	require.NoError(t, svc.SetValidationStudyResponse(context.Background(), true, true, false))
}

func TestGetCurrentPatient_AttachesConsent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(config.Default(), store.NewInMemoryStore(), nil, stubPatients{state: models.PatientState{IsPrimary: true}})
	require.NoError(t, svc.SetConsentSigned(ctx, models.Consent{Document: models.ConsentDocumentUK}))

	st, err := svc.GetCurrentPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", st.PatientID)
	assert.Equal(t, models.ConsentDocumentUK, st.ConsentDocument)

	failing := NewService(config.Default(), store.NewInMemoryStore(), nil, stubPatients{err: errors.New("down")})
	_, err = failing.GetCurrentPatient(ctx, "p1")
	assert.EqualError(t, err, "down")
}
