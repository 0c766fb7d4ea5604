package flow

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/BTreeMap/SymptomFlow/internal/models"
)

var errNotFound = errors.New("patient not found")

type fakeConfig struct {
	cfg models.FeatureConfig
	err error
}

func (f fakeConfig) Get() (models.FeatureConfig, error) { return f.cfg, f.err }

type fakePatients struct {
	patients map[string]models.PatientState
	err      error
	calls    []string
}

func (f *fakePatients) GetCurrentPatient(ctx context.Context, patientID string) (models.PatientState, error) {
	f.calls = append(f.calls, patientID)
	if f.err != nil {
		return models.PatientState{}, f.err
	}
	p, ok := f.patients[patientID]
	if !ok {
		return models.PatientState{}, errNotFound
	}
	return p, nil
}

type fakeConsent struct {
	document string
	err      error
}

func (f fakeConsent) SignedConsentDocument(ctx context.Context) (string, error) {
	return f.document, f.err
}

type mockStudy struct {
	mock.Mock
}

func (m *mockStudy) ShouldAskForValidationStudy(ctx context.Context, onThankYouScreen bool) (bool, error) {
	args := m.Called(ctx, onThankYouScreen)
	return args.Bool(0), args.Error(1)
}

// countingSink counts sink calls per operation.
type countingSink struct {
	RecordingSink
	replaces, gos, resets int
}

func (s *countingSink) Replace(screen models.ScreenName, params ScreenParams) {
	s.replaces++
	s.RecordingSink.Replace(screen, params)
}

func (s *countingSink) GoTo(screen models.ScreenName, params ScreenParams) {
	s.gos++
	s.RecordingSink.GoTo(screen, params)
}

func (s *countingSink) Reset(routes []Route) {
	s.resets++
	s.RecordingSink.Reset(routes)
}

func (s *countingSink) calls() int { return s.replaces + s.gos + s.resets }
