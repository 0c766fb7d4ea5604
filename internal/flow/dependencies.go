// Package flow decides which screen the app shows next after a screen completes.
//
// The Orchestrator maps a completed-screen Event to exactly one ScreenDirective, using the
// feature configuration and the patient state supplied by its collaborators, and hands that
// directive to a NavigationSink. It keeps no state between calls. Callers must serialize
// Advance calls that share a sink.
package flow

import (
	"context"

	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// ConfigProvider supplies the feature flags of the acting country.
type ConfigProvider interface {
	Get() (models.FeatureConfig, error)
}

// PatientStore supplies patient snapshots.
type PatientStore interface {
	GetCurrentPatient(ctx context.Context, patientID string) (models.PatientState, error)
}

// ConsentProvider reports which consent document the user signed.
type ConsentProvider interface {
	SignedConsentDocument(ctx context.Context) (string, error)
}

// StudyProvider reports whether the user should be invited to the validation study.
type StudyProvider interface {
	ShouldAskForValidationStudy(ctx context.Context, onThankYouScreen bool) (bool, error)
}

// Dependencies holds the collaborators injected into an Orchestrator.
// Consent and Study are optional: without Consent no document counts as signed,
// without Study nobody is invited.
type Dependencies struct {
	Config   ConfigProvider
	Patients PatientStore
	Consent  ConsentProvider
	Study    StudyProvider
	Sink     NavigationSink
}
