package flow

import "github.com/BTreeMap/SymptomFlow/internal/models"

// ScreenParams is the closed set of parameter shapes a destination screen receives.
type ScreenParams interface {
	screenParams()
}

// PatientIDParams identifies the patient by ID only.
type PatientIDParams struct {
	PatientID string `json:"patientId"`
}

// CurrentPatientParams carries a full patient snapshot.
type CurrentPatientParams struct {
	CurrentPatient models.PatientState `json:"currentPatient"`
}

// ConsentViewParams opens a consent screen, optionally read-only.
type ConsentViewParams struct {
	ViewOnly       bool                 `json:"viewOnly"`
	CurrentPatient *models.PatientState `json:"currentPatient,omitempty"`
}

func (PatientIDParams) screenParams()      {}
func (CurrentPatientParams) screenParams() {}
func (ConsentViewParams) screenParams()    {}
