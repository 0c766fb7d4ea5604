package flow

import (
	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// EventName is the name of the screen whose interaction just completed.
type EventName string

// Known flow events.
const (
	EventRegister               EventName = "Register"
	EventOptionalInfo           EventName = "OptionalInfo"
	EventWelcomeRepeat          EventName = "WelcomeRepeat"
	EventSelectProfile          EventName = "SelectProfile"
	EventValidationStudyIntro   EventName = "ValidationStudyIntro"
	EventValidationStudyConsent EventName = "ValidationStudyConsent"
)

// KnownEvents lists every event the orchestrator can resolve.
func KnownEvents() []EventName {
	return []EventName{
		EventRegister,
		EventOptionalInfo,
		EventWelcomeRepeat,
		EventSelectProfile,
		EventValidationStudyIntro,
		EventValidationStudyConsent,
	}
}

// Event is a completed-screen notification. The set of implementations is closed;
// each carries exactly the parameters its resolver needs.
type Event interface {
	Name() EventName
	event()
}

// RegisterCompleted is sent when account registration finishes.
type RegisterCompleted struct {
	PatientID string
}

// OptionalInfoCompleted is sent when the personal-information screen is done.
type OptionalInfoCompleted struct {
	CurrentPatient *models.PatientState
}

// WelcomeRepeatCompleted starts a new report from the returning-user welcome screen.
type WelcomeRepeatCompleted struct {
	PatientID string
}

// ProfileSelected is sent when a profile is picked on the profile selection screen.
// CurrentPatient wins over PatientID when both are set.
type ProfileSelected struct {
	MainProfile    bool
	PatientID      string
	CurrentPatient *models.PatientState
}

// ValidationStudyIntroCompleted is sent when the user moves on from the study introduction.
type ValidationStudyIntroCompleted struct {
	CurrentPatient *models.PatientState
	ViewOnly       bool
}

// ValidationStudyCompleted is sent after the validation-study consent has been answered.
type ValidationStudyCompleted struct {
	CurrentPatient *models.PatientState
}

func (RegisterCompleted) Name() EventName             { return EventRegister }
func (OptionalInfoCompleted) Name() EventName         { return EventOptionalInfo }
func (WelcomeRepeatCompleted) Name() EventName        { return EventWelcomeRepeat }
func (ProfileSelected) Name() EventName               { return EventSelectProfile }
func (ValidationStudyIntroCompleted) Name() EventName { return EventValidationStudyIntro }
func (ValidationStudyCompleted) Name() EventName      { return EventValidationStudyConsent }

func (RegisterCompleted) event()             {}
func (OptionalInfoCompleted) event()         {}
func (WelcomeRepeatCompleted) event()        {}
func (ProfileSelected) event()               {}
func (ValidationStudyIntroCompleted) event() {}
func (ValidationStudyCompleted) event()      {}

// EventParams is the parameter bag accepted at the string-named boundary.
type EventParams struct {
	PatientID      string               `json:"patientId,omitempty" validate:"omitempty,max=128,printascii"`
	CurrentPatient *models.PatientState `json:"currentPatient,omitempty"`
	ViewOnly       bool                 `json:"viewOnly,omitempty"`
	Profile        *models.Profile      `json:"profile,omitempty"`
	MainProfile    bool                 `json:"mainProfile,omitempty"`
}

// DecodeEvent builds the typed event for name from a parameter bag.
// An unknown name yields *UnknownFlowEventError.
func DecodeEvent(name EventName, p EventParams) (Event, error) {
	switch name {
	case EventRegister:
		return RegisterCompleted{PatientID: p.PatientID}, nil
	case EventOptionalInfo:
		return OptionalInfoCompleted{CurrentPatient: p.CurrentPatient}, nil
	case EventWelcomeRepeat:
		return WelcomeRepeatCompleted{PatientID: p.PatientID}, nil
	case EventSelectProfile:
		patientID := p.PatientID
		if patientID == "" && p.Profile != nil {
			patientID = p.Profile.ID
		}
		return ProfileSelected{MainProfile: p.MainProfile, PatientID: patientID, CurrentPatient: p.CurrentPatient}, nil
	case EventValidationStudyIntro:
		return ValidationStudyIntroCompleted{CurrentPatient: p.CurrentPatient, ViewOnly: p.ViewOnly}, nil
	case EventValidationStudyConsent:
		return ValidationStudyCompleted{CurrentPatient: p.CurrentPatient}, nil
	default:
		return nil, &UnknownFlowEventError{Event: name}
	}
}
