package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// resolve dispatches ev to its resolver. The switch covers every Event implementation.
func (o *Orchestrator) resolve(ctx context.Context, cfg models.FeatureConfig, ev Event) (ScreenDirective, error) {
	switch e := ev.(type) {
	case RegisterCompleted:
		return o.resolveRegister(ctx, cfg, e)
	case OptionalInfoCompleted:
		return resolveOptionalInfo(cfg, e)
	case WelcomeRepeatCompleted:
		return o.resolveWelcomeRepeat(ctx, cfg, e)
	case ProfileSelected:
		return o.resolveProfileSelected(ctx, cfg, e)
	case ValidationStudyIntroCompleted:
		return resolveValidationStudyIntro(e)
	case ValidationStudyCompleted:
		return resolveValidationStudyConsent(e), nil
	default:
		return nil, &UnknownFlowEventError{Event: ev.Name()}
	}
}

func (o *Orchestrator) resolveRegister(ctx context.Context, cfg models.FeatureConfig, e RegisterCompleted) (ScreenDirective, error) {
	if e.PatientID == "" {
		return nil, &MissingParameterError{Event: e.Name(), Param: "patientId"}
	}
	askPersonalInfo, err := o.shouldAskPersonalInfo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if askPersonalInfo {
		return NewReplace(models.ScreenOptionalInfo, PatientIDParams{PatientID: e.PatientID}), nil
	}
	patient, err := o.lookupPatient(ctx, e.Name(), e.PatientID)
	if err != nil {
		return nil, err
	}
	return patientDetailsDirective(cfg, patient), nil
}

// shouldAskPersonalInfo applies the country consent rule on top of the config flag:
// when a consent document is required, only users who signed exactly that one are asked.
func (o *Orchestrator) shouldAskPersonalInfo(ctx context.Context, cfg models.FeatureConfig) (bool, error) {
	if !cfg.EnablePersonalInformation {
		return false, nil
	}
	if cfg.RequiredConsentDocument == "" {
		return true, nil
	}
	signed := ""
	if o.consent != nil {
		doc, err := o.consent.SignedConsentDocument(ctx)
		if err != nil {
			return false, &UpstreamStateError{Event: EventRegister, Source: SourceConsent, Err: err}
		}
		signed = doc
	}
	if signed != cfg.RequiredConsentDocument {
		slog.Debug("Orchestrator skipping personal information", "country", cfg.Country, "required", cfg.RequiredConsentDocument, "signed", signed)
		return false, nil
	}
	return true, nil
}

func resolveOptionalInfo(cfg models.FeatureConfig, e OptionalInfoCompleted) (ScreenDirective, error) {
	if e.CurrentPatient == nil {
		return nil, &MissingParameterError{Event: e.Name(), Param: "currentPatient"}
	}
	return patientDetailsDirective(cfg, *e.CurrentPatient), nil
}

func (o *Orchestrator) resolveWelcomeRepeat(ctx context.Context, cfg models.FeatureConfig, e WelcomeRepeatCompleted) (ScreenDirective, error) {
	if e.PatientID == "" {
		return nil, &MissingParameterError{Event: e.Name(), Param: "patientId"}
	}
	if cfg.EnableMultiplePatients {
		return NewGo(models.ScreenSelectProfile, PatientIDParams{PatientID: e.PatientID}), nil
	}
	patient, err := o.lookupPatient(ctx, e.Name(), e.PatientID)
	if err != nil {
		return nil, err
	}
	return assessmentDirective(patient), nil
}

func (o *Orchestrator) resolveProfileSelected(ctx context.Context, cfg models.FeatureConfig, e ProfileSelected) (ScreenDirective, error) {
	var patient models.PatientState
	switch {
	case e.CurrentPatient != nil:
		patient = *e.CurrentPatient
	case e.PatientID != "":
		p, err := o.lookupPatient(ctx, e.Name(), e.PatientID)
		if err != nil {
			return nil, err
		}
		patient = p
	default:
		return nil, &MissingParameterError{Event: e.Name(), Param: "currentPatient"}
	}

	if e.MainProfile && cfg.ValidationStudyApplies() && o.study != nil {
		ask, err := o.study.ShouldAskForValidationStudy(ctx, false)
		if err != nil {
			return nil, &UpstreamStateError{Event: e.Name(), Source: SourceStudy, Err: err}
		}
		if ask {
			return NewGo(models.ScreenValidationStudyIntro, CurrentPatientParams{CurrentPatient: patient}), nil
		}
	}
	return assessmentDirective(patient), nil
}

func resolveValidationStudyIntro(e ValidationStudyIntroCompleted) (ScreenDirective, error) {
	if e.CurrentPatient == nil {
		return nil, &MissingParameterError{Event: e.Name(), Param: "currentPatient"}
	}
	patient := *e.CurrentPatient
	return NewGo(models.ScreenValidationStudyConsent, ConsentViewParams{ViewOnly: e.ViewOnly, CurrentPatient: &patient}), nil
}

// resolveValidationStudyConsent returns to profile selection and starts the assessment
// on top of it. Without a patient the user goes back to the welcome screen.
func resolveValidationStudyConsent(e ValidationStudyCompleted) ScreenDirective {
	if e.CurrentPatient == nil {
		return NewGo(models.ScreenWelcomeRepeat, nil)
	}
	patient := *e.CurrentPatient
	return NewReset(
		Route{Screen: models.ScreenSelectProfile, Params: PatientIDParams{PatientID: patient.PatientID}},
		assessmentRoute(patient),
	)
}

func (o *Orchestrator) lookupPatient(ctx context.Context, event EventName, patientID string) (models.PatientState, error) {
	patient, err := o.patients.GetCurrentPatient(ctx, patientID)
	if err != nil {
		slog.Error("Orchestrator patient lookup failed", "event", event, "patientID", patientID, "error", err)
		return models.PatientState{}, &UpstreamStateError{Event: event, Source: SourcePatientStore, Err: err}
	}
	return patient, nil
}
