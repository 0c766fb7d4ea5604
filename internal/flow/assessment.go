package flow

import "github.com/BTreeMap/SymptomFlow/internal/models"

// StartPatientScreen is the screen following the returning-user marker once patient
// details are complete: the cohort-study question when it applies, otherwise the work question.
func StartPatientScreen(cfg models.FeatureConfig, p models.PatientState) models.ScreenName {
	if cfg.EnableCohorts && p.ShouldAskStudy {
		return models.ScreenYourStudy
	}
	return models.ScreenYourWork
}

// AssessmentStartScreen is the first screen of a symptom assessment for p.
func AssessmentStartScreen(p models.PatientState) models.ScreenName {
	if p.IsHealthWorker {
		return models.ScreenHealthWorkerExposure
	}
	return models.ScreenCovidTest
}

// patientDetailsDirective resets the stack to the returning-user marker with the start
// screen on top, in one step.
func patientDetailsDirective(cfg models.FeatureConfig, p models.PatientState) ScreenDirective {
	return NewReset(
		Route{Screen: models.ScreenWelcomeRepeat, Params: PatientIDParams{PatientID: p.PatientID}},
		Route{Screen: StartPatientScreen(cfg, p), Params: CurrentPatientParams{CurrentPatient: p}},
	)
}

func assessmentRoute(p models.PatientState) Route {
	return Route{Screen: AssessmentStartScreen(p), Params: CurrentPatientParams{CurrentPatient: p}}
}

func assessmentDirective(p models.PatientState) ScreenDirective {
	return Go{assessmentRoute(p)}
}
