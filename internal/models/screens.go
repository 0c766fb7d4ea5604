// Package models defines screen identifiers for the symptom-reporting flows.
package models

// ScreenName identifies a screen the hosting UI can present.
type ScreenName string

// Screens reachable from the flow orchestrator.
const (
	ScreenWelcomeRepeat          ScreenName = "WelcomeRepeat"
	ScreenOptionalInfo           ScreenName = "OptionalInfo"
	ScreenYourStudy              ScreenName = "YourStudy"
	ScreenYourWork               ScreenName = "YourWork"
	ScreenSelectProfile          ScreenName = "SelectProfile"
	ScreenValidationStudyIntro   ScreenName = "ValidationStudyIntro"
	ScreenValidationStudyConsent ScreenName = "ValidationStudyConsent"
	ScreenHealthWorkerExposure   ScreenName = "HealthWorkerExposure"
	ScreenCovidTest              ScreenName = "CovidTest"
)
