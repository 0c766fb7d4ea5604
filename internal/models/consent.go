package models

// Consent documents a user can sign.
const (
	ConsentDocumentUSNurses = "US Nurses"
	ConsentDocumentUS       = "US"
	ConsentDocumentUK       = "UK"
	ConsentDocumentSE       = "SE"
)

// ValidationStudyName is the study name sent with validation-study responses.
const ValidationStudyName = "UK Validation Study"

// Consent records which consent document the user signed.
type Consent struct {
	Document             string `json:"document"`
	DocumentVersion      string `json:"documentVersion,omitempty"`
	PrivacyPolicyVersion string `json:"privacyPolicyVersion,omitempty"`
}

// ValidationStudyStatus is the backend answer about the validation-study invitation.
type ValidationStudyStatus struct {
	ShouldAskUKValidationStudy bool `json:"shouldAskUkValidationStudy"`
}

// ValidationStudyResponse records the user's answer to the validation-study invitation.
type ValidationStudyResponse struct {
	Study              string `json:"study"`
	Status             string `json:"status"`
	AllowFutureDataUse bool   `json:"allow_future_data_use"`
	AllowContactByZoe  bool   `json:"allow_contact_by_zoe"`
}
