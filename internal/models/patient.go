package models

// Profile is the display identity of one patient profile on an account.
type Profile struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	AvatarName        string `json:"avatarName,omitempty"`
	ReportedByAnother bool   `json:"reportedByAnother"`
}

// PatientState is the snapshot of a patient profile used to pick the next screen.
type PatientState struct {
	PatientID                  string  `json:"patientId"`
	Profile                    Profile `json:"profile"`
	IsPrimary                  bool    `json:"isPrimary"`
	IsReportedByAnother        bool    `json:"isReportedByAnother"`
	IsHealthWorker             bool    `json:"isHealthWorker"`
	HasCompletedPatientDetails bool    `json:"hasCompletedPatientDetails"`
	ShouldAskStudy             bool    `json:"shouldAskStudy"`
	ConsentDocument            string  `json:"consentDocument,omitempty"`
}

// HealthcareProfessional answers that count as working in health care.
const (
	HealthcareProfessionalNo          = "no"
	HealthcareProfessionalTreats      = "yes_does_treat"
	HealthcareProfessionalInteracts   = "yes_does_interact"
	HealthcareProfessionalNoInteract  = "yes_does_not_interact"
	HealthcareProfessionalNotPractice = "yes_not_practicing"
)

// PatientInfo is a patient record as returned by the backend after key camelization.
type PatientInfo struct {
	ID                     string `json:"id"`
	Name                   string `json:"name,omitempty"`
	AvatarName             string `json:"avatarName,omitempty"`
	ReportedByAnother      bool   `json:"reportedByAnother"`
	YearOfBirth            int    `json:"yearOfBirth,omitempty"`
	Gender                 *int   `json:"gender,omitempty"`
	HealthcareProfessional string `json:"healthcareProfessional,omitempty"`
	IsCarer                *bool  `json:"isCarerForCommunity,omitempty"`
	ContactAdditionalStudy *bool  `json:"contactAdditionalStudies,omitempty"`
}

// PatientInfoRequest carries the editable fields of a patient record.
type PatientInfoRequest struct {
	Name                   string `json:"name,omitempty"`
	AvatarName             string `json:"avatar_name,omitempty"`
	ReportedByAnother      *bool  `json:"reported_by_another,omitempty"`
	YearOfBirth            int    `json:"year_of_birth,omitempty"`
	HealthcareProfessional string `json:"healthcare_professional,omitempty"`
	ContactAdditionalStudy *bool  `json:"contact_additional_studies,omitempty"`
}
