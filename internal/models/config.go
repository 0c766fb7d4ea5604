package models

import "slices"

// FeatureConfig is the feature-flag bundle resolved for one country.
// It is read-only once resolved.
type FeatureConfig struct {
	Country                   CountryCode   `json:"country"`
	EnablePersonalInformation bool          `json:"enablePersonalInformation"`
	EnableCohorts             bool          `json:"enableCohorts"`
	EnableMultiplePatients    bool          `json:"enableMultiplePatients"`
	RequiredConsentDocument   string        `json:"requiredConsentDocument,omitempty"`
	ValidationStudyCountries  []CountryCode `json:"validationStudyCountries,omitempty"`
}

// ValidationStudyApplies reports whether the config country takes part in the validation study.
func (c FeatureConfig) ValidationStudyApplies() bool {
	return slices.Contains(c.ValidationStudyCountries, c.Country)
}
