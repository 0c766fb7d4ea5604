// Package config loads the per-country feature-flag bundles that drive screen flows.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/SymptomFlow/internal/models"
	"github.com/BTreeMap/SymptomFlow/internal/util"
)

// Env overrides applied on top of every country bundle.
const (
	EnvEnablePersonalInformation = "SYMPTOMFLOW_ENABLE_PERSONAL_INFORMATION"
	EnvEnableCohorts             = "SYMPTOMFLOW_ENABLE_COHORTS"
	EnvEnableMultiplePatients    = "SYMPTOMFLOW_ENABLE_MULTIPLE_PATIENTS"
)

// Flags are the per-country switches as written in the bundle file.
type Flags struct {
	EnablePersonalInformation bool   `yaml:"enable_personal_information"`
	EnableCohorts             bool   `yaml:"enable_cohorts"`
	EnableMultiplePatients    bool   `yaml:"enable_multiple_patients"`
	RequiredConsentDocument   string `yaml:"required_consent_document"`
}

// Bundle models features.yml.
type Bundle struct {
	DefaultCountry           models.CountryCode           `yaml:"default_country"`
	ValidationStudyCountries []models.CountryCode         `yaml:"validation_study_countries"`
	Countries                map[models.CountryCode]Flags `yaml:"countries"`
}

// Default returns the bundle used when no file is configured.
func Default() *Bundle {
	return &Bundle{
		DefaultCountry:           models.CountryGB,
		ValidationStudyCountries: []models.CountryCode{models.CountryGB},
		Countries: map[models.CountryCode]Flags{
			models.CountryGB: {
				EnablePersonalInformation: true,
				EnableMultiplePatients:    true,
			},
			models.CountryUS: {
				EnablePersonalInformation: true,
				EnableCohorts:             true,
				EnableMultiplePatients:    true,
				RequiredConsentDocument:   models.ConsentDocumentUSNurses,
			},
			models.CountrySE: {},
		},
	}
}

// Load reads and validates a bundle file. An empty path yields Default.
func Load(path string) (*Bundle, error) {
	if path == "" {
		slog.Debug("No feature bundle file configured, using defaults")
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("feature bundle %s not found", path)
		}
		return nil, err
	}
	b, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("feature bundle %s: %w", path, err)
	}
	slog.Debug("Feature bundle loaded", "path", path, "countries", len(b.Countries))
	return b, nil
}

// FromYAML parses and validates bundle YAML. Unknown keys are rejected.
func FromYAML(data []byte) (*Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse feature bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate ensures the bundle only names supported countries and has a usable default.
func (b *Bundle) Validate() error {
	if len(b.Countries) == 0 {
		return fmt.Errorf("countries is required")
	}
	for c := range b.Countries {
		if !models.IsValidCountry(c) {
			return fmt.Errorf("countries contains unsupported country %q", c)
		}
	}
	if b.DefaultCountry == "" {
		return fmt.Errorf("default_country is required")
	}
	if _, ok := b.Countries[b.DefaultCountry]; !ok {
		return fmt.Errorf("default_country %s has no entry in countries", b.DefaultCountry)
	}
	for _, c := range b.ValidationStudyCountries {
		if !models.IsValidCountry(c) {
			return fmt.Errorf("validation_study_countries contains unsupported country %q", c)
		}
	}
	return nil
}

// For resolves the FeatureConfig of country. An empty country means the default country.
func (b *Bundle) For(country models.CountryCode) (models.FeatureConfig, error) {
	if country == "" {
		country = b.DefaultCountry
	}
	flags, ok := b.Countries[country]
	if !ok {
		return models.FeatureConfig{}, fmt.Errorf("no feature config for country %s", country)
	}
	return models.FeatureConfig{
		Country:                   country,
		EnablePersonalInformation: flags.EnablePersonalInformation,
		EnableCohorts:             flags.EnableCohorts,
		EnableMultiplePatients:    flags.EnableMultiplePatients,
		RequiredConsentDocument:   strings.TrimSpace(flags.RequiredConsentDocument),
		ValidationStudyCountries:  slices.Clone(b.ValidationStudyCountries),
	}, nil
}

// ApplyEnvOverrides forces the boolean flags of every country from the environment
// when the corresponding variable is set.
func (b *Bundle) ApplyEnvOverrides() {
	for c, flags := range b.Countries {
		flags.EnablePersonalInformation = util.ParseBoolEnv(EnvEnablePersonalInformation, flags.EnablePersonalInformation)
		flags.EnableCohorts = util.ParseBoolEnv(EnvEnableCohorts, flags.EnableCohorts)
		flags.EnableMultiplePatients = util.ParseBoolEnv(EnvEnableMultiplePatients, flags.EnableMultiplePatients)
		b.Countries[c] = flags
	}
}

// Provider is a fixed-country view of a bundle. The config is resolved once.
type Provider struct {
	cfg models.FeatureConfig
}

// NewProvider resolves country from b.
func NewProvider(b *Bundle, country models.CountryCode) (*Provider, error) {
	cfg, err := b.For(country)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg}, nil
}

// Get returns the resolved config.
func (p *Provider) Get() (models.FeatureConfig, error) {
	return p.cfg, nil
}
