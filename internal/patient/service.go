package patient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// Service serves patient records and snapshots.
type Service struct {
	client RemoteClient
}

// NewService creates a Service backed by client.
func NewService(client RemoteClient) *Service {
	return &Service{client: client}
}

// ListPatients returns every profile on the account.
func (s *Service) ListPatients(ctx context.Context) ([]models.PatientInfo, error) {
	return s.client.ListPatients(ctx)
}

// GetPatient returns one patient record.
func (s *Service) GetPatient(ctx context.Context, patientID string) (models.PatientInfo, error) {
	if strings.TrimSpace(patientID) == "" {
		return models.PatientInfo{}, fmt.Errorf("patient ID is required")
	}
	return s.client.GetPatient(ctx, patientID)
}

// CreatePatient adds a profile to the account.
func (s *Service) CreatePatient(ctx context.Context, req models.PatientInfoRequest) (models.PatientInfo, error) {
	p, err := s.client.CreatePatient(ctx, req)
	if err != nil {
		slog.Error("PatientService CreatePatient failed", "error", err)
		return models.PatientInfo{}, err
	}
	slog.Info("PatientService CreatePatient succeeded", "patientID", p.ID)
	return p, nil
}

// UpdatePatient edits a profile.
func (s *Service) UpdatePatient(ctx context.Context, patientID string, req models.PatientInfoRequest) (models.PatientInfo, error) {
	if strings.TrimSpace(patientID) == "" {
		return models.PatientInfo{}, fmt.Errorf("patient ID is required")
	}
	p, err := s.client.UpdatePatient(ctx, patientID, req)
	if err != nil {
		slog.Error("PatientService UpdatePatient failed", "patientID", patientID, "error", err)
		return models.PatientInfo{}, err
	}
	return p, nil
}

// GetCurrentPatient fetches the record of patientID and derives its snapshot.
func (s *Service) GetCurrentPatient(ctx context.Context, patientID string) (models.PatientState, error) {
	p, err := s.GetPatient(ctx, patientID)
	if err != nil {
		return models.PatientState{}, err
	}
	return StateFromInfo(p), nil
}

// StateFromInfo derives a snapshot from a patient record.
func StateFromInfo(p models.PatientInfo) models.PatientState {
	return models.PatientState{
		PatientID: p.ID,
		Profile: models.Profile{
			ID:                p.ID,
			Name:              p.Name,
			AvatarName:        p.AvatarName,
			ReportedByAnother: p.ReportedByAnother,
		},
		// Profiles reported by someone else are secondary.
		IsPrimary:                  !p.ReportedByAnother,
		IsReportedByAnother:        p.ReportedByAnother,
		IsHealthWorker:             isHealthWorker(p),
		HasCompletedPatientDetails: p.YearOfBirth != 0 && p.Gender != nil && p.HealthcareProfessional != "",
		ShouldAskStudy:             p.ContactAdditionalStudy == nil,
	}
}

func isHealthWorker(p models.PatientInfo) bool {
	switch p.HealthcareProfessional {
	case models.HealthcareProfessionalTreats, models.HealthcareProfessionalInteracts:
		return true
	}
	return p.IsCarer != nil && *p.IsCarer
}
