// Package patient reads and edits the patient profiles of the signed-in account and
// derives the PatientState snapshots that drive screen flows.
package patient

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/BTreeMap/SymptomFlow/internal/apiclient"
	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// ErrNotFound is returned when the backend has no patient with the requested ID.
var ErrNotFound = errors.New("patient not found")

// Backend is the subset of apiclient.Client used here.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, payload, out any) error
	Patch(ctx context.Context, path string, payload, out any) error
}

var _ Backend = (*apiclient.Client)(nil)

// RemoteClient is the patient API of the backend.
type RemoteClient interface {
	ListPatients(ctx context.Context) ([]models.PatientInfo, error)
	GetPatient(ctx context.Context, patientID string) (models.PatientInfo, error)
	CreatePatient(ctx context.Context, req models.PatientInfoRequest) (models.PatientInfo, error)
	UpdatePatient(ctx context.Context, patientID string, req models.PatientInfoRequest) (models.PatientInfo, error)
}

// APIClient implements RemoteClient over the backend REST endpoints.
type APIClient struct {
	backend Backend
}

// NewAPIClient wraps backend.
func NewAPIClient(backend Backend) *APIClient {
	return &APIClient{backend: backend}
}

var _ RemoteClient = (*APIClient)(nil)

func (c *APIClient) ListPatients(ctx context.Context) ([]models.PatientInfo, error) {
	var out []models.PatientInfo
	if err := c.backend.Get(ctx, "/patient_list/", &out); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

func (c *APIClient) GetPatient(ctx context.Context, patientID string) (models.PatientInfo, error) {
	var out models.PatientInfo
	if err := c.backend.Get(ctx, patientPath(patientID), &out); err != nil {
		return models.PatientInfo{}, wrapNotFound(patientID, err)
	}
	return out, nil
}

func (c *APIClient) CreatePatient(ctx context.Context, req models.PatientInfoRequest) (models.PatientInfo, error) {
	var out models.PatientInfo
	if err := c.backend.Post(ctx, "/patients/", req, &out); err != nil {
		return models.PatientInfo{}, fmt.Errorf("create patient: %w", err)
	}
	return out, nil
}

func (c *APIClient) UpdatePatient(ctx context.Context, patientID string, req models.PatientInfoRequest) (models.PatientInfo, error) {
	var out models.PatientInfo
	if err := c.backend.Patch(ctx, patientPath(patientID), req, &out); err != nil {
		return models.PatientInfo{}, wrapNotFound(patientID, err)
	}
	return out, nil
}

func patientPath(patientID string) string {
	return "/patients/" + url.PathEscape(patientID) + "/"
}

func wrapNotFound(patientID string, err error) error {
	if errors.Is(err, apiclient.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, patientID)
	}
	return fmt.Errorf("patient %s: %w", patientID, err)
}
