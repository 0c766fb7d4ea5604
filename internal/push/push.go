// Package push registers the device push token with the backend.
//
// A token is sent when it differs from the last one sent, or when the last send is
// RefreshAfterDays or more days old. The last sent token is cached locally.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/SymptomFlow/internal/models"
	"github.com/BTreeMap/SymptomFlow/internal/store"
	"github.com/BTreeMap/SymptomFlow/internal/util"
)

// Local storage keys.
const (
	KeyPushToken      = "PUSH_TOKEN"
	KeyInstallationID = "INSTALLATION_ID"
)

// RefreshAfterDays is the age at which an unchanged token is sent again.
const RefreshAfterDays = 7

// TokenEnvironment yields the device push token. An empty token means push is unavailable.
type TokenEnvironment interface {
	GetPushToken(ctx context.Context) (string, error)
	Platform() string
}

// Backend is the subset of apiclient.Client used here.
type Backend interface {
	Post(ctx context.Context, path string, payload, out any) error
}

// tokenRequest is the body of POST /tokens/.
type tokenRequest struct {
	Token          string `json:"token"`
	Platform       string `json:"platform"`
	InstallationID string `json:"installation_id"`
}

// Service keeps the backend's copy of the push token fresh.
type Service struct {
	backend Backend
	storage store.Store
	env     TokenEnvironment
	now     func() time.Time
}

// NewService creates a Service. env may be nil when the host has no push support.
func NewService(backend Backend, storage store.Store, env TokenEnvironment) *Service {
	return &Service{backend: backend, storage: storage, env: env, now: time.Now}
}

// SubscribeForPushNotifications sends the environment's token when needed and
// reports whether it was sent.
func (s *Service) SubscribeForPushNotifications(ctx context.Context) (bool, error) {
	if s.env == nil {
		return false, nil
	}
	token, err := s.env.GetPushToken(ctx)
	if err != nil {
		slog.Error("PushService GetPushToken failed", "error", err)
		return false, fmt.Errorf("get push token: %w", err)
	}
	if token == "" {
		slog.Debug("PushService no push token available")
		return false, nil
	}
	return s.RegisterToken(ctx, token, s.env.Platform())
}

// RegisterToken sends token when it changed or the cached copy is stale, and reports
// whether it was sent.
func (s *Service) RegisterToken(ctx context.Context, token, platform string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, fmt.Errorf("push token is required")
	}

	var saved models.PushToken
	found, err := s.storage.GetObject(ctx, KeyPushToken, &saved)
	if err != nil {
		return false, fmt.Errorf("load push token: %w", err)
	}
	if found && !s.needsRefresh(saved, token) {
		slog.Debug("PushService token up to date", "lastUpdated", saved.LastUpdated)
		return false, nil
	}

	installationID, err := s.InstallationID(ctx)
	if err != nil {
		return false, err
	}
	req := tokenRequest{Token: token, Platform: platform, InstallationID: installationID}
	if err := s.backend.Post(ctx, "/tokens/", req, nil); err != nil {
		slog.Error("PushService send token failed", "error", err)
		return false, fmt.Errorf("send push token: %w", err)
	}

	saved = models.PushToken{
		Token:       token,
		Platform:    platform,
		LastUpdated: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.storage.SetObject(ctx, KeyPushToken, saved); err != nil {
		return true, fmt.Errorf("save push token: %w", err)
	}
	slog.Info("PushService token sent", "platform", platform)
	return true, nil
}

func (s *Service) needsRefresh(saved models.PushToken, token string) bool {
	if saved.Token != token {
		return true
	}
	last, err := time.Parse(time.RFC3339, saved.LastUpdated)
	if err != nil {
		return true
	}
	return util.CalcDaysDiff(s.now(), last.UTC()) >= RefreshAfterDays
}

// InstallationID returns the ID of this installation, generating it on first use.
func (s *Service) InstallationID(ctx context.Context) (string, error) {
	var id string
	found, err := s.storage.GetObject(ctx, KeyInstallationID, &id)
	if err != nil {
		return "", fmt.Errorf("load installation ID: %w", err)
	}
	if found && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.storage.SetObject(ctx, KeyInstallationID, id); err != nil {
		return "", fmt.Errorf("save installation ID: %w", err)
	}
	return id, nil
}

// StaticTokenEnvironment is a TokenEnvironment with a fixed token.
type StaticTokenEnvironment struct {
	Token        string
	PlatformName string
}

func (e StaticTokenEnvironment) GetPushToken(ctx context.Context) (string, error) {
	return e.Token, nil
}

func (e StaticTokenEnvironment) Platform() string { return e.PlatformName }
