// Package content serves startup information and welcome content.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BTreeMap/SymptomFlow/internal/models"
	"github.com/BTreeMap/SymptomFlow/internal/store"
)

// KeyStartupInfo is the storage key of the last startup info.
const KeyStartupInfo = "STARTUP_INFO"

// DefaultWelcomeContent is shown when no welcome content is configured.
var DefaultWelcomeContent = models.CalloutBoxContent{
	Title:       "Help slow the spread",
	Description: "Report how you feel every day, even if you are well.",
	Link: models.Link{
		Title: "Learn more",
		URL:   "https://covid.joinzoe.com/",
	},
}

// Backend is the subset of apiclient.Client used here.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
}

// Service caches the startup info of the current session.
type Service struct {
	backend Backend
	storage store.Store
	welcome models.CalloutBoxContent

	mu   sync.RWMutex
	info models.StartupInfo
}

// NewService creates a Service.
func NewService(backend Backend, storage store.Store) *Service {
	return &Service{backend: backend, storage: storage, welcome: DefaultWelcomeContent}
}

// Init fetches the startup info and caches it. When the backend is unreachable the
// cached copy from a previous run is used instead.
func (s *Service) Init(ctx context.Context) error {
	var info models.StartupInfo
	err := s.backend.Get(ctx, "/users/startup_info/", &info)
	if err != nil {
		slog.Warn("ContentService Init fetch failed, using cache", "error", err)
		found, cerr := s.storage.GetObject(ctx, KeyStartupInfo, &info)
		if cerr != nil {
			return fmt.Errorf("startup info: %w (cache: %v)", err, cerr)
		}
		if !found {
			return fmt.Errorf("startup info: %w", err)
		}
	} else if err := s.storage.SetObject(ctx, KeyStartupInfo, info); err != nil {
		slog.Warn("ContentService Init cache write failed", "error", err)
	}

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
	slog.Debug("ContentService Init succeeded", "ipCountry", info.IPCountry, "usersCount", info.UsersCount)
	return nil
}

// GetIpCountry returns the country of the client IP as seen by the backend.
func (s *Service) GetIpCountry() models.CountryCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.IPCountry
}

// GetUserCount returns the number of registered users.
func (s *Service) GetUserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.UsersCount
}

// StartupInfo returns both startup values.
func (s *Service) StartupInfo() models.StartupInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// GetWelcomeContent returns the welcome callout box.
func (s *Service) GetWelcomeContent() models.CalloutBoxContent {
	return s.welcome
}
