package flow

import (
	"slices"
	"sync"

	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// NavigationSink is implemented by the hosting UI layer. It is the only component that
// changes what the user sees; the orchestrator calls exactly one method per event.
type NavigationSink interface {
	// Replace swaps the current screen.
	Replace(screen models.ScreenName, params ScreenParams)
	// GoTo pushes a screen.
	GoTo(screen models.ScreenName, params ScreenParams)
	// Reset replaces the whole stack in one step.
	Reset(routes []Route)
}

// RecordingSink is a NavigationSink that keeps every directive it receives.
type RecordingSink struct {
	mu         sync.Mutex
	directives []ScreenDirective
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

var _ NavigationSink = (*RecordingSink)(nil)

func (s *RecordingSink) Replace(screen models.ScreenName, params ScreenParams) {
	s.record(NewReplace(screen, params))
}

func (s *RecordingSink) GoTo(screen models.ScreenName, params ScreenParams) {
	s.record(NewGo(screen, params))
}

func (s *RecordingSink) Reset(routes []Route) {
	s.record(NewReset(routes...))
}

func (s *RecordingSink) record(d ScreenDirective) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directives = append(s.directives, d)
}

// Directives returns the recorded directives in arrival order.
func (s *RecordingSink) Directives() []ScreenDirective {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.directives)
}

// Len returns how many directives were recorded.
func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.directives)
}

// Last returns the most recent directive, if any.
func (s *RecordingSink) Last() (ScreenDirective, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.directives) == 0 {
		return nil, false
	}
	return s.directives[len(s.directives)-1], true
}
