package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrMissingDependency is returned by NewOrchestrator when a required collaborator is nil.
var ErrMissingDependency = errors.New("missing flow dependency")

// Orchestrator turns completed-screen events into navigation directives.
type Orchestrator struct {
	config   ConfigProvider
	patients PatientStore
	consent  ConsentProvider
	study    StudyProvider
	sink     NavigationSink
}

// NewOrchestrator creates an Orchestrator. Config, Patients and Sink are required.
func NewOrchestrator(deps Dependencies) (*Orchestrator, error) {
	slog.Debug("Orchestrator.NewOrchestrator: creating orchestrator",
		"hasConfig", deps.Config != nil,
		"hasPatients", deps.Patients != nil,
		"hasConsent", deps.Consent != nil,
		"hasStudy", deps.Study != nil,
		"hasSink", deps.Sink != nil)
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("%w: config provider", ErrMissingDependency)
	case deps.Patients == nil:
		return nil, fmt.Errorf("%w: patient store", ErrMissingDependency)
	case deps.Sink == nil:
		return nil, fmt.Errorf("%w: navigation sink", ErrMissingDependency)
	}
	return &Orchestrator{
		config:   deps.Config,
		patients: deps.Patients,
		consent:  deps.Consent,
		study:    deps.Study,
		sink:     deps.Sink,
	}, nil
}

// WithSink returns a copy of o that sends directives to sink.
func (o *Orchestrator) WithSink(sink NavigationSink) *Orchestrator {
	c := *o
	c.sink = sink
	return &c
}

// WithConfig returns a copy of o that reads feature flags from config.
func (o *Orchestrator) WithConfig(config ConfigProvider) *Orchestrator {
	c := *o
	c.config = config
	return &c
}

// Resolve computes the directive for ev without touching the sink.
func (o *Orchestrator) Resolve(ctx context.Context, ev Event) (ScreenDirective, error) {
	if ev == nil {
		return nil, &UnknownFlowEventError{}
	}
	slog.Debug("Orchestrator Resolve invoked", "event", ev.Name())

	cfg, err := o.config.Get()
	if err != nil {
		slog.Error("Orchestrator config lookup failed", "event", ev.Name(), "error", err)
		return nil, &UpstreamStateError{Event: ev.Name(), Source: SourceConfig, Err: err}
	}

	d, err := o.resolve(ctx, cfg, ev)
	if err != nil {
		slog.Error("Orchestrator Resolve failed", "event", ev.Name(), "country", cfg.Country, "error", err)
		return nil, err
	}
	slog.Debug("Orchestrator Resolve succeeded", "event", ev.Name(), "country", cfg.Country, "directive", d.Kind())
	return d, nil
}

// Advance resolves ev and applies the directive to the sink. On error the sink is untouched.
func (o *Orchestrator) Advance(ctx context.Context, ev Event) (ScreenDirective, error) {
	d, err := o.Resolve(ctx, ev)
	if err != nil {
		return nil, err
	}
	d.apply(o.sink)
	slog.Info("Orchestrator Advance applied directive", "event", ev.Name(), "directive", d.Kind())
	return d, nil
}

// AdvanceNamed decodes a string-named event with its parameter bag and advances it.
func (o *Orchestrator) AdvanceNamed(ctx context.Context, name EventName, params EventParams) (ScreenDirective, error) {
	ev, err := DecodeEvent(name, params)
	if err != nil {
		slog.Error("Orchestrator no next route found", "event", name, "error", err)
		return nil, err
	}
	return o.Advance(ctx, ev)
}
