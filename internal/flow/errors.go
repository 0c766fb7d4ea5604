package flow

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrUnknownFlowEvent = errors.New("unknown flow event")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrUpstreamState    = errors.New("upstream state lookup failed")
)

// StateSource names the collaborator an UpstreamStateError came from.
type StateSource string

const (
	SourceConfig       StateSource = "config"
	SourcePatientStore StateSource = "patient store"
	SourceConsent      StateSource = "consent"
	SourceStudy        StateSource = "validation study"
)

// UnknownFlowEventError is returned when no resolver exists for an event.
type UnknownFlowEventError struct {
	Event EventName
}

func (e *UnknownFlowEventError) Error() string {
	return fmt.Sprintf("no next screen defined for event %q", e.Event)
}

func (e *UnknownFlowEventError) Is(target error) bool { return target == ErrUnknownFlowEvent }

// MissingParameterError is returned when a resolver needs a parameter the event lacks.
type MissingParameterError struct {
	Event EventName
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("event %s: missing required parameter %s", e.Event, e.Param)
}

func (e *MissingParameterError) Is(target error) bool { return target == ErrMissingParameter }

// UpstreamStateError wraps a failure of a state or config collaborator. It is never retried here.
type UpstreamStateError struct {
	Event  EventName
	Source StateSource
	Err    error
}

func (e *UpstreamStateError) Error() string {
	return fmt.Sprintf("event %s: %s: %v", e.Event, e.Source, e.Err)
}

func (e *UpstreamStateError) Unwrap() error { return e.Err }

func (e *UpstreamStateError) Is(target error) bool { return target == ErrUpstreamState }
