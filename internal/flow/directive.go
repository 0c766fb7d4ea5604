package flow

import (
	"slices"

	"github.com/goccy/go-json"

	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// DirectiveKind names the navigation stack operation of a directive.
type DirectiveKind string

const (
	DirectiveReplace DirectiveKind = "replace"
	DirectiveGo      DirectiveKind = "go"
	DirectiveReset   DirectiveKind = "reset"
)

// Route is one screen with its parameters. Params may be nil.
type Route struct {
	Screen models.ScreenName `json:"name"`
	Params ScreenParams      `json:"params,omitempty"`
}

// ScreenDirective is the single atomic change to the navigation stack produced for an event.
// Implementations are Replace, Go and Reset.
type ScreenDirective interface {
	Kind() DirectiveKind
	apply(sink NavigationSink)
}

// Replace swaps the current screen for Route.
type Replace struct {
	Route
}

// Go pushes Route onto the stack.
type Go struct {
	Route
}

// Reset replaces the whole stack with Routes, last entry on top.
type Reset struct {
	Routes []Route
}

// NewReplace returns a Replace directive.
func NewReplace(screen models.ScreenName, params ScreenParams) Replace {
	return Replace{Route{Screen: screen, Params: params}}
}

// NewGo returns a Go directive.
func NewGo(screen models.ScreenName, params ScreenParams) Go {
	return Go{Route{Screen: screen, Params: params}}
}

// NewReset returns a Reset directive over routes.
func NewReset(routes ...Route) Reset {
	return Reset{Routes: slices.Clone(routes)}
}

func (Replace) Kind() DirectiveKind { return DirectiveReplace }
func (Go) Kind() DirectiveKind      { return DirectiveGo }
func (Reset) Kind() DirectiveKind   { return DirectiveReset }

func (d Replace) apply(sink NavigationSink) { sink.Replace(d.Screen, d.Params) }
func (d Go) apply(sink NavigationSink)      { sink.GoTo(d.Screen, d.Params) }
func (d Reset) apply(sink NavigationSink)   { sink.Reset(slices.Clone(d.Routes)) }

type directiveJSON struct {
	Kind   DirectiveKind     `json:"kind"`
	Screen models.ScreenName `json:"name,omitempty"`
	Params ScreenParams      `json:"params,omitempty"`
	Routes []Route           `json:"routes,omitempty"`
}

func (d Replace) MarshalJSON() ([]byte, error) {
	return json.Marshal(directiveJSON{Kind: DirectiveReplace, Screen: d.Screen, Params: d.Params})
}

func (d Go) MarshalJSON() ([]byte, error) {
	return json.Marshal(directiveJSON{Kind: DirectiveGo, Screen: d.Screen, Params: d.Params})
}

func (d Reset) MarshalJSON() ([]byte, error) {
	return json.Marshal(directiveJSON{Kind: DirectiveReset, Routes: d.Routes})
}
