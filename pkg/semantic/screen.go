// Package semantic provides screen objects: named, pre-bound groups of
// controls for one logical screen or form. Screens are the first strategy
// in the resolution chain, shielding scripts from raw identifier churn.
package semantic

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
)

// binding ties a manifest entry to the query used to resolve it.
type binding struct {
	entry locator.Entry
	query backend.Query
}

// Screen exposes the controls of one manifest group by name.
type Screen struct {
	group    string
	session  backend.Session
	bindings map[string]binding
}

// NewScreen creates an empty screen for a manifest group.
func NewScreen(group string, session backend.Session) *Screen {
	return &Screen{
		group:    group,
		session:  session,
		bindings: make(map[string]binding),
	}
}

// Group returns the manifest group this screen covers.
func (s *Screen) Group() string { return s.group }

// Bind registers a control from the manifest for later resolution.
func (s *Screen) Bind(manifest *locator.Manifest, name, controlType string) error {
	entry, ok := manifest.FindByName(s.group, name)
	if !ok {
		return fmt.Errorf("automation id %s.%s not found in manifest", s.group, name)
	}
	ct := controlType
	if ct == "" {
		ct = entry.ControlType
	}
	s.bindings[name] = binding{
		entry: entry,
		query: backend.Query{AutomationID: entry.AutomationID, ControlType: ct},
	}
	return nil
}

// BindAll registers every manifest entry of the screen's group.
func (s *Screen) BindAll(manifest *locator.Manifest) {
	for name, entry := range manifest.ByGroup(s.group) {
		s.bindings[name] = binding{
			entry: entry,
			query: backend.Query{AutomationID: entry.AutomationID, ControlType: entry.ControlType},
		}
	}
}

// Control resolves a previously bound control by its constant name.
func (s *Screen) Control(ctx context.Context, name string) (backend.Control, error) {
	b, ok := s.bindings[name]
	if !ok {
		return nil, fmt.Errorf("no control bound for %s.%s", s.group, name)
	}
	return s.session.FindControl(ctx, b.query)
}

// ControlByID resolves a bound control by automation id. ok=false means
// the screen has no binding for the id and the caller should fall through
// to the next resolution strategy.
func (s *Screen) ControlByID(ctx context.Context, autoID string) (backend.Control, bool, error) {
	for _, b := range s.bindings {
		if b.entry.AutomationID == autoID {
			c, err := s.session.FindControl(ctx, b.query)
			return c, true, err
		}
	}
	return nil, false, nil
}

// Registry maps manifest groups to their registered screens.
type Registry struct {
	screens map[string]*Screen
}

// NewRegistry creates an empty screen registry.
func NewRegistry() *Registry {
	return &Registry{screens: make(map[string]*Screen)}
}

// Register adds a screen, replacing any previous screen for its group.
func (r *Registry) Register(s *Screen) {
	r.screens[s.Group()] = s
}

// ForGroup returns the screen registered for a manifest group.
func (r *Registry) ForGroup(group string) (*Screen, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.screens[group]
	return s, ok
}

// FromManifest builds a registry with one fully-bound screen per manifest
// group. Callers with hand-written screens register those afterwards.
func FromManifest(manifest *locator.Manifest, session backend.Session) *Registry {
	r := NewRegistry()
	for _, group := range manifest.Groups() {
		s := NewScreen(group, session)
		s.BindAll(manifest)
		r.Register(s)
	}
	return r
}
