// Package locator classifies stable control identifiers and indexes the
// automation-id manifest produced by static analysis of the target app.
package locator

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Reserved identifier values that denote anonymous container elements.
// Resolving against these gives false confidence, so they always route to
// coordinate fallback.
var genericIDs = map[string]struct{}{
	"":                  {},
	"window":            {},
	"pane":              {},
	"mainwindowcontrol": {},
}

// IsGenericID reports whether an automation id is empty or a reserved
// anonymous-container token.
func IsGenericID(id string) bool {
	_, ok := genericIDs[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

// Entry is the manifest metadata for a single automation id.
type Entry struct {
	AutomationID string `json:"automation_id"`
	ControlType  string `json:"control_type,omitempty"`
	Description  string `json:"description,omitempty"`
}

// UnmarshalJSON accepts either a metadata object (with "automation_id" or
// legacy "id") or a bare identifier string.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.AutomationID = s
		return nil
	}
	var raw struct {
		AutomationID string `json:"automation_id"`
		ID           string `json:"id"`
		ControlType  string `json:"control_type"`
		Description  string `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.AutomationID = raw.AutomationID
	if e.AutomationID == "" {
		e.AutomationID = raw.ID
	}
	e.ControlType = raw.ControlType
	e.Description = raw.Description
	return nil
}

// GroupName locates an entry inside the manifest hierarchy.
type GroupName struct {
	Group string
	Name  string
}

// Manifest is a read-only index over group -> name -> entry, with a
// reverse automation-id lookup. Loaded once per session and immutable
// afterwards.
type Manifest struct {
	groups map[string]map[string]Entry
	lookup map[string]GroupName
}

// Normalize builds a manifest index, dropping entries without an id.
func Normalize(raw map[string]map[string]Entry) *Manifest {
	m := &Manifest{
		groups: make(map[string]map[string]Entry),
		lookup: make(map[string]GroupName),
	}
	for group, items := range raw {
		kept := make(map[string]Entry)
		for name, entry := range items {
			if entry.AutomationID == "" {
				continue
			}
			kept[name] = entry
			m.lookup[entry.AutomationID] = GroupName{Group: group, Name: name}
		}
		if len(kept) > 0 {
			m.groups[group] = kept
		}
	}
	return m
}

// Load reads a manifest JSON file. Both a bare group map and a
// {"groups": {...}} wrapper are accepted.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided manifest file
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	var wrapped struct {
		Groups map[string]map[string]Entry `json:"groups"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Groups != nil {
		return Normalize(wrapped.Groups), nil
	}
	var bare map[string]map[string]Entry
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("unsupported manifest format in %s: %w", path, err)
	}
	return Normalize(bare), nil
}

// Empty returns true when the manifest holds no entries.
func (m *Manifest) Empty() bool {
	return m == nil || len(m.lookup) == 0
}

// Contains reports whether an automation id exists in the manifest.
func (m *Manifest) Contains(autoID string) bool {
	if m == nil {
		return false
	}
	_, ok := m.lookup[autoID]
	return ok
}

// Locate returns the (group, name) pair for an automation id.
func (m *Manifest) Locate(autoID string) (GroupName, bool) {
	if m == nil {
		return GroupName{}, false
	}
	gn, ok := m.lookup[autoID]
	return gn, ok
}

// Entry returns the metadata for an automation id.
func (m *Manifest) Entry(autoID string) (Entry, bool) {
	gn, ok := m.Locate(autoID)
	if !ok {
		return Entry{}, false
	}
	return m.groups[gn.Group][gn.Name], true
}

// FindByName retrieves an entry by its manifest group and constant name.
func (m *Manifest) FindByName(group, name string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	entry, ok := m.groups[group][name]
	return entry, ok
}

// ByGroup returns a copy of one group's entries.
func (m *Manifest) ByGroup(group string) map[string]Entry {
	out := make(map[string]Entry)
	if m == nil {
		return out
	}
	for name, entry := range m.groups[group] {
		out[name] = entry
	}
	return out
}

// Groups returns the known group names, sorted for determinism.
func (m *Manifest) Groups() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.groups))
	for g := range m.groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}
