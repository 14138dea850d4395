package action

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Script is an ordered sequence of actions identified by a hierarchical
// name ("procedure/section/test"). Immutable once loaded for a playback run.
type Script struct {
	Name    string
	Actions []Action
}

// LoadScript reads a script file. A corrupt or missing file is fatal for
// the run, so errors here abort before any input synthesis happens.
func LoadScript(path, name string) (*Script, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided script file
	if err != nil {
		return nil, fmt.Errorf("cannot read script %s: %w", path, err)
	}
	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("corrupt script %s: %w", path, err)
	}
	return &Script{Name: name, Actions: actions}, nil
}

// ScriptPath returns the on-disk path for a script name. When
// preferSemantic is set and a .semantic.json variant exists it wins.
func ScriptPath(scriptsDir, name string, preferSemantic bool) string {
	base := filepath.Join(scriptsDir, name+".json")
	if preferSemantic {
		semantic := filepath.Join(scriptsDir, name+".semantic.json")
		if _, err := os.Stat(semantic); err == nil {
			return semantic
		}
	}
	return base
}

// Save writes the script under scriptsDir as <name>.json, creating parent
// directories for hierarchical names.
func (s *Script) Save(scriptsDir string) error {
	path := filepath.Join(scriptsDir, s.Name+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.Actions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SplitHierarchy splits a script name into procedure, section and test.
// Shorter names leave the leading parts empty.
func SplitHierarchy(name string) (procedure, section, test string) {
	clean := filepath.ToSlash(name)
	parts := strings.Split(clean, "/")
	test = parts[len(parts)-1]
	if len(parts) > 1 {
		section = parts[len(parts)-2]
	}
	if len(parts) > 2 {
		procedure = parts[len(parts)-3]
	}
	return procedure, section, test
}
