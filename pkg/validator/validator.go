// Package validator checks recorded scripts before playback. It parses
// every script upfront and reports structural problems batched per file,
// so a broken suite surfaces before any input is synthesized.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Files is the list of script file paths checked.
	Files []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates script files. A non-empty manifest additionally
// checks recorded automation ids against the known control inventory.
type Validator struct {
	manifest *locator.Manifest
}

// New creates a Validator. manifest may be nil.
func New(manifest *locator.Manifest) *Validator {
	return &Validator{manifest: manifest}
}

// Validate validates a script file or a directory tree of scripts.
func (v *Validator) Validate(path string) *Result {
	result := &Result{}

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    path,
			Message: fmt.Sprintf("cannot access: %v", err),
		})
		return result
	}

	var files []string
	if info.IsDir() {
		files, err = collectScriptFiles(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to scan directory: %v", err),
			})
			return result
		}
	} else {
		files = []string{path}
	}

	for _, file := range files {
		v.validateFile(file, result)
	}
	return result
}

// collectScriptFiles finds all .json files in a directory.
func collectScriptFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) == ".json" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (v *Validator) validateFile(filePath string, result *Result) {
	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	script, err := action.LoadScript(filePath, name)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return
	}
	result.Files = append(result.Files, filePath)

	for i, a := range script.Actions {
		for _, msg := range v.checkAction(a) {
			result.Errors = append(result.Errors, &ValidationError{
				File:    filePath,
				Message: fmt.Sprintf("action %d (%s): %s", i, a.Type, msg),
			})
		}
	}
}

// checkAction returns the problems with one action.
func (v *Validator) checkAction(a action.Action) []string {
	var errs []string
	if !a.Type.Known() {
		return []string{"unknown action type"}
	}
	if a.Delay < 0 {
		errs = append(errs, "negative delay")
	}

	needsPos := func() {
		if _, _, ok := a.Pos(); !ok {
			errs = append(errs, "missing coordinates")
		}
	}

	switch a.Type {
	case action.TypeClick, action.TypeMouseDown, action.TypeMouseUp,
		action.TypeMouseMove, action.TypeScroll:
		needsPos()
	case action.TypeDrag:
		if len(a.Path) < 2 {
			errs = append(errs, "drag path needs at least 2 points")
		}
	case action.TypeKey:
		if a.Key == "" {
			errs = append(errs, "missing key")
		}
	case action.TypeHotkey:
		if len(a.Keys) == 0 {
			errs = append(errs, "missing keys")
		}
	case action.TypeText:
		if a.Text == "" {
			errs = append(errs, "missing text")
		}
	case action.TypeScreenshot:
		if a.Screenshot == "" {
			errs = append(errs, "missing baseline image name")
		}
	case action.TypeAssertProperty:
		if a.AutoID == "" {
			errs = append(errs, "missing automation id")
		}
		if a.Property == "" {
			errs = append(errs, "missing property name")
		}
		switch a.Compare {
		case "", "equals", "contains":
		default:
			errs = append(errs, fmt.Sprintf("unknown compare mode %q", a.Compare))
		}
	case action.TypeExplorerOpen:
		if a.Explorer == nil || a.Explorer.Path == "" {
			errs = append(errs, "missing path")
		}
	case action.TypeExplorerSelect:
		if a.Explorer == nil || len(a.Explorer.Items) == 0 {
			errs = append(errs, "missing items")
		}
	}

	if a.AutoID != "" && !locator.IsGenericID(a.AutoID) &&
		v.manifest != nil && !v.manifest.Empty() && !v.manifest.Contains(a.AutoID) {
		errs = append(errs, fmt.Sprintf("automation id %q not in manifest", a.AutoID))
	}
	return errs
}
