package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
)

func writeScript(t *testing.T, dir, name string, s *action.Script) string {
	t.Helper()
	s.Name = strings.TrimSuffix(name, ".json")
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return filepath.Join(dir, name)
}

func validScript() *action.Script {
	return &action.Script{Actions: []action.Action{
		action.Click(10, 20, "left").WithDelay(0.5),
		action.TypeInput("hello"),
		action.KeyPress("enter"),
		action.Hotkey("ctrl", "s"),
		action.ScreenshotCheckpoint("0_000O.png"),
		action.AssertProperty("SaveButton", "name", "Save"),
	}}
}

func TestValidScriptPasses(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "ok.json", validScript())

	res := New(nil).Validate(path)
	if !res.IsValid() {
		t.Errorf("Errors = %v, want none", res.Errors)
	}
	if len(res.Files) != 1 {
		t.Errorf("Files = %v, want one entry", res.Files)
	}
}

func TestActionProblems(t *testing.T) {
	tests := []struct {
		name    string
		act     action.Action
		wantMsg string
	}{
		{"unknown type", action.Action{Type: "teleport"}, "unknown action type"},
		{"negative delay", action.Click(1, 1, "left").WithDelay(-1), "negative delay"},
		{"click without pos", action.Action{Type: action.TypeClick}, "missing coordinates"},
		{"scroll without pos", action.Action{Type: action.TypeScroll}, "missing coordinates"},
		{"short drag", action.Drag([]action.Point{{X: 1, Y: 1}}, "left"), "at least 2 points"},
		{"key without key", action.Action{Type: action.TypeKey}, "missing key"},
		{"hotkey without keys", action.Action{Type: action.TypeHotkey}, "missing keys"},
		{"type without text", action.Action{Type: action.TypeText}, "missing text"},
		{"screenshot without name", action.Action{Type: action.TypeScreenshot}, "missing baseline image name"},
		{"assert without id", action.Action{Type: action.TypeAssertProperty, Property: "name"}, "missing automation id"},
		{"assert without property", action.Action{Type: action.TypeAssertProperty, AutoID: "X"}, "missing property name"},
		{"bad compare mode", func() action.Action {
			a := action.AssertProperty("X", "name", "v")
			a.Compare = "fuzzy"
			return a
		}(), `unknown compare mode "fuzzy"`},
		{"open without path", action.Action{Type: action.TypeExplorerOpen}, "missing path"},
		{"select without items", action.Action{Type: action.TypeExplorerSelect, Explorer: &action.ExplorerPayload{}}, "missing items"},
	}
	v := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.checkAction(tt.act)
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.wantMsg) {
					found = true
				}
			}
			if !found {
				t.Errorf("checkAction errors = %v, want one containing %q", errs, tt.wantMsg)
			}
		})
	}
}

func TestManifestIDCheck(t *testing.T) {
	manifest := locator.Normalize(map[string]map[string]locator.Entry{
		"login": {"save": {AutomationID: "SaveButton"}},
	})
	v := New(manifest)

	if errs := v.checkAction(action.AssertProperty("SaveButton", "name", "Save")); len(errs) != 0 {
		t.Errorf("known id flagged: %v", errs)
	}
	errs := v.checkAction(action.AssertProperty("Ghost", "name", "x"))
	if len(errs) != 1 || !strings.Contains(errs[0], `"Ghost" not in manifest`) {
		t.Errorf("unknown id errors = %v", errs)
	}
	// Generic container ids never hit the manifest check.
	click := action.Click(1, 1, "left")
	click.AutoID = "pane"
	if errs := v.checkAction(click); len(errs) != 0 {
		t.Errorf("generic id flagged: %v", errs)
	}
}

func TestEmptyManifestSkipsIDCheck(t *testing.T) {
	v := New(locator.Normalize(nil))
	click := action.Click(1, 1, "left")
	click.AutoID = "Anything"
	if errs := v.checkAction(click); len(errs) != 0 {
		t.Errorf("Errors = %v, want none with empty manifest", errs)
	}
}

func TestCorruptFileReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := New(nil).Validate(path)
	if res.IsValid() {
		t.Fatal("corrupt file passed validation")
	}
	if !strings.Contains(res.Errors[0].Error(), "parse error") {
		t.Errorf("error = %v, want parse error", res.Errors[0])
	}
}

func TestDirectoryWalk(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.json", validScript())
	writeScript(t, dir, "sub/b.json", &action.Script{Actions: []action.Action{
		{Type: action.TypeKey}, // missing key
	}})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := New(nil).Validate(dir)
	if len(res.Files) != 2 {
		t.Errorf("Files = %v, want both json scripts", res.Files)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Error(), "missing key") {
		t.Errorf("Errors = %v", res.Errors)
	}
}

func TestMissingPathReported(t *testing.T) {
	res := New(nil).Validate(filepath.Join(t.TempDir(), "absent"))
	if res.IsValid() {
		t.Error("missing path passed validation")
	}
}
