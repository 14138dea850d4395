package action

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClickJSONRoundTrip(t *testing.T) {
	a := Click(100, 200, "left").WithDelay(0.25)
	a.AutoID = "SaveButton"

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Action
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	x, y, ok := back.Pos()
	if !ok || x != 100 || y != 200 {
		t.Errorf("Pos() = (%d,%d,%v), want (100,200,true)", x, y, ok)
	}
	if back.Type != TypeClick || back.Button != "left" || back.AutoID != "SaveButton" {
		t.Errorf("round trip lost fields: %+v", back)
	}
	if back.Delay != 0.25 {
		t.Errorf("Delay = %v, want 0.25", back.Delay)
	}
}

func TestActionJSONCompact(t *testing.T) {
	data, err := json.Marshal(KeyPress("enter"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"x", "y", "path", "text", "expected"} {
		if strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("key action serialized unused field %q: %s", field, data)
		}
	}
}

func TestPosZeroIsValid(t *testing.T) {
	a := Click(0, 0, "left")
	if x, y, ok := a.Pos(); !ok || x != 0 || y != 0 {
		t.Errorf("Pos() = (%d,%d,%v), want (0,0,true)", x, y, ok)
	}

	var bare Action
	if _, _, ok := bare.Pos(); ok {
		t.Error("Pos() on action without coordinates should not be ok")
	}
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Point{X: 3, Y: 7})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[3,7]" {
		t.Errorf("point JSON = %s, want [3,7]", data)
	}

	var p Point
	if err := json.Unmarshal([]byte("[10,20]"), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.X != 10 || p.Y != 20 {
		t.Errorf("point = %+v, want {10 20}", p)
	}
	if err := json.Unmarshal([]byte("[1,2,3]"), &p); err == nil {
		t.Error("expected error for 3-element point")
	}
}

func TestDownsamplePath(t *testing.T) {
	path := make([]Point, 1000)
	for i := range path {
		path[i] = Point{X: i, Y: i * 2}
	}

	out := DownsamplePath(path, 120)
	if len(out) > 121 {
		t.Errorf("len = %d, want <= 121", len(out))
	}
	if out[0] != path[0] {
		t.Errorf("first point = %+v, want %+v", out[0], path[0])
	}
	if out[len(out)-1] != path[len(path)-1] {
		t.Errorf("last point = %+v, want %+v", out[len(out)-1], path[len(path)-1])
	}

	short := []Point{{1, 1}, {2, 2}}
	if got := DownsamplePath(short, 120); len(got) != 2 {
		t.Errorf("short path resampled to %d points", len(got))
	}
}

func TestPathDistance(t *testing.T) {
	tests := []struct {
		name string
		path []Point
		want int
	}{
		{"empty", nil, 0},
		{"single", []Point{{5, 5}}, 0},
		{"straight", []Point{{0, 0}, {3, 0}}, 3},
		{"diagonal", []Point{{0, 0}, {3, 4}}, 7},
		{"back and forth", []Point{{0, 0}, {2, 0}, {0, 0}}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PathDistance(tt.path); got != tt.want {
				t.Errorf("PathDistance = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestImageName(t *testing.T) {
	tests := []struct {
		group, shot int
		kind        ImageKind
		want        string
	}{
		{0, 3, KindOriginal, "0_003O.png"},
		{0, 3, KindTest, "0_003T.png"},
		{1, 42, KindDiff, "1_042D.png"},
		{2, 999, KindHighlight, "2_999H.png"},
		{-1, -1, "", "0_000O.png"},
	}
	for _, tt := range tests {
		if got := ImageName(tt.group, tt.shot, tt.kind); got != tt.want {
			t.Errorf("ImageName(%d,%d,%s) = %q, want %q", tt.group, tt.shot, tt.kind, got, tt.want)
		}
	}
}

func TestEvidenceName(t *testing.T) {
	tests := []struct {
		in   string
		kind ImageKind
		want string
	}{
		{"0_003T.png", KindDiff, "0_003D.png"},
		{"0_003O.png", KindDiff, "0_003D.png"},
		{"0_003T.png", KindHighlight, "0_003H.png"},
		{"custom.png", KindDiff, "custom_D.png"},
		{"custom.png", KindHighlight, "custom_H.png"},
	}
	for _, tt := range tests {
		if got := EvidenceName(tt.in, tt.kind); got != tt.want {
			t.Errorf("EvidenceName(%q,%s) = %q, want %q", tt.in, tt.kind, got, tt.want)
		}
	}
}

func TestSplitHierarchy(t *testing.T) {
	tests := []struct {
		name                     string
		procedure, section, test string
	}{
		{"login/smoke/1.2.3_signin", "login", "smoke", "1.2.3_signin"},
		{"smoke/quick", "", "smoke", "quick"},
		{"solo", "", "", "solo"},
	}
	for _, tt := range tests {
		p, s, test := SplitHierarchy(tt.name)
		if p != tt.procedure || s != tt.section || test != tt.test {
			t.Errorf("SplitHierarchy(%q) = (%q,%q,%q), want (%q,%q,%q)",
				tt.name, p, s, test, tt.procedure, tt.section, tt.test)
		}
	}
}

func TestDottedCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.2.3_signin", "1.2.3"},
		{"12_login", "12"},
		{"signin", "signin"},
		{"", "test"},
		{"***", "test"},
	}
	for _, tt := range tests {
		if got := DottedCode(tt.in); got != tt.want {
			t.Errorf("DottedCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScriptSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s := &Script{
		Name: "suite/section/test",
		Actions: []Action{
			Click(10, 20, "left").WithDelay(0.5),
			TypeInput("hello"),
			ScreenshotCheckpoint("0_000O.png"),
		},
	}
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := ScriptPath(dir, "suite/section/test", false)
	loaded, err := LoadScript(path, "suite/section/test")
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if len(loaded.Actions) != 3 {
		t.Fatalf("len(Actions) = %d, want 3", len(loaded.Actions))
	}
	if loaded.Actions[1].Text != "hello" {
		t.Errorf("Text = %q, want %q", loaded.Actions[1].Text, "hello")
	}
}

func TestLoadScriptCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScript(path, "bad"); err == nil {
		t.Error("expected error for corrupt script")
	}
	if _, err := LoadScript(filepath.Join(dir, "missing.json"), "missing"); err == nil {
		t.Error("expected error for missing script")
	}
}

func TestScriptPathPrefersSemantic(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "a.semantic.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if got := ScriptPath(dir, "a", true); filepath.Base(got) != "a.semantic.json" {
		t.Errorf("preferSemantic path = %q, want a.semantic.json", got)
	}
	if got := ScriptPath(dir, "a", false); filepath.Base(got) != "a.json" {
		t.Errorf("plain path = %q, want a.json", got)
	}
	// No semantic variant recorded: fall back to the plain file.
	if got := ScriptPath(dir, "b", true); filepath.Base(got) != "b.json" {
		t.Errorf("fallback path = %q, want b.json", got)
	}
}
