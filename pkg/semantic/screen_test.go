package semantic

import (
	"context"
	"testing"

	"github.com/devicelab-dev/replay-runner/pkg/backend/mock"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
)

func loginManifest() *locator.Manifest {
	return locator.Normalize(map[string]map[string]locator.Entry{
		"login": {
			"user": {AutomationID: "UserField", ControlType: "Edit"},
			"save": {AutomationID: "SaveButton", ControlType: "Button"},
		},
		"settings": {
			"theme": {AutomationID: "ThemeCombo"},
		},
	})
}

func TestScreenBindAndResolve(t *testing.T) {
	sess := mock.NewSession().
		AddControl(mock.NewControl("UserField", "alice")).
		AddControl(mock.NewControl("SaveButton", "Save"))

	s := NewScreen("login", sess)
	if err := s.Bind(loginManifest(), "user", ""); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	ctrl, err := s.Control(context.Background(), "user")
	if err != nil {
		t.Fatalf("Control: %v", err)
	}
	if ctrl == nil {
		t.Fatal("Control is nil")
	}

	if _, err := s.Control(context.Background(), "save"); err == nil {
		t.Error("unbound name should error")
	}
}

func TestBindUnknownName(t *testing.T) {
	s := NewScreen("login", mock.NewSession())
	if err := s.Bind(loginManifest(), "nope", ""); err == nil {
		t.Error("Bind of unknown name should fail")
	}
}

func TestControlByID(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SaveButton", "Save"))
	s := NewScreen("login", sess)
	s.BindAll(loginManifest())

	ctrl, bound, err := s.ControlByID(context.Background(), "SaveButton")
	if !bound || err != nil || ctrl == nil {
		t.Errorf("ControlByID = (%v, %v, %v), want bound control", ctrl, bound, err)
	}

	// Unbound id: fall through, no error.
	_, bound, err = s.ControlByID(context.Background(), "Elsewhere")
	if bound || err != nil {
		t.Errorf("ControlByID(Elsewhere) = bound=%v err=%v, want unbound", bound, err)
	}
}

func TestFromManifest(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("ThemeCombo", "dark"))
	reg := FromManifest(loginManifest(), sess)

	for _, group := range []string{"login", "settings"} {
		if _, ok := reg.ForGroup(group); !ok {
			t.Errorf("ForGroup(%q) missing", group)
		}
	}
	if _, ok := reg.ForGroup("nope"); ok {
		t.Error("ForGroup of unknown group should fail")
	}

	s, _ := reg.ForGroup("settings")
	ctrl, bound, err := s.ControlByID(context.Background(), "ThemeCombo")
	if !bound || err != nil || ctrl == nil {
		t.Errorf("ControlByID via FromManifest = (%v, %v, %v)", ctrl, bound, err)
	}
}

func TestRegistryNil(t *testing.T) {
	var reg *Registry
	if _, ok := reg.ForGroup("login"); ok {
		t.Error("nil registry should have no screens")
	}
}
