package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/backend/mock"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
	"github.com/devicelab-dev/replay-runner/pkg/semantic"
)

var available = backend.Capability{Available: true, Kind: backend.BackendDirectTree}

func fastOpts() Options {
	return Options{
		Timeout:          100 * time.Millisecond,
		PollInterval:     5 * time.Millisecond,
		PreferSemantic:   true,
		UseAutomationIDs: true,
	}
}

func manifestWith(ids ...string) *locator.Manifest {
	entries := map[string]locator.Entry{}
	for _, id := range ids {
		entries[id] = locator.Entry{AutomationID: id}
	}
	return locator.Normalize(map[string]map[string]locator.Entry{"main": entries})
}

func TestResolveDirect(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SaveButton", "Save"))
	r := WithSession(available, sess, manifestWith("SaveButton"), nil, fastOpts())

	res, err := r.Resolve(context.Background(), Reference{AutomationID: "SaveButton"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != ModeUIA {
		t.Errorf("Mode = %s, want %s", res.Mode, ModeUIA)
	}
	if res.Control == nil {
		t.Fatal("Control is nil")
	}
}

func TestResolveSemanticWins(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SaveButton", "Save"))
	manifest := manifestWith("SaveButton")
	screens := semantic.FromManifest(manifest, sess)
	r := WithSession(available, sess, manifest, screens, fastOpts())

	res, err := r.Resolve(context.Background(), Reference{AutomationID: "SaveButton"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != ModeSemantic {
		t.Errorf("Mode = %s, want %s", res.Mode, ModeSemantic)
	}
}

func TestResolveSemanticDisabled(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SaveButton", "Save"))
	manifest := manifestWith("SaveButton")
	screens := semantic.FromManifest(manifest, sess)
	opts := fastOpts()
	opts.PreferSemantic = false
	r := WithSession(available, sess, manifest, screens, opts)

	res, err := r.Resolve(context.Background(), Reference{AutomationID: "SaveButton"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != ModeUIA {
		t.Errorf("Mode = %s, want %s when semantic is disabled", res.Mode, ModeUIA)
	}
}

func TestResolveGenericIDFallsBack(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("window", "x"))
	r := WithSession(available, sess, manifestWith("SaveButton"), nil, fastOpts())

	for _, id := range []string{"", "window", "pane", "MainWindowControl"} {
		_, err := r.Resolve(context.Background(), Reference{AutomationID: id})
		if !errors.Is(err, ErrCoordinateFallback) {
			t.Errorf("Resolve(%q) err = %v, want ErrCoordinateFallback", id, err)
		}
	}
	// Generic ids must short-circuit before touching the tree.
	if calls := sess.FindCalls("window"); calls != 0 {
		t.Errorf("FindCalls(window) = %d, want 0", calls)
	}
}

func TestResolveNotInManifestFallsBack(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("Rogue", "x"))
	r := WithSession(available, sess, manifestWith("SaveButton"), nil, fastOpts())

	_, err := r.Resolve(context.Background(), Reference{AutomationID: "Rogue"})
	if !errors.Is(err, ErrCoordinateFallback) {
		t.Errorf("err = %v, want ErrCoordinateFallback", err)
	}
	if calls := sess.FindCalls("Rogue"); calls != 0 {
		t.Errorf("FindCalls(Rogue) = %d, want 0 for unmanifested id", calls)
	}
}

func TestResolveEmptyManifestAllowsAnyID(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("Anything", "x"))
	r := WithSession(available, sess, locator.Normalize(nil), nil, fastOpts())

	res, err := r.Resolve(context.Background(), Reference{AutomationID: "Anything"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != ModeUIA {
		t.Errorf("Mode = %s, want %s", res.Mode, ModeUIA)
	}
}

func TestResolveDisabledChain(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SaveButton", "Save"))
	opts := fastOpts()
	opts.UseAutomationIDs = false
	r := WithSession(available, sess, manifestWith("SaveButton"), nil, opts)

	_, err := r.Resolve(context.Background(), Reference{AutomationID: "SaveButton"})
	if !errors.Is(err, ErrCoordinateFallback) {
		t.Errorf("err = %v, want ErrCoordinateFallback", err)
	}
}

func TestResolveBackendUnavailable(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SaveButton", "Save"))
	unavailable := backend.Unavailable("")
	r := WithSession(unavailable, sess, manifestWith("SaveButton"), nil, fastOpts())

	_, err := r.Resolve(context.Background(), Reference{AutomationID: "SaveButton"})
	if !errors.Is(err, ErrCoordinateFallback) {
		t.Errorf("err = %v, want ErrCoordinateFallback", err)
	}
}

func TestResolveRetriesUntilVisible(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SlowDialog", "OK"))
	sess.AppearAfter["SlowDialog"] = 3
	r := WithSession(available, sess, manifestWith("SlowDialog"), nil, fastOpts())

	res, err := r.Resolve(context.Background(), Reference{AutomationID: "SlowDialog"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != ModeUIA {
		t.Errorf("Mode = %s, want %s", res.Mode, ModeUIA)
	}
	if calls := sess.FindCalls("SlowDialog"); calls < 4 {
		t.Errorf("FindCalls = %d, want at least 4 (3 misses + hit)", calls)
	}
}

func TestResolveTimesOutToFallback(t *testing.T) {
	sess := mock.NewSession()
	r := WithSession(available, sess, manifestWith("NeverThere"), nil, fastOpts())

	start := time.Now()
	_, err := r.Resolve(context.Background(), Reference{AutomationID: "NeverThere"})
	if !errors.Is(err, ErrCoordinateFallback) {
		t.Errorf("err = %v, want ErrCoordinateFallback", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("resolution took %v, want bounded by timeout", elapsed)
	}
}

func TestResolveFilterMismatchKeptAsLastResort(t *testing.T) {
	ctrl := mock.NewControl("StatusBox", "loading")
	sess := mock.NewSession().AddControl(ctrl)
	r := WithSession(available, sess, manifestWith("StatusBox"), nil, fastOpts())

	ref := Reference{
		AutomationID: "StatusBox",
		Filter:       &PropertyFilter{Property: "name", Expected: "ready"},
	}
	res, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// The only candidate failed its filter but is still returned so the
	// run can proceed and a later assertion can catch the mismatch.
	if res.Control == nil {
		t.Fatal("expected the filter-failing candidate as last resort")
	}
}

func TestResolveFilterMatch(t *testing.T) {
	ctrl := mock.NewControl("StatusBox", "ready")
	sess := mock.NewSession().AddControl(ctrl)
	r := WithSession(available, sess, manifestWith("StatusBox"), nil, fastOpts())

	ref := Reference{
		AutomationID: "StatusBox",
		Filter:       &PropertyFilter{Property: "name", Expected: "ready"},
	}
	res, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != ModeUIA {
		t.Errorf("Mode = %s, want %s", res.Mode, ModeUIA)
	}
}

func TestResolveSessionErrorInvalidates(t *testing.T) {
	sess := mock.NewSession().AddControl(mock.NewControl("SaveButton", "Save"))
	sess.FindErr = errors.New("rpc broke")
	r := WithSession(available, sess, manifestWith("SaveButton"), nil, fastOpts())

	_, err := r.Resolve(context.Background(), Reference{AutomationID: "SaveButton"})
	if !errors.Is(err, ErrCoordinateFallback) {
		t.Errorf("err = %v, want ErrCoordinateFallback", err)
	}
	if !sess.Closed() {
		t.Error("session should be invalidated after a session-level error")
	}
}

func TestResolveContextCancelled(t *testing.T) {
	sess := mock.NewSession()
	r := WithSession(available, sess, manifestWith("NeverThere"), nil, fastOpts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, Reference{AutomationID: "NeverThere"})
	// Cancelled context surfaces as fallback so a stop request never
	// aborts the run loop with a spurious error.
	if !errors.Is(err, ErrCoordinateFallback) {
		t.Errorf("err = %v, want ErrCoordinateFallback", err)
	}
}

func TestWaitForProperty(t *testing.T) {
	ctrl := mock.NewControl("Field", "ready")
	f := &PropertyFilter{Property: "name", Expected: "ready"}
	if err := WaitForProperty(context.Background(), ctrl, f, 50*time.Millisecond, 5*time.Millisecond); err != nil {
		t.Errorf("WaitForProperty = %v, want nil", err)
	}

	miss := &PropertyFilter{Property: "name", Expected: "other"}
	err := WaitForProperty(context.Background(), ctrl, miss, 30*time.Millisecond, 5*time.Millisecond)
	if !errors.Is(err, backend.ErrWaitTimeout) {
		t.Errorf("WaitForProperty = %v, want ErrWaitTimeout", err)
	}
}
