// Package resolve locates live UI controls for logical control references
// through an ordered strategy chain: semantic screen objects, direct
// accessibility-tree lookup, then a coordinate-fallback signal.
package resolve

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
	"github.com/devicelab-dev/replay-runner/pkg/semantic"
)

// ErrCoordinateFallback signals the caller to act on the action's recorded
// screen coordinates instead of a resolved control. It is an expected
// outcome in the playback path, not a hard failure.
var ErrCoordinateFallback = errors.New("control resolution unavailable, use recorded coordinates")

// Mode tags which strategy produced a resolution, for telemetry.
type Mode string

// Resolution modes.
const (
	ModeSemantic   Mode = "semantic"
	ModeUIA        Mode = "uia"
	ModeCoordinate Mode = "coordinate"
)

// PropertyFilter narrows a resolution to controls whose property matches.
type PropertyFilter struct {
	Property string
	Expected string
}

// Reference is a logical control identity: a stable identifier plus
// optional narrowing hints. References are resolved fresh per action; live
// UI state changes too quickly to cache results across actions.
type Reference struct {
	AutomationID string
	ControlType  string
	Filter       *PropertyFilter
}

// Resolution is a successfully located control and the strategy that won.
type Resolution struct {
	Control backend.Control
	Mode    Mode
}

// Options tune the resolver.
type Options struct {
	// Timeout bounds the direct-tree retry loop per resolution.
	Timeout time.Duration
	// PollInterval is the retry spacing inside Timeout.
	PollInterval time.Duration
	// PreferSemantic enables the screen-object strategy.
	PreferSemantic bool
	// UseAutomationIDs gates the whole chain; when false every reference
	// routes to coordinate fallback.
	UseAutomationIDs bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
	return o
}

// Resolver owns the attach-session explicitly. Invalidate drops it; the
// next resolution re-attaches through the factory.
type Resolver struct {
	capability backend.Capability
	attach     backend.SessionFactory
	spec       backend.WindowSpec
	manifest   *locator.Manifest
	screens    *semantic.Registry
	opts       Options

	mu      sync.Mutex
	session backend.Session
	logged  map[string]struct{}
}

// New creates a resolver. screens may be nil when no screen objects are
// registered.
func New(capability backend.Capability, attach backend.SessionFactory, spec backend.WindowSpec,
	manifest *locator.Manifest, screens *semantic.Registry, opts Options) *Resolver {
	return &Resolver{
		capability: capability,
		attach:     attach,
		spec:       spec,
		manifest:   manifest,
		screens:    screens,
		opts:       opts.withDefaults(),
		logged:     make(map[string]struct{}),
	}
}

// WithSession creates a resolver around an existing session, used by the
// recorder and by tests.
func WithSession(capability backend.Capability, session backend.Session,
	manifest *locator.Manifest, screens *semantic.Registry, opts Options) *Resolver {
	r := New(capability, nil, backend.WindowSpec{}, manifest, screens, opts)
	r.session = session
	return r
}

// Session returns the cached attach-session, attaching on first use.
func (r *Resolver) Session() (backend.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return r.session, nil
	}
	if r.attach == nil {
		return nil, backend.ErrBackendUnavailable
	}
	s, err := r.attach(r.spec)
	if err != nil {
		return nil, backend.ErrWindowNotFound.WithCause(err)
	}
	r.session = s
	return s, nil
}

// Invalidate drops the cached session so the next resolution re-attaches.
// Call it when the target window's identity criteria change or the session
// starts failing.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
}

// logOnce writes at most one log line per failure class per session, so a
// repeated failure cannot flood the run log.
func (r *Resolver) logOnce(class, format string, v ...interface{}) {
	r.mu.Lock()
	_, seen := r.logged[class]
	if !seen {
		r.logged[class] = struct{}{}
	}
	r.mu.Unlock()
	if !seen {
		logger.Warn(format, v...)
	}
}

// Resolve walks the strategy chain for a reference. ErrCoordinateFallback
// means no strategy applied and the caller should use recorded
// coordinates; it is returned (never panicked or raised) so one missing
// control cannot abort an otherwise-good run.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (*Resolution, error) {
	if !r.opts.UseAutomationIDs {
		return nil, ErrCoordinateFallback
	}
	if !r.capability.Available {
		r.logOnce("backend_unavailable", "resolution disabled: %s (%s)",
			backend.ErrBackendUnavailable.Message, r.capability.Hint)
		return nil, ErrCoordinateFallback
	}
	// Generic and unknown identifiers never reach strategies 1-2; resolving
	// an anonymous container id would act on the wrong element with full
	// confidence.
	if locator.IsGenericID(ref.AutomationID) {
		return nil, ErrCoordinateFallback
	}
	if !r.manifest.Empty() && !r.manifest.Contains(ref.AutomationID) {
		r.logOnce("not_in_manifest:"+ref.AutomationID,
			"automation id %q not present in manifest, using coordinates", ref.AutomationID)
		return nil, ErrCoordinateFallback
	}

	// First candidate that failed its filter, kept as a last resort: the
	// caller can still act and let a later assertion catch the mismatch
	// rather than stalling the run. Deliberate policy, not an oversight.
	var lastResort *Resolution

	if res, keep := r.resolveSemantic(ctx, ref); res != nil {
		if keep {
			return res, nil
		}
		lastResort = res
	}

	if res, keep, err := r.resolveDirect(ctx, ref); err == nil && res != nil {
		if keep {
			return res, nil
		}
		if lastResort == nil {
			lastResort = res
		}
	}

	if lastResort != nil {
		return lastResort, nil
	}
	r.logOnce("control_not_found:"+ref.AutomationID,
		"control %q not found by any strategy, using coordinates", ref.AutomationID)
	return nil, ErrCoordinateFallback
}

// resolveSemantic tries the screen object registered for the reference's
// manifest group. keep=false marks a candidate that failed its filter.
func (r *Resolver) resolveSemantic(ctx context.Context, ref Reference) (*Resolution, bool) {
	if !r.opts.PreferSemantic || r.screens == nil {
		return nil, false
	}
	gn, ok := r.manifest.Locate(ref.AutomationID)
	if !ok {
		return nil, false
	}
	screen, ok := r.screens.ForGroup(gn.Group)
	if !ok {
		return nil, false
	}
	ctrl, bound, err := screen.ControlByID(ctx, ref.AutomationID)
	if !bound || err != nil || ctrl == nil {
		return nil, false
	}
	res := &Resolution{Control: ctrl, Mode: ModeSemantic}
	return res, r.filterMatches(ctrl, ref.Filter)
}

// resolveDirect queries the accessibility tree, retrying on a bounded
// interval until the deadline because the tree may not yet reflect a
// just-triggered UI transition.
func (r *Resolver) resolveDirect(ctx context.Context, ref Reference) (*Resolution, bool, error) {
	session, err := r.Session()
	if err != nil {
		r.logOnce("attach_failed", "cannot attach to target window: %v (%s)", err, r.capability.Hint)
		return nil, false, err
	}
	deadline := time.Now().Add(r.opts.Timeout)
	q := backend.Query{AutomationID: ref.AutomationID, ControlType: ref.ControlType}
	for {
		ctrl, err := session.FindControl(ctx, q)
		if err == nil && ctrl != nil {
			res := &Resolution{Control: ctrl, Mode: ModeUIA}
			return res, r.filterMatches(ctrl, ref.Filter), nil
		}
		if err != nil && !errors.Is(err, backend.ErrControlNotFound) {
			// Session-level failure: drop it so the next resolution
			// re-attaches instead of failing the same way forever.
			r.Invalidate()
			r.logOnce("session_error", "accessibility session failed: %v", err)
			return nil, false, err
		}
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		if !time.Now().Add(r.opts.PollInterval).Before(deadline) {
			return nil, false, nil
		}
		time.Sleep(r.opts.PollInterval)
	}
}

func (r *Resolver) filterMatches(ctrl backend.Control, f *PropertyFilter) bool {
	if f == nil {
		return true
	}
	kind := backend.ParsePropertyKind(f.Property)
	actual, err := ctrl.Property(kind, f.Property)
	if err != nil {
		return false
	}
	return actual == f.Expected
}

// WaitForProperty polls a control until its filter matches or the timeout
// expires, checking ctx between polls so cancellation latency stays
// bounded.
func WaitForProperty(ctx context.Context, ctrl backend.Control, f *PropertyFilter,
	timeout, poll time.Duration) error {
	if f == nil {
		return nil
	}
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	kind := backend.ParsePropertyKind(f.Property)
	for {
		actual, err := ctrl.Property(kind, f.Property)
		if err == nil && actual == f.Expected {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !time.Now().Before(deadline) {
			return backend.ErrWaitTimeout
		}
		time.Sleep(poll)
	}
}
