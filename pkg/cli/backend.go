package cli

import (
	"fmt"
	"image/color"

	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/backend/mock"
	"github.com/devicelab-dev/replay-runner/pkg/recorder"
)

// bundle groups the platform services one backend provides.
type bundle struct {
	capability backend.Capability
	attach     backend.SessionFactory
	synth      backend.Synthesizer
	capturer   backend.Capturer
	fm         backend.FileManager
	source     recorder.EventSource
}

// newBundle selects a backend by name. Native backends register per
// platform; the in-memory mock is always available and useful for
// pipeline smoke tests.
func newBundle(name string) (*bundle, error) {
	switch name {
	case "mock":
		sess := mock.NewSession()
		return &bundle{
			capability: backend.Capability{Available: true, Kind: backend.BackendDirectTree},
			attach:     func(backend.WindowSpec) (backend.Session, error) { return sess, nil },
			synth:      mock.NewSynthesizer(),
			capturer:   mock.NewCapturer(1920, 1080, color.RGBA{A: 255}),
			fm:         mock.NewFileManager(),
			source:     recorder.NewChanSource(64),
		}, nil
	default:
		return nil, fmt.Errorf("backend %q is not available on this platform", name)
	}
}
