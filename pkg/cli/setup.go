package cli

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/config"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
	"github.com/devicelab-dev/replay-runner/pkg/resolve"
	"github.com/devicelab-dev/replay-runner/pkg/semantic"
)

// runEnv is the shared wiring used by the play and record commands.
type runEnv struct {
	cfg      *config.Config
	bundle   *bundle
	manifest *locator.Manifest
}

func setup(c *cli.Context) (*runEnv, error) {
	if home := c.String("home"); home != "" {
		os.Setenv("REPLAY_RUNNER_HOME", home)
		config.ResetHome()
	}
	cfg, err := config.LoadFromDir(config.GetHome())
	if err != nil {
		return nil, err
	}
	if t := c.String("window-title"); t != "" {
		cfg.WindowTitle = t
	}

	logDir := cfg.Resolve(cfg.LogDir)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			if err := logger.Init(filepath.Join(logDir, "replay-runner.log")); err != nil {
				return nil, err
			}
		}
	}
	if c.Bool("verbose") {
		logger.SetLevel(logger.LevelDebug)
	}

	b, err := newBundle(c.String("backend"))
	if err != nil {
		return nil, err
	}

	manifest := locator.Normalize(nil)
	if cfg.ManifestPath != "" {
		m, err := locator.Load(cfg.Resolve(cfg.ManifestPath))
		if err != nil {
			// A broken manifest disables id checks, it never blocks a run.
			logger.Warn("manifest %s: %v", cfg.ManifestPath, err)
		} else {
			manifest = m
		}
	}
	return &runEnv{cfg: cfg, bundle: b, manifest: manifest}, nil
}

// newResolver builds the resolution chain for the configured window.
func (e *runEnv) newResolver() *resolve.Resolver {
	var screens *semantic.Registry
	if e.cfg.PreferSemantic && !e.manifest.Empty() {
		if sess, err := e.bundle.attach(e.windowSpec()); err == nil {
			screens = semantic.FromManifest(e.manifest, sess)
		}
	}
	return resolve.New(e.bundle.capability, e.bundle.attach, e.windowSpec(),
		e.manifest, screens, resolve.Options{
			Timeout:          e.cfg.WaitTimeout.Std(),
			PollInterval:     e.cfg.PollInterval.Std(),
			PreferSemantic:   e.cfg.PreferSemantic,
			UseAutomationIDs: e.cfg.UseAutomationIDs,
		})
}

func (e *runEnv) windowSpec() backend.WindowSpec {
	return backend.WindowSpec{
		TitlePattern: e.cfg.WindowTitle,
		ClassName:    e.cfg.WindowClass,
	}
}
