package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/explorer"
	"github.com/devicelab-dev/replay-runner/pkg/player"
	"github.com/devicelab-dev/replay-runner/pkg/report"
	"github.com/devicelab-dev/replay-runner/pkg/scripting"
)

var playCommand = &cli.Command{
	Name:      "play",
	Usage:     "Replay recorded scripts and validate checkpoints",
	ArgsUsage: "SCRIPT [SCRIPT...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Play every script in the scripts directory",
		},
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Script variable NAME=value (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "no-screenshots",
			Usage: "Skip screenshot checkpoints",
		},
	},
	Action: runPlay,
}

func runPlay(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}

	names := c.Args().Slice()
	if c.Bool("all") {
		names, err = listScripts(env.cfg.Resolve(env.cfg.ScriptsDir))
		if err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no scripts given (pass names or --all)")
	}

	engine := scripting.New()
	engine.ImportSystemEnv()
	engine.SetVariables(env.cfg.Env)
	for _, kv := range c.StringSlice("env") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			engine.SetVariable(parts[0], parts[1])
		}
	}

	cfg := player.Config{
		ScriptsDir:            env.cfg.Resolve(env.cfg.ScriptsDir),
		ImagesDir:             env.cfg.Resolve(env.cfg.ImagesDir),
		ResultsDir:            env.cfg.Resolve(env.cfg.ResultsDir),
		TaskbarCropPx:         env.cfg.TaskbarCropPx,
		DefaultDelay:          env.cfg.DefaultDelay.Std(),
		UseDefaultDelayAlways: env.cfg.UseDefaultDelayAlways,
		UseAutomationIDs:      env.cfg.UseAutomationIDs,
		UseScreenshots:        env.cfg.UseScreenshots && !c.Bool("no-screenshots"),
		PreferSemantic:        env.cfg.PreferSemantic,
		DiffTolerancePercent:  env.cfg.DiffTolerancePercent,
		SSIM:                  env.cfg.SSIM,
		SSIMThreshold:         env.cfg.SSIMThreshold,
		WaitTimeout:           env.cfg.WaitTimeout.Std(),
		PollInterval:          env.cfg.PollInterval.Std(),
	}
	p := player.New(cfg, env.bundle.capability, env.newResolver(),
		env.bundle.synth, env.bundle.capturer, explorer.New(env.bundle.fm))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr, "stopping...")
		p.RequestStop()
	}()

	flake := report.NewFlakeTracker(filepath.Join(cfg.ResultsDir, "flaky.json"))

	failed := 0
	for _, name := range names {
		path := action.ScriptPath(cfg.ScriptsDir, name, env.cfg.PreferSemantic)
		script, err := action.LoadScript(path, name)
		if err != nil {
			return err
		}
		script = engine.ExpandScript(script)

		run, err := p.Play(script)
		if err != nil {
			return err
		}
		if _, err := report.Write(cfg.ResultsDir, run); err != nil {
			return err
		}
		if err := flake.RecordRun(run); err != nil {
			fmt.Fprintf(os.Stderr, "flake stats: %v\n", err)
		}
		printSummary(run)
		if run.Summary.Status == report.StatusFail {
			failed++
		}
		if run.Cancelled {
			break
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d script(s) failed", failed)
	}
	return nil
}

func printSummary(run *report.RunResult) {
	fmt.Printf("%s  %s  (%d screenshots, %d assertions, %s)\n",
		strings.ToUpper(string(run.Summary.Status)), run.Script,
		run.Summary.Screenshots, run.Summary.Assertions,
		run.Duration.Round(10*time.Millisecond))
	for _, c := range run.Failed() {
		label := c.Label
		if label == "" {
			label = fmt.Sprintf("screenshot %d", c.Index)
		}
		fmt.Printf("  FAIL %s: %s\n", label, c.Note)
	}
}

// listScripts returns the hierarchical names of every script in dir.
func listScripts(dir string) ([]string, error) {
	var names []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		base := filepath.Base(path)
		if !strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".semantic.json") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, ".json")))
		return nil
	})
	return names, err
}
