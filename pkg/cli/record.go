package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/replay-runner/pkg/recorder"
)

var recordCommand = &cli.Command{
	Name:      "record",
	Usage:     "Record a new interaction script",
	ArgsUsage: "SCRIPT_NAME",
	Description: `Records pointer and keyboard input into a replayable script. Press the
screenshot key (default "p") to capture a baseline checkpoint and the
stop key (default "f") to finish.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "screenshot-key",
			Usage: "Key that captures a baseline screenshot",
			Value: "p",
		},
		&cli.StringFlag{
			Name:  "stop-key",
			Usage: "Key that stops the recording",
			Value: "f",
		},
	},
	Action: runRecord,
}

func runRecord(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("record needs exactly one script name")
	}
	name := c.Args().First()

	env, err := setup(c)
	if err != nil {
		return err
	}
	sess, err := env.bundle.attach(env.windowSpec())
	if err != nil {
		sess = nil // recording still works, just without control identification
	}

	rec := recorder.New(recorder.Config{
		ScriptsDir:       env.cfg.Resolve(env.cfg.ScriptsDir),
		ImagesDir:        env.cfg.Resolve(env.cfg.ImagesDir),
		ScreenshotKey:    c.String("screenshot-key"),
		StopKey:          c.String("stop-key"),
		UseAutomationIDs: env.cfg.UseAutomationIDs,
		TaskbarCropPx:    env.cfg.TaskbarCropPx,
	}, env.bundle.source, sess, env.bundle.synth, env.bundle.capturer, env.bundle.fm)

	rec.Start(name)
	fmt.Printf("recording %s; press %q for a screenshot, %q to stop\n",
		name, c.String("screenshot-key"), c.String("stop-key"))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	select {
	case <-rec.Done():
	case <-sigs:
	}

	script, err := rec.Stop()
	if err != nil {
		return err
	}
	fmt.Printf("saved %s (%d actions)\n", script.Name, len(script.Actions))
	return nil
}
