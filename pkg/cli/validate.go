package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/replay-runner/pkg/validator"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Check scripts for structural problems without replaying them",
	ArgsUsage: "[PATH]",
	Action:    runValidate,
}

func runValidate(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	path := env.cfg.Resolve(env.cfg.ScriptsDir)
	if c.NArg() > 0 {
		path = c.Args().First()
	}

	v := validator.New(env.manifest)
	result := v.Validate(path)

	for _, e := range result.Errors {
		fmt.Println(e)
	}
	fmt.Printf("%d file(s) checked, %d error(s)\n", len(result.Files), len(result.Errors))
	if !result.IsValid() {
		return fmt.Errorf("validation failed")
	}
	return nil
}
