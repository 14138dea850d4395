// Package explorer replays file-manager actions (explorer.open,
// explorer.select) through the backend's FileManager collaborator.
package explorer

import (
	"fmt"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
)

// Controller dispatches explorer.* actions. A nil FileManager downgrades
// every action to a logged skip, matching the graceful-degradation rule
// for missing collaborators.
type Controller struct {
	fm backend.FileManager
}

// New creates a controller. fm may be nil.
func New(fm backend.FileManager) *Controller {
	return &Controller{fm: fm}
}

// Available reports whether a file manager is wired.
func (c *Controller) Available() bool {
	return c != nil && c.fm != nil
}

// Handle executes one explorer action. Failures are returned, not raised;
// the player records them without aborting the run.
func (c *Controller) Handle(a action.Action) error {
	if !c.Available() {
		logger.Info("file manager unavailable, skipping %s", a.Type)
		return nil
	}
	payload := a.Explorer
	if payload == nil {
		payload = &action.ExplorerPayload{}
	}
	switch a.Type {
	case action.TypeExplorerOpen:
		if payload.Path == "" {
			return fmt.Errorf("explorer.open without a path")
		}
		logger.Info("explorer: open %s", payload.Path)
		return c.fm.Open(payload.Path)
	case action.TypeExplorerSelect:
		logger.Info("explorer: select %v in %s", payload.Items, payload.Path)
		return c.fm.Select(payload.Path, payload.Items)
	default:
		return fmt.Errorf("unsupported explorer action %q", a.Type)
	}
}
