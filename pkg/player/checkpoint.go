package player

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/imgdiff"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
	"github.com/devicelab-dev/replay-runner/pkg/report"
	"github.com/devicelab-dev/replay-runner/pkg/resolve"
)

// playScreenshot captures the screen, compares it against the recorded
// baseline for the same checkpoint index, and writes diff evidence next
// to the images.
func (p *Player) playScreenshot(st *runState) {
	idx := st.shotIdx
	st.shotIdx++

	if !p.config.UseScreenshots {
		logger.Debug("screenshot checkpoint %d skipped: screenshots disabled", idx)
		return
	}

	res := report.CheckpointResult{
		Kind:      report.KindScreenshot,
		Index:     idx,
		Timestamp: time.Now(),
	}

	img, err := p.captureCropped()
	if err != nil {
		res.Status = report.StatusFail
		res.Note = "capture failed: " + err.Error()
		st.run.Results = append(st.run.Results, res)
		logger.Warn("screenshot checkpoint %d: capture failed: %v", idx, err)
		return
	}

	dir := filepath.Join(p.config.ImagesDir, st.run.Script)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Status = report.StatusFail
		res.Note = "image dir: " + err.Error()
		st.run.Results = append(st.run.Results, res)
		return
	}

	testName := action.ImageName(0, idx, action.KindTest)
	testPath := filepath.Join(dir, testName)
	if err := imgdiff.SavePNG(testPath, img); err != nil {
		res.Status = report.StatusFail
		res.Note = "save failed: " + err.Error()
		st.run.Results = append(st.run.Results, res)
		return
	}
	res.Candidate = testName

	origName := action.ImageName(0, idx, action.KindOriginal)
	origPath := filepath.Join(dir, origName)
	baseline, err := imgdiff.LoadPNG(origPath)
	if err != nil {
		// No recorded baseline for this index: the checkpoint cannot
		// validate anything, which is itself a failure.
		res.Status = report.StatusFail
		res.DiffPercent = 100
		res.Note = "baseline missing: " + origName
		st.run.Results = append(st.run.Results, res)
		logger.Warn("screenshot checkpoint %d: baseline %s missing", idx, origName)
		return
	}
	res.Baseline = origName

	cmp := imgdiff.Compare(baseline, img, imgdiff.Options{
		TolerancePercent: p.config.DiffTolerancePercent,
		SSIM:             p.config.SSIM,
		SSIMThreshold:    p.config.SSIMThreshold,
		PadPixels:        3,
	})
	res.DiffPercent = cmp.DiffPercent
	if cmp.SSIMApplied {
		score := cmp.SSIMScore
		res.SSIMScore = &score
	}

	diffName := action.EvidenceName(testName, action.KindDiff)
	if err := cmp.WriteDiff(filepath.Join(dir, diffName)); err != nil {
		logger.Warn("screenshot checkpoint %d: diff image: %v", idx, err)
	} else {
		res.DiffImage = diffName
	}
	hiName := action.EvidenceName(testName, action.KindHighlight)
	if written, err := cmp.WriteHighlight(filepath.Join(dir, hiName)); err != nil {
		logger.Warn("screenshot checkpoint %d: highlight image: %v", idx, err)
	} else if written {
		res.HighlightImage = hiName
	}

	if cmp.Passed {
		res.Status = report.StatusPass
	} else {
		res.Status = report.StatusFail
		res.Note = "difference above tolerance"
	}
	st.run.Results = append(st.run.Results, res)
	logger.Info("screenshot checkpoint %d: %s (%.4f%% differ)", idx, res.Status, cmp.DiffPercent)
}

// captureCropped parks the pointer out of frame, grabs the screen minus
// the taskbar band, and restores the pointer.
func (p *Player) captureCropped() (image.Image, error) {
	w, h := p.capturer.Bounds()
	px, py, posErr := p.synth.Position()
	if err := p.synth.MoveTo(w-5, h-5); err != nil {
		logger.Debug("pointer park failed: %v", err)
	}
	img, err := p.capturer.Capture()
	if posErr == nil {
		if mvErr := p.synth.MoveTo(px, py); mvErr != nil {
			logger.Debug("pointer restore failed: %v", mvErr)
		}
	}
	if err != nil {
		return nil, err
	}
	return cropBottom(img, p.config.TaskbarCropPx), nil
}

// cropBottom removes px rows from the bottom of the image.
func cropBottom(img image.Image, px int) image.Image {
	b := img.Bounds()
	h := b.Dy() - px
	if px <= 0 || h <= 0 {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), h))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

// playAssert resolves the target control and compares the named property
// against the expected value. A control that cannot be resolved fails the
// assertion; a disabled resolution chain skips it without a verdict.
func (p *Player) playAssert(ctx context.Context, a action.Action, st *runState) {
	if a.AutoID == "" {
		logger.Warn("assert.property without automation id, skipped")
		return
	}
	if !p.config.PreferSemantic || !p.config.UseAutomationIDs {
		logger.Debug("assertion on %q skipped: id resolution disabled", a.AutoID)
		return
	}
	if !p.capability.Available {
		logger.Debug("assertion on %q skipped: %s", a.AutoID, p.capability.Hint)
		return
	}

	res := report.CheckpointResult{
		Kind:      report.KindAssertion,
		Index:     len(st.run.Results),
		Label:     "assert:" + a.AutoID,
		Timestamp: time.Now(),
		AutoID:    a.AutoID,
		Property:  a.Property,
		Expected:  a.Expected,
	}

	resolution, err := p.resolver.Resolve(ctx, resolve.Reference{
		AutomationID: a.AutoID,
		ControlType:  a.ControlType,
	})
	if err != nil {
		res.Status = report.StatusFail
		if errors.Is(err, resolve.ErrCoordinateFallback) {
			res.Note = "control not found"
		} else {
			res.Note = err.Error()
		}
		st.run.Results = append(st.run.Results, res)
		logger.Warn("assertion on %q failed: %s", a.AutoID, res.Note)
		return
	}

	kind := backend.ParsePropertyKind(a.Property)
	actual, err := resolution.Control.Property(kind, a.Property)
	if err != nil {
		res.Status = report.StatusFail
		res.Note = "property read failed: " + err.Error()
		st.run.Results = append(st.run.Results, res)
		logger.Warn("assertion on %q: property %q read failed: %v", a.AutoID, a.Property, err)
		return
	}
	res.Actual = actual

	if assertionHolds(actual, a.Expected, a.Compare) {
		res.Status = report.StatusPass
	} else {
		res.Status = report.StatusFail
		res.Note = "value mismatch"
		logger.Warn("assertion on %q: %s = %q, want %q (%s)",
			a.AutoID, a.Property, actual, a.Expected, compareMode(a.Compare))
	}
	st.run.Results = append(st.run.Results, res)
}

func compareMode(mode string) string {
	if mode == "" {
		return "equals"
	}
	return mode
}

func assertionHolds(actual, expected, mode string) bool {
	switch compareMode(mode) {
	case "contains":
		return strings.Contains(actual, expected)
	default:
		return actual == expected
	}
}
