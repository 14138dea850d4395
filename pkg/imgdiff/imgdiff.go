// Package imgdiff compares screenshots against baselines: per-pixel
// difference, connected-region clustering, optional structural similarity,
// and evidence-image rendering. Given identical inputs and options the
// results are bit-for-bit reproducible.
package imgdiff

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"

	"github.com/devicelab-dev/replay-runner/pkg/logger"
)

// Options tune a comparison.
type Options struct {
	// TolerancePercent is the maximum differing-pixel percentage that
	// still passes.
	TolerancePercent float64
	// SSIM enables the perceptual gate; both gates must pass.
	SSIM          bool
	SSIMThreshold float64
	// Region clustering parameters.
	CellSize      int
	MinRegionArea int
	PadPixels     int
}

func (o Options) withDefaults() Options {
	if o.CellSize <= 0 {
		o.CellSize = 12
	}
	if o.MinRegionArea <= 0 {
		o.MinRegionArea = 60
	}
	if o.PadPixels < 0 {
		o.PadPixels = 3
	}
	return o
}

// DefaultOptions returns the standard clustering parameters with the
// given pixel tolerance.
func DefaultOptions(tolerancePercent float64) Options {
	return Options{TolerancePercent: tolerancePercent, PadPixels: 3}.withDefaults()
}

// Result is the verdict of one comparison.
type Result struct {
	Passed          bool     `json:"passed"`
	DiffPercent     float64  `json:"diffPercent"`
	DifferingPixels int      `json:"differingPixels"`
	TotalPixels     int      `json:"totalPixels"`
	Regions         []Region `json:"regions,omitempty"`
	// Resized marks that the candidate was scaled to baseline size first.
	// A size mismatch is logged but is not itself a failure; capture
	// timing variance is expected.
	Resized bool `json:"resized,omitempty"`

	SSIMApplied bool    `json:"ssimApplied,omitempty"`
	SSIMScore   float64 `json:"ssimScore,omitempty"`
	SSIMPassed  bool    `json:"ssimPassed,omitempty"`
}

// Comparison carries the result plus the masks needed to render evidence.
type Comparison struct {
	Result

	width, height int
	mask          []bool  // per-pixel: any channel differs
	maxDelta      []uint8 // per-pixel max RGB channel delta, for the D image
	baseline      *image.RGBA
}

// Compare diffs a candidate against a baseline.
func Compare(baseline, candidate image.Image, opts Options) *Comparison {
	opts = opts.withDefaults()

	base := toRGBA(baseline)
	w := base.Rect.Dx()
	h := base.Rect.Dy()

	resized := false
	if candidate.Bounds().Dx() != w || candidate.Bounds().Dy() != h {
		logger.Warn("screenshot sizes differ: baseline %dx%d vs candidate %dx%d, resizing candidate",
			w, h, candidate.Bounds().Dx(), candidate.Bounds().Dy())
		candidate = resize.Resize(uint(w), uint(h), candidate, resize.Lanczos3)
		resized = true
	}
	cand := toRGBA(candidate)

	c := &Comparison{
		width:    w,
		height:   h,
		mask:     make([]bool, w*h),
		maxDelta: make([]uint8, w*h),
		baseline: base,
	}
	c.Resized = resized
	c.TotalPixels = w * h

	for y := 0; y < h; y++ {
		bi := base.PixOffset(base.Rect.Min.X, base.Rect.Min.Y+y)
		ci := cand.PixOffset(cand.Rect.Min.X, cand.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			idx := y*w + x
			var maxRGB uint8
			differs := false
			for ch := 0; ch < 4; ch++ {
				d := absDelta(base.Pix[bi+ch], cand.Pix[ci+ch])
				if d > 0 {
					differs = true
				}
				if ch < 3 && d > maxRGB {
					maxRGB = d
				}
			}
			if differs {
				c.mask[idx] = true
				c.DifferingPixels++
			}
			c.maxDelta[idx] = maxRGB
			bi += 4
			ci += 4
		}
	}

	if c.TotalPixels > 0 {
		c.DiffPercent = float64(c.DifferingPixels) / float64(c.TotalPixels) * 100.0
	}
	c.Regions = clusterRegions(c.mask, w, h, opts.CellSize, opts.MinRegionArea, opts.PadPixels)

	// The pixel gate is decided first and independently of the perceptual
	// gate; SSIM can only make a passing comparison fail, never rescue one.
	pixelPass := c.DiffPercent <= opts.TolerancePercent
	c.Passed = pixelPass

	if opts.SSIM {
		c.SSIMApplied = true
		c.SSIMScore = SSIM(base, cand)
		c.SSIMPassed = c.SSIMScore >= opts.SSIMThreshold
		c.Passed = pixelPass && c.SSIMPassed
	}
	return c
}

func absDelta(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == image.Pt(0, 0) {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Rect, img, img.Bounds().Min, draw.Src)
	return out
}
