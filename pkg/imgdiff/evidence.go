package imgdiff

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// DiffImage renders the grayscale difference: per-pixel max RGB channel
// delta, normalized so the largest delta maps to full white.
func (c *Comparison) DiffImage() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, c.width, c.height))
	var peak uint8
	for _, d := range c.maxDelta {
		if d > peak {
			peak = d
		}
	}
	if peak == 0 {
		return out
	}
	scale := 255.0 / float64(peak)
	for i, d := range c.maxDelta {
		out.Pix[i] = uint8(float64(d) * scale)
	}
	return out
}

// HighlightImage renders the baseline with a semi-transparent red wash
// over differing pixels and a 3px red outline per clustered region.
// Returns nil when no pixel differs.
func (c *Comparison) HighlightImage() *image.RGBA {
	if c.DifferingPixels == 0 {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	copy(out.Pix, c.baseline.Pix)

	const washAlpha = 96
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			if !c.mask[y*c.width+x] {
				continue
			}
			i := out.PixOffset(x, y)
			// Composite the red wash over the baseline pixel.
			out.Pix[i] = blend(out.Pix[i], 255, washAlpha)
			out.Pix[i+1] = blend(out.Pix[i+1], 0, washAlpha)
			out.Pix[i+2] = blend(out.Pix[i+2], 0, washAlpha)
			out.Pix[i+3] = 255
		}
	}
	for _, r := range c.Regions {
		drawOutline(out, r)
	}
	return out
}

func blend(base, overlay uint8, alpha int) uint8 {
	return uint8((int(overlay)*alpha + int(base)*(255-alpha)) / 255)
}

// drawOutline draws a 3px-thick rectangle along the region edges.
func drawOutline(img *image.RGBA, r Region) {
	red := color.RGBA{R: 255, A: 255}
	for t := 0; t < 3; t++ {
		for x := r.X0; x <= r.X1; x++ {
			setClamped(img, x, r.Y0+t, red)
			setClamped(img, x, r.Y1-t, red)
		}
		for y := r.Y0; y <= r.Y1; y++ {
			setClamped(img, r.X0+t, y, red)
			setClamped(img, r.X1-t, y, red)
		}
	}
}

func setClamped(img *image.RGBA, x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return
	}
	img.SetRGBA(x, y, c)
}

// WriteDiff saves the grayscale difference image as PNG.
func (c *Comparison) WriteDiff(path string) error {
	return writePNG(path, c.DiffImage())
}

// WriteHighlight saves the highlight image as PNG. written=false when the
// comparison had no differing pixels and nothing was rendered.
func (c *Comparison) WriteHighlight(path string) (written bool, err error) {
	img := c.HighlightImage()
	if img == nil {
		return false, nil
	}
	return true, writePNG(path, img)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path) //#nosec G304 -- evidence path derived from run config
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// LoadPNG reads a PNG image from disk.
func LoadPNG(path string) (image.Image, error) {
	f, err := os.Open(path) //#nosec G304 -- image path derived from run config
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// SavePNG writes an image to disk as PNG.
func SavePNG(path string, img image.Image) error {
	return writePNG(path, img)
}
