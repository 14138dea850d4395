package imgdiff

import "image"

// Structural-similarity constants for 8-bit dynamic range.
const (
	ssimWindow = 8
	ssimK1     = 0.01
	ssimK2     = 0.03
	ssimL      = 255.0
)

// SSIM computes the mean structural similarity index between two
// same-sized images over grayscale 8x8 windows. Pure float64 arithmetic in
// scanline order keeps the score deterministic.
func SSIM(a, b *image.RGBA) float64 {
	w := a.Rect.Dx()
	h := a.Rect.Dy()
	if w == 0 || h == 0 || b.Rect.Dx() != w || b.Rect.Dy() != h {
		return 0
	}

	ga := grayscale(a, w, h)
	gb := grayscale(b, w, h)

	c1 := (ssimK1 * ssimL) * (ssimK1 * ssimL)
	c2 := (ssimK2 * ssimL) * (ssimK2 * ssimL)

	var sum float64
	var windows int
	for wy := 0; wy < h; wy += ssimWindow {
		for wx := 0; wx < w; wx += ssimWindow {
			y1 := min(wy+ssimWindow, h)
			x1 := min(wx+ssimWindow, w)
			n := float64((y1 - wy) * (x1 - wx))

			var muA, muB float64
			for y := wy; y < y1; y++ {
				for x := wx; x < x1; x++ {
					muA += ga[y*w+x]
					muB += gb[y*w+x]
				}
			}
			muA /= n
			muB /= n

			var varA, varB, cov float64
			for y := wy; y < y1; y++ {
				for x := wx; x < x1; x++ {
					da := ga[y*w+x] - muA
					db := gb[y*w+x] - muB
					varA += da * da
					varB += db * db
					cov += da * db
				}
			}
			varA /= n
			varB /= n
			cov /= n

			num := (2*muA*muB + c1) * (2*cov + c2)
			den := (muA*muA + muB*muB + c1) * (varA + varB + c2)
			sum += num / den
			windows++
		}
	}
	if windows == 0 {
		return 0
	}
	return sum / float64(windows)
}

// grayscale converts to ITU-R BT.601 luma.
func grayscale(img *image.RGBA, w, h int) []float64 {
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			r := float64(img.Pix[off])
			g := float64(img.Pix[off+1])
			bl := float64(img.Pix[off+2])
			out[y*w+x] = 0.299*r + 0.587*g + 0.114*bl
			off += 4
		}
	}
	return out
}
