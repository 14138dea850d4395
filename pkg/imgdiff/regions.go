package imgdiff

import "sort"

// Region is a pixel-space bounding box with inclusive corners.
type Region struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Width returns the region width in pixels.
func (r Region) Width() int { return r.X1 - r.X0 + 1 }

// Height returns the region height in pixels.
func (r Region) Height() int { return r.Y1 - r.Y0 + 1 }

// Area returns the region area in pixels.
func (r Region) Area() int { return r.Width() * r.Height() }

// clusterRegions groups a difference mask into disjoint bounding boxes.
// Two passes keep it near-linear in mask size: flood-fill (8-connectivity)
// over a coarse occupancy grid finds components cheaply, then each
// component's box is tightened against the fine mask, padded, and dropped
// if below the minimum area. Output order is (Y0, X0) sorted so identical
// masks always produce the identical region list.
func clusterRegions(mask []bool, w, h, cell, minArea, pad int) []Region {
	if w <= 0 || h <= 0 {
		return nil
	}
	cellsW := (w + cell - 1) / cell
	cellsH := (h + cell - 1) / cell

	occupied := make([]bool, cellsW*cellsH)
	any := false
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask[y*w+x] {
				occupied[(y/cell)*cellsW+(x/cell)] = true
				any = true
			}
		}
	}
	if !any {
		return nil
	}

	visited := make([]bool, cellsW*cellsH)
	var regions []Region
	queue := make([][2]int, 0, 64)

	for cy := 0; cy < cellsH; cy++ {
		for cx := 0; cx < cellsW; cx++ {
			start := cy*cellsW + cx
			if !occupied[start] || visited[start] {
				continue
			}
			// BFS over the 8-neighborhood of occupied cells.
			visited[start] = true
			queue = queue[:0]
			queue = append(queue, [2]int{cy, cx})
			minCY, maxCY, minCX, maxCX := cy, cy, cx, cx
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				y0, x0 := cur[0], cur[1]
				if y0 < minCY {
					minCY = y0
				}
				if y0 > maxCY {
					maxCY = y0
				}
				if x0 < minCX {
					minCX = x0
				}
				if x0 > maxCX {
					maxCX = x0
				}
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dy == 0 && dx == 0 {
							continue
						}
						ny, nx := y0+dy, x0+dx
						if ny < 0 || ny >= cellsH || nx < 0 || nx >= cellsW {
							continue
						}
						ni := ny*cellsW + nx
						if occupied[ni] && !visited[ni] {
							visited[ni] = true
							queue = append(queue, [2]int{ny, nx})
						}
					}
				}
			}

			r, ok := refineRegion(mask, w, h, minCX*cell, minCY*cell,
				min((maxCX+1)*cell-1, w-1), min((maxCY+1)*cell-1, h-1), pad, minArea)
			if ok {
				regions = append(regions, r)
			}
		}
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Y0 != regions[j].Y0 {
			return regions[i].Y0 < regions[j].Y0
		}
		return regions[i].X0 < regions[j].X0
	})
	return regions
}

// refineRegion shrinks a coarse component box to the true mask extents,
// then pads and clamps it. ok=false when the padded box is below minArea.
func refineRegion(mask []bool, w, h, x0, y0, x1, y1, pad, minArea int) (Region, bool) {
	rx0, ry0 := x1, y1
	rx1, ry1 := x0, y0
	found := false
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !mask[y*w+x] {
				continue
			}
			found = true
			if x < rx0 {
				rx0 = x
			}
			if x > rx1 {
				rx1 = x
			}
			if y < ry0 {
				ry0 = y
			}
			if y > ry1 {
				ry1 = y
			}
		}
	}
	if !found {
		rx0, ry0, rx1, ry1 = x0, y0, x1, y1
	}
	rx0 = max(0, rx0-pad)
	ry0 = max(0, ry0-pad)
	rx1 = min(w-1, rx1+pad)
	ry1 = min(h-1, ry1+pad)

	r := Region{X0: rx0, Y0: ry0, X1: rx1, Y1: ry1}
	return r, r.Area() >= minArea
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
