package action

import (
	"encoding/json"
	"fmt"
)

// Point is a screen coordinate. Serialized as a two-element array so drag
// paths stay readable in source control.
type Point struct {
	X int
	Y int
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("point must have exactly 2 elements, got %d", len(raw))
	}
	p.X, p.Y = raw[0], raw[1]
	return nil
}

// DownsamplePath reduces a path to at most maxPoints, always keeping the
// final point so the gesture ends where it was recorded.
func DownsamplePath(path []Point, maxPoints int) []Point {
	if maxPoints <= 0 || len(path) <= maxPoints {
		return path
	}
	stride := len(path) / maxPoints
	if stride < 1 {
		stride = 1
	}
	sampled := make([]Point, 0, maxPoints+1)
	for i := 0; i < len(path); i += stride {
		sampled = append(sampled, path[i])
	}
	if sampled[len(sampled)-1] != path[len(path)-1] {
		sampled = append(sampled, path[len(path)-1])
	}
	return sampled
}

// PathDistance returns the Manhattan length of a path. Used to decide
// whether a press/release pair was a click or a drag.
func PathDistance(path []Point) int {
	total := 0
	for i := 1; i < len(path); i++ {
		dx := path[i].X - path[i-1].X
		if dx < 0 {
			dx = -dx
		}
		dy := path[i].Y - path[i-1].Y
		if dy < 0 {
			dy = -dy
		}
		total += dx + dy
	}
	return total
}
