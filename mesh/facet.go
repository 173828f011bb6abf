package mesh

import (
	"math"

	"github.com/dltscontrol/dltscan/coord"
)

// Epsilon is the containment tolerance at facet edges. Query points
// within this distance of an edge still count as inside, so adjacent
// facets leave no gaps between the sampled cell centers.
const Epsilon = 0.001

// facet is one triangle of the triangulated sample set. Its corners
// are cell-center points whose Z carries the channel value, so the
// plane through them interpolates the value between samples.
type facet struct {
	a, b, c coord.Point
}

// contains reports whether (x, y) lies on the facet's 2D footprint,
// within Epsilon of its edges.
func (f facet) contains(x, y float64) bool {
	if x < math.Min(f.a.X, math.Min(f.b.X, f.c.X))-Epsilon ||
		x > math.Max(f.a.X, math.Max(f.b.X, f.c.X))+Epsilon ||
		y < math.Min(f.a.Y, math.Min(f.b.Y, f.c.Y))-Epsilon ||
		y > math.Max(f.a.Y, math.Max(f.b.Y, f.c.Y))+Epsilon {
		return false
	}

	if edgeSide(f.a, f.b, x, y) >= 0 &&
		edgeSide(f.b, f.c, x, y) >= 0 &&
		edgeSide(f.c, f.a, x, y) >= 0 {
		return true
	}

	// near-edge points fail the sign test on the far side of an edge;
	// accept them when they sit within tolerance of the edge itself
	return segmentDistSq(f.a, f.b, x, y) <= Epsilon*Epsilon ||
		segmentDistSq(f.b, f.c, x, y) <= Epsilon*Epsilon ||
		segmentDistSq(f.c, f.a, x, y) <= Epsilon*Epsilon
}

// valueAt evaluates the facet's interpolation plane at (x, y).
func (f facet) valueAt(x, y float64) float64 {
	n := f.c.Sub(f.a).Cross(f.b.Sub(f.a))
	d := n.Dot(f.c)
	return (d - n.X*x - n.Y*y) / n.Z
}

// edgeSide is zero when (x, y) lies on the directed edge p->q and is
// positive on the interior side for the winding the triangulation
// emits.
func edgeSide(p, q coord.Point, x, y float64) float64 {
	return (q.Y-p.Y)*(x-p.X) - (q.X-p.X)*(y-p.Y)
}

// segmentDistSq is the squared 2D distance from (x, y) to the segment
// between p and q.
func segmentDistSq(p, q coord.Point, x, y float64) float64 {
	dx, dy := q.X-p.X, q.Y-p.Y
	t := ((x-p.X)*dx + (y-p.Y)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx, cy := p.X+t*dx, p.Y+t*dy
	return (x-cx)*(x-cx) + (y-cy)*(y-cy)
}
