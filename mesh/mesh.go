// Package mesh interpolates scan channel images over physical device
// coordinates. The sampling grid rarely matches a display's pixel
// grid, so the cell values are triangulated and queried at arbitrary
// positions in between.
package mesh

import (
	"errors"
	"math"

	"github.com/fogleman/delaunay"

	"github.com/dltscontrol/dltscan/coord"
	"github.com/dltscontrol/dltscan/scan"
)

type Mesh struct {
	minX, minY, maxX, maxY float64
	facets                 []facet
}

// New triangulates a set of sampled points; the Z value of each point
// is the channel value at its position.
func New(points []coord.Point) (*Mesh, error) {
	if len(points) < 3 {
		return nil, errors.New("need at least 3 points to create a mesh")
	}

	points2d := make([]delaunay.Point, len(points))
	m := make(map[delaunay.Point]coord.Point, len(points))

	mesh := &Mesh{
		minX: points[0].X,
		minY: points[0].Y,
		maxX: points[0].X,
		maxY: points[0].Y,
	}
	var d delaunay.Point
	for i, p := range points {
		mesh.minX = math.Min(mesh.minX, p.X)
		mesh.minY = math.Min(mesh.minY, p.Y)
		mesh.maxX = math.Max(mesh.maxX, p.X)
		mesh.maxY = math.Max(mesh.maxY, p.Y)

		d.X = p.X
		d.Y = p.Y
		m[d] = p
		points2d[i] = d
	}
	mesh.minX -= Epsilon
	mesh.minY -= Epsilon
	mesh.maxX += Epsilon
	mesh.maxY += Epsilon

	tri, err := delaunay.Triangulate(points2d)
	if err != nil {
		return nil, err
	}

	mesh.facets = make([]facet, 0, len(tri.Triangles)/3)

	for i := 0; i < len(tri.Triangles); i += 3 {
		mesh.facets = append(mesh.facets, facet{
			a: m[tri.Points[tri.Triangles[i]]],
			b: m[tri.Points[tri.Triangles[i+1]]],
			c: m[tri.Points[tri.Triangles[i+2]]],
		})
	}

	return mesh, nil
}

// FromImage triangulates a channel image, placing one point at the
// center of every grid cell.
func FromImage(img scan.ChannelImage) (*Mesh, error) {
	rows := len(img.Values)
	if rows == 0 {
		return nil, errors.New("mesh: empty image")
	}
	cols := len(img.Values[0])

	cellW := float64(img.Width) / float64(cols)
	cellH := float64(img.Height) / float64(rows)

	points := make([]coord.Point, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			points = append(points, coord.Point{
				X: float64(img.OriginX) + (float64(c)+0.5)*cellW,
				Y: float64(img.OriginY) + (float64(r)+0.5)*cellH,
				Z: float64(img.Values[r][c]),
			})
		}
	}

	return New(points)
}

// ValueAt returns the interpolated channel value at (x, y). It
// reports false outside the sampled area.
func (m Mesh) ValueAt(x, y float64) (bool, float64) {
	if x < m.minX || m.maxX < x || y < m.minY || m.maxY < y {
		return false, 0
	}
	for _, f := range m.facets {
		if !f.contains(x, y) {
			continue
		}
		return true, f.valueAt(x, y)
	}

	return false, 0
}
