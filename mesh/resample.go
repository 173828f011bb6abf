package mesh

import (
	"errors"

	"github.com/dltscontrol/dltscan/scan"
)

// Resample renders a channel image onto a finer cols×rows grid by
// interpolating between cell centers. Positions outside the
// triangulated area (the half-cell border) keep the nearest sampled
// value's triangle edge behavior and fall back to 0.
func Resample(img scan.ChannelImage, cols, rows int) ([][]float64, error) {
	if cols < 1 || rows < 1 {
		return nil, errors.New("mesh: resample grid must be at least 1x1")
	}

	m, err := FromImage(img)
	if err != nil {
		return nil, err
	}

	stepX := (m.maxX - m.minX) / float64(cols)
	stepY := (m.maxY - m.minY) / float64(rows)

	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, cols)
		y := m.minY + (float64(r)+0.5)*stepY
		for c := 0; c < cols; c++ {
			x := m.minX + (float64(c)+0.5)*stepX
			_, row[c] = m.ValueAt(x, y)
		}
		out[r] = row
	}
	return out, nil
}
