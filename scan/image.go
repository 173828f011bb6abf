package scan

import (
	"fmt"
	"time"
)

// IncompleteScanError is returned when a record sequence shorter (or
// longer) than the geometry's cell count is assembled. Aborted scans
// are not silently padded into full-size images.
type IncompleteScanError struct {
	Got, Want int
}

func (e *IncompleteScanError) Error() string {
	return fmt.Sprintf("scan: have %d records for %d grid cells", e.Got, e.Want)
}

// ChannelImage is one channel of a completed scan mapped onto the
// sampling grid, together with the acquisition conditions it was made
// under.
type ChannelImage struct {
	Name string `json:"name"`

	// Values holds one scalar per grid cell, indexed [row][column].
	Values [][]uint16 `json:"values"`

	OriginX uint16 `json:"originX"`
	OriginY uint16 `json:"originY"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`

	LaserIntensity uint16 `json:"laserIntensity"`
	ZPosition      uint16 `json:"zPosition"`
	XTilt          uint16 `json:"xTilt"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
}

// At returns the value of cell (row, col).
func (img ChannelImage) At(row, col int) uint16 {
	return img.Values[row][col]
}

// AssembleImages builds one image per channel from a complete record
// sequence, mapping the i-th record in raster order to the i-th grid
// cell. It is a pure function of its inputs.
func AssembleImages(records []Record, geom Geometry, channels []Channel) ([]ChannelImage, error) {
	if len(records) != geom.CellCount() {
		return nil, &IncompleteScanError{Got: len(records), Want: geom.CellCount()}
	}

	cols, rows := geom.Columns(), geom.Rows()
	w, h := geom.Size()
	ox, oy := geom.Origin()

	images := make([]ChannelImage, 0, len(channels))
	for _, ch := range channels {
		values := make([][]uint16, rows)
		for r := 0; r < rows; r++ {
			row := make([]uint16, cols)
			for c := 0; c < cols; c++ {
				row[c] = ch.Extract(records[r*cols+c])
			}
			values[r] = row
		}
		images = append(images, ChannelImage{
			Name:   ch.Name(),
			Values: values,

			OriginX: ox,
			OriginY: oy,
			Width:   w,
			Height:  h,

			LaserIntensity: geom.LaserIntensity,
			ZPosition:      geom.ZPosition,
			XTilt:          geom.XTilt,

			StartTime: geom.StartTime,
			Duration:  geom.Duration,
		})
	}
	return images, nil
}
