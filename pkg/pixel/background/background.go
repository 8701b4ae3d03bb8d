// Package background models and removes smooth sky background from
// grayscale astronomical images.
//
// The image is split into a coarse grid of cells. Each cell is sigma clipped
// and reduced to a robust background level with the SExtractor mode
// estimator; the cell levels are then upsampled bilinearly to full
// resolution.
package background

import (
	"fmt"
	"math"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// Parameter bounds.
const (
	MinGrid  = 2
	MaxGrid  = 64
	MinSigma = 0.5
	MaxSigma = 10

	maxClipPasses  = 10
	minClipSamples = 5
	// above this (mean-median)/stddev the mode formula is unreliable
	skewLimit = 0.3
	// cells further than this many MAD-sigmas above the cell median are outliers
	outlierKappa = 3
)

// Model is a grid of background levels.
type Model struct {
	Width  int
	Height int
	GridX  int
	GridY  int
	Cells  []float32 // row-major GridX*GridY
}

func (m *Model) String() string {
	lo, hi, _ := stats.MinMax(m.Cells)
	return fmt.Sprintf("Background grid %dx%d over %dx%d range [%g...%g]",
		m.GridX, m.GridY, m.Width, m.Height, lo, hi)
}

// clampGrid applies [MinGrid, MaxGrid] and then never exceeds the image size.
func clampGrid(g, size int) int {
	g = max(MinGrid, min(g, MaxGrid))
	return max(1, min(g, size))
}

// Estimate builds a background model. gridX and gridY are clamped to
// [MinGrid, MaxGrid] and to the image dimensions; sigma is the clipping
// threshold in standard deviations, clamped to [MinSigma, MaxSigma].
// Cells without any finite pixel take the mean of the other cells.
func Estimate(buf []float32, w, h, gridX, gridY int, sigma float64) *Model {
	sigma = max(MinSigma, min(sigma, MaxSigma))
	if sigma != sigma {
		sigma = MinSigma
	}
	gx, gy := clampGrid(gridX, w), clampGrid(gridY, h)
	m := &Model{Width: w, Height: h, GridX: gx, GridY: gy, Cells: make([]float32, gx*gy)}

	samples := make([]float64, 0, (w/gx+1)*(h/gy+1))
	for cy := 0; cy < gy; cy++ {
		y0, y1 := cy*h/gy, (cy+1)*h/gy
		for cx := 0; cx < gx; cx++ {
			x0, x1 := cx*w/gx, (cx+1)*w/gx
			samples = samples[:0]
			for y := y0; y < y1; y++ {
				for _, v := range buf[y*w+x0 : y*w+x1] {
					if v == v {
						samples = append(samples, float64(v))
					}
				}
			}
			m.Cells[cy*gx+cx] = CellLevel(samples, sigma)
		}
	}
	m.fillMissing()
	return m
}

// CellLevel reduces a cell's samples to a background level: sigma clipping
// followed by the mode estimate 2.5*median - 1.5*mean, or the median when
// the clipped distribution is too skewed. No samples yield NaN.
func CellLevel(samples []float64, sigma float64) float32 {
	if len(samples) == 0 {
		return float32(math.NaN())
	}
	res := stats.SigmaClip(samples, sigma, maxClipPasses, minClipSamples)
	if res.StdDev == 0 || (res.Mean-res.Median)/res.StdDev > skewLimit {
		return float32(res.Median)
	}
	return float32(2.5*res.Median - 1.5*res.Mean)
}

func (m *Model) fillMissing() {
	mean := stats.Mean(m.Cells)
	if mean != mean {
		mean = 0
	}
	for i, c := range m.Cells {
		if c != c {
			m.Cells[i] = mean
		}
	}
}

// rejectOutliers replaces cells far brighter than the typical cell, which
// are usually dominated by nebulosity or a bright star, with the median of
// their valid neighbours. It returns the number of replaced cells.
func (m *Model) rejectOutliers() int {
	median, mad := stats.MAD(m.Cells)
	limit := median + outlierKappa*mad*stats.MADToSigma
	if !(mad > 0) {
		return 0
	}
	bad := make([]bool, len(m.Cells))
	for i, c := range m.Cells {
		bad[i] = c > limit
	}

	replaced := 0
	fixed := make([]float32, len(m.Cells))
	copy(fixed, m.Cells)
	neighbours := make([]float32, 0, 8)
	for cy := 0; cy < m.GridY; cy++ {
		for cx := 0; cx < m.GridX; cx++ {
			i := cy*m.GridX + cx
			if !bad[i] {
				continue
			}
			neighbours = neighbours[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || ny < 0 || nx >= m.GridX || ny >= m.GridY || bad[ny*m.GridX+nx] {
						continue
					}
					neighbours = append(neighbours, m.Cells[ny*m.GridX+nx])
				}
			}
			if len(neighbours) == 0 {
				fixed[i] = median
			} else {
				fixed[i] = stats.Median(neighbours)
			}
			replaced++
		}
	}
	m.Cells = fixed
	return replaced
}

// Render upsamples the cell grid to full resolution. Cell levels sit at the
// cell centres and are interpolated bilinearly; beyond the outermost centres
// the edge values are held.
func (m *Model) Render() []float32 {
	out := make([]float32, m.Width*m.Height)
	cellW := float64(m.Width) / float64(m.GridX)
	cellH := float64(m.Height) / float64(m.GridY)
	for y := 0; y < m.Height; y++ {
		cy0, cy1, fy := neighbours((float64(y)+0.5)/cellH-0.5, m.GridY)
		for x := 0; x < m.Width; x++ {
			cx0, cx1, fx := neighbours((float64(x)+0.5)/cellW-0.5, m.GridX)
			top := float64(m.Cells[cy0*m.GridX+cx0])*(1-fx) + float64(m.Cells[cy0*m.GridX+cx1])*fx
			bottom := float64(m.Cells[cy1*m.GridX+cx0])*(1-fx) + float64(m.Cells[cy1*m.GridX+cx1])*fx
			out[y*m.Width+x] = float32(top*(1-fy) + bottom*fy)
		}
	}
	return out
}

func neighbours(g float64, n int) (int, int, float64) {
	if g <= 0 {
		return 0, 0, 0
	}
	c0 := int(math.Floor(g))
	if c0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return c0, c0 + 1, g - float64(c0)
}

// Extract subtracts the modelled background from the image.
func Extract(buf []float32, w, h, gridX, gridY int, sigma float64) []float32 {
	bg := Estimate(buf, w, h, gridX, gridY, sigma).Render()
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = v - bg[i]
	}
	return out
}

// DynamicExtract is Extract with outlier cells replaced by their neighbours
// before rendering.
func DynamicExtract(buf []float32, w, h, gridX, gridY int, sigma float64) []float32 {
	m := Estimate(buf, w, h, gridX, gridY, sigma)
	m.rejectOutliers()
	bg := m.Render()
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = v - bg[i]
	}
	return out
}
