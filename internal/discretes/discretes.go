// Package discretes loads tables of known discrete nuclear levels and
// estimates their density on a requested energy grid, smoothed by the
// experimental resolution.
package discretes

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/model"
)

// DefaultResolution is the experimental resolution (MeV) used when the
// caller does not override it.
const DefaultResolution = 0.1

// ErrNoLevels indicates an empty level table.
var ErrNoLevels = eris.New("discretes: level table contains no levels")

// Load reads a level table: one excitation energy (MeV) per line, blank
// lines and '#' comments skipped. Energies above the MeV sanity bound
// abort, same as for curves.
func Load(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discretes: open %s", path)
	}
	defer f.Close()

	var levels []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		// Tolerate trailing columns (spin, parity) after the energy.
		fields := strings.Fields(text)
		e, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "discretes: %s line %d", path, line)
		}
		if e > model.EnergySanityMax {
			return nil, eris.Wrapf(model.ErrUnitSanity, "discretes: %s line %d: Ex=%g", path, line, e)
		}
		levels = append(levels, e)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "discretes: read %s", path)
	}
	if len(levels) == 0 {
		return nil, eris.Wrapf(ErrNoLevels, "%s", path)
	}
	return levels, nil
}

// Smoothed estimates the level density (levels per MeV) at each grid
// energy by summing unit-area Gaussians of width resolution centered on
// the levels. This is the "smoothed by experimental resolution" service
// the cost function compares against.
func Smoothed(levels, grid []float64, resolution float64) []float64 {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	norm := 1 / (resolution * math.Sqrt(2*math.Pi))
	out := make([]float64, len(grid))
	for i, e := range grid {
		var sum float64
		for _, l := range levels {
			z := (e - l) / resolution
			sum += norm * math.Exp(-0.5*z*z)
		}
		out[i] = sum
	}
	return out
}

// Binned counts levels per grid bin and divides by the bin width,
// giving the unsmoothed density. Bin edges are midpoints between
// neighboring grid energies.
func Binned(levels, grid []float64) []float64 {
	out := make([]float64, len(grid))
	if len(grid) == 0 {
		return out
	}
	for i := range grid {
		lo, hi := binEdges(grid, i)
		n := 0
		for _, l := range levels {
			if l >= lo && l < hi {
				n++
			}
		}
		out[i] = float64(n) / (hi - lo)
	}
	return out
}

func binEdges(grid []float64, i int) (lo, hi float64) {
	switch {
	case len(grid) == 1:
		half := DefaultResolution / 2
		return grid[0] - half, grid[0] + half
	case i == 0:
		half := (grid[1] - grid[0]) / 2
		return grid[0] - half, grid[0] + half
	case i == len(grid)-1:
		half := (grid[i] - grid[i-1]) / 2
		return grid[i] - half, grid[i] + half
	default:
		return (grid[i-1] + grid[i]) / 2, (grid[i] + grid[i+1]) / 2
	}
}
