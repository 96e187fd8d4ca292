package systems

import (
	"slices"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
)

// RockField picks the cells that start as rock. Rocks cluster where a
// fractal noise field is highest, so roughly density*width^2 cells are
// chosen. Cells within margin of a store stay clear.
func RockField(cfg config.BoardConfig, seed int64) []components.GridCoord {
	w := cfg.Width
	if cfg.RockDensity <= 0 || w == 0 {
		return nil
	}

	noise := opensimplex.NewNormalized(seed)
	values := make([]float64, w*w)
	for r := 0; r < w; r++ {
		for c := 0; c < w; c++ {
			values[r*w+c] = octaveNoise(noise, float64(r), float64(c), cfg.RockOctaves, cfg.RockScale, 0.5)
		}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	cut := int((1 - cfg.RockDensity) * float64(len(sorted)))
	if cut >= len(sorted) {
		return nil
	}
	threshold := sorted[max(cut, 0)]

	var rocks []components.GridCoord
	for r := 0; r < w; r++ {
		for c := 0; c < w; c++ {
			if values[r*w+c] < threshold || nearStore(cfg, r, c) {
				continue
			}
			rocks = append(rocks, components.GridCoord{Row: r, Col: c})
		}
	}
	return rocks
}

func nearStore(cfg config.BoardConfig, r, c int) bool {
	for _, s := range cfg.Stores {
		if abs(s.Row-r) <= cfg.StoreMargin && abs(s.Col-c) <= cfg.StoreMargin {
			return true
		}
	}
	return false
}

// octaveNoise sums octaves of noise with halving amplitude and doubling
// frequency, normalized back to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
