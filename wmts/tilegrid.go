package wmts

import (
	"encoding/json"
	"fmt"
	"github.com/paulmach/orb"
	"math"
)

// TileSize is a tile width and height in pixels.
type TileSize [2]int

// TileRange is an inclusive range of tile columns and rows at one level.
type TileRange struct {
	MinCol int `json:"minCol"`
	MaxCol int `json:"maxCol"`
	MinRow int `json:"minRow"`
	MaxRow int `json:"maxRow"`
}

func (r TileRange) Contains(col, row int) bool {
	return col >= r.MinCol && col <= r.MaxCol && row >= r.MinRow && row <= r.MaxRow
}

// TileGrid describes the tile matrices of one matrix set, index z being
// the z-th matrix from the coarsest. A grid either has one Origin and
// TileSize for every level or per-level Origins and TileSizes.
type TileGrid struct {
	Origin      *orb.Point
	Origins     []orb.Point
	Resolutions []float64
	MatrixIDs   []string
	TileSize    TileSize
	TileSizes   []TileSize
	// Sizes are matrix widths and heights in tiles, per level.
	Sizes  [][2]int
	Extent *orb.Bound
	// Ranges are the declared tile limits per level, if any.
	Ranges []*TileRange
}

// Levels is the number of usable zoom levels.
func (g *TileGrid) Levels() int {
	return len(g.Resolutions)
}

// Validate checks that the per-level tables line up.
// Published grids sometimes do not, which is why callers
// may choose to treat the result as a warning.
func (g *TileGrid) Validate() error {
	n := len(g.Resolutions)
	if n == 0 {
		return fmt.Errorf("%w: no resolutions", ErrGridMismatch)
	}
	if len(g.MatrixIDs) != n {
		return fmt.Errorf("%w: %d matrix ids for %d resolutions", ErrGridMismatch, len(g.MatrixIDs), n)
	}
	if g.Origin == nil && len(g.Origins) == 0 {
		return fmt.Errorf("%w: no origin", ErrGridMismatch)
	}
	if len(g.Origins) != 0 && len(g.Origins) != n {
		return fmt.Errorf("%w: %d origins for %d resolutions", ErrGridMismatch, len(g.Origins), n)
	}
	if len(g.TileSizes) != 0 && len(g.TileSizes) != n {
		return fmt.Errorf("%w: %d tile sizes for %d resolutions", ErrGridMismatch, len(g.TileSizes), n)
	}
	for z, r := range g.Resolutions {
		if r <= 0 {
			return fmt.Errorf("%w: resolution %v at level %d", ErrGridMismatch, r, z)
		}
		if z > 0 && r >= g.Resolutions[z-1] {
			return fmt.Errorf("%w: resolutions not descending at level %d", ErrGridMismatch, z)
		}
	}
	return nil
}

func (g *TileGrid) checkLevel(z int) error {
	if z < 0 || z >= len(g.Resolutions) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, z, len(g.Resolutions))
	}
	return nil
}

func (g *TileGrid) MatrixID(z int) (string, error) {
	if err := g.checkLevel(z); err != nil {
		return "", err
	}
	if z >= len(g.MatrixIDs) {
		return "", fmt.Errorf("%w: no matrix id for level %d", ErrOutOfRange, z)
	}
	return g.MatrixIDs[z], nil
}

func (g *TileGrid) Resolution(z int) (float64, error) {
	if err := g.checkLevel(z); err != nil {
		return 0, err
	}
	return g.Resolutions[z], nil
}

func (g *TileGrid) OriginAt(z int) (orb.Point, error) {
	if err := g.checkLevel(z); err != nil {
		return orb.Point{}, err
	}
	if len(g.Origins) > z {
		return g.Origins[z], nil
	}
	if g.Origin == nil {
		return orb.Point{}, fmt.Errorf("%w: no origin for level %d", ErrGridMismatch, z)
	}
	return *g.Origin, nil
}

// TileSizeAt defaults to 256 square when the grid declares none.
func (g *TileGrid) TileSizeAt(z int) TileSize {
	if z >= 0 && z < len(g.TileSizes) {
		return g.TileSizes[z]
	}
	if g.TileSize[0] > 0 && g.TileSize[1] > 0 {
		return g.TileSize
	}
	return TileSize{256, 256}
}

// TileCoord returns the column and row of the tile containing pt at level z.
// Rows grow downwards from the origin.
func (g *TileGrid) TileCoord(pt orb.Point, z int) (col, row int, err error) {
	res, err := g.Resolution(z)
	if err != nil {
		return 0, 0, err
	}
	origin, err := g.OriginAt(z)
	if err != nil {
		return 0, 0, err
	}
	size := g.TileSizeAt(z)
	col = int(math.Floor((pt[0] - origin[0]) / (res * float64(size[0]))))
	row = int(math.Floor((origin[1] - pt[1]) / (res * float64(size[1]))))
	if z < len(g.Ranges) && g.Ranges[z] != nil && !g.Ranges[z].Contains(col, row) {
		return col, row, fmt.Errorf("%w: tile %d/%d/%d outside declared limits", ErrOutOfRange, z, col, row)
	}
	return col, row, nil
}

// ZForResolution returns the level whose resolution is nearest res.
func (g *TileGrid) ZForResolution(res float64) int {
	best, bestDiff := 0, math.Inf(1)
	for z, r := range g.Resolutions {
		if d := math.Abs(r - res); d < bestDiff {
			best, bestDiff = z, d
		}
	}
	return best
}

type tileGridJSON struct {
	Origin      *orb.Point   `json:"origin,omitempty"`
	Origins     []orb.Point  `json:"origins,omitempty"`
	Resolutions []float64    `json:"resolutions"`
	MatrixIDs   []string     `json:"matrixIds"`
	TileSize    *TileSize    `json:"tileSize,omitempty"`
	TileSizes   []TileSize   `json:"tileSizes,omitempty"`
	Sizes       [][2]int     `json:"sizes,omitempty"`
	Extent      *[4]float64  `json:"extent,omitempty"`
	Ranges      []*TileRange `json:"ranges,omitempty"`
}

// MarshalJSON uses the field names OpenLayers' WMTS tile grid takes,
// with the extent as [minx, miny, maxx, maxy].
func (g *TileGrid) MarshalJSON() ([]byte, error) {
	out := tileGridJSON{
		Origin:      g.Origin,
		Origins:     g.Origins,
		Resolutions: g.Resolutions,
		MatrixIDs:   g.MatrixIDs,
		TileSizes:   g.TileSizes,
		Sizes:       g.Sizes,
		Extent:      ExtentArray(g.Extent),
		Ranges:      g.Ranges,
	}
	if g.TileSize[0] > 0 {
		ts := g.TileSize
		out.TileSize = &ts
	}
	return json.Marshal(out)
}

// ExtentArray flattens a bound to [minx, miny, maxx, maxy], nil for nil.
func ExtentArray(b *orb.Bound) *[4]float64 {
	if b == nil {
		return nil
	}
	return &[4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
