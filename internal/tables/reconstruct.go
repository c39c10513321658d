// Package tables rebuilds row and column structure from loose OCR text boxes.
//
// Rows come from bucketing boxes by the y of their top edge into fixed-height
// bands. Columns come from clustering the distinct left edges of all boxes:
// an edge opens a new column only when it lies more than ColumnGap past the
// previously opened one. Each box is then placed in the right-most column
// whose left edge is at most AssignTolerance to the right of the box.
//
// Coordinates are device pixels of a page rasterized at 2x zoom. Two boxes
// that belong to different columns but start within AssignTolerance of each
// other end up in the same cell.
package tables

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/xj-bear/pdf2all/internal/domain"
)

const (
	// BandHeight is the height in pixels of one line band.
	BandHeight = 25.0

	// ColumnGap is the distance a left edge must exceed, measured from the
	// last opened column, to open a new column.
	ColumnGap = 80.0

	// AssignTolerance lets a box start this far left of a column edge and
	// still be assigned to it.
	AssignTolerance = 40.0

	// MinRows is the number of rows (header included) a grid needs to count
	// as a table.
	MinRows = 2
)

// Params carries the tuning values. The zero value is not usable; start from
// DefaultParams.
type Params struct {
	BandHeight      float64
	ColumnGap       float64
	AssignTolerance float64
}

// DefaultParams returns the constants above.
func DefaultParams() Params {
	return Params{
		BandHeight:      BandHeight,
		ColumnGap:       ColumnGap,
		AssignTolerance: AssignTolerance,
	}
}

// String is used as part of cache keys.
func (p Params) String() string {
	return fmt.Sprintf("band=%g,gap=%g,tol=%g", p.BandHeight, p.ColumnGap, p.AssignTolerance)
}

type placedText struct {
	text string
	left float64
}

type line struct {
	key   float64
	items []placedText
}

// Reconstruct builds a grid with the default parameters.
func Reconstruct(regions []domain.TextRegion) (domain.TableGrid, bool) {
	return DefaultParams().Reconstruct(regions)
}

// Reconstruct builds a grid from regions. The boolean is false when the
// regions do not form at least MinRows non-empty rows.
func (p Params) Reconstruct(regions []domain.TextRegion) (domain.TableGrid, bool) {
	lines := p.groupLines(regions)
	if len(lines) == 0 {
		return nil, false
	}

	boundaries := p.columnBoundaries(lines)

	grid := make(domain.TableGrid, 0, len(lines))
	for _, ln := range lines {
		row := p.buildRow(ln, boundaries)
		if rowIsEmpty(row) {
			continue
		}
		grid = append(grid, row)
	}

	if len(grid) < MinRows {
		return nil, false
	}
	return grid, true
}

// SafeReconstruct is Reconstruct with panics turned into "no table".
func (p Params) SafeReconstruct(regions []domain.TextRegion) (grid domain.TableGrid, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid, ok = nil, false
			err = fmt.Errorf("reconstruct panicked: %v", r)
		}
	}()
	grid, ok = p.Reconstruct(regions)
	return grid, ok, nil
}

// BandKey returns the line bucket of a box whose top edge is at y.
func (p Params) BandKey(y float64) float64 {
	return math.Floor(math.Trunc(y)/p.BandHeight) * p.BandHeight
}

func (p Params) groupLines(regions []domain.TextRegion) []line {
	byKey := make(map[float64]*line)
	for _, r := range regions {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		key := p.BandKey(r.Box.Top())
		ln, ok := byKey[key]
		if !ok {
			ln = &line{key: key}
			byKey[key] = ln
		}
		ln.items = append(ln.items, placedText{text: text, left: r.Box.Left()})
	}

	lines := make([]line, 0, len(byKey))
	for _, ln := range byKey {
		lines = append(lines, *ln)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].key < lines[j].key })
	return lines
}

func (p Params) columnBoundaries(lines []line) []float64 {
	var lefts []float64
	for _, ln := range lines {
		for _, it := range ln.items {
			lefts = append(lefts, it.left)
		}
	}
	slices.Sort(lefts)
	lefts = slices.Compact(lefts)

	boundaries := []float64{lefts[0]}
	for _, left := range lefts[1:] {
		if left-boundaries[len(boundaries)-1] > p.ColumnGap {
			boundaries = append(boundaries, left)
		}
	}
	return boundaries
}

func (p Params) buildRow(ln line, boundaries []float64) []string {
	items := slices.Clone(ln.items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].left < items[j].left })

	row := make([]string, len(boundaries))
	for _, it := range items {
		col := p.columnFor(it.left, boundaries)
		if row[col] == "" {
			row[col] = it.text
		} else {
			row[col] += " " + it.text
		}
	}
	return row
}

// columnFor returns the last boundary index with boundary <= left+tolerance,
// or 0 when there is none.
func (p Params) columnFor(left float64, boundaries []float64) int {
	col := 0
	for i, b := range boundaries {
		if left >= b-p.AssignTolerance {
			col = i
		}
	}
	return col
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
