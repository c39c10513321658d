package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xj-bear/pdf2all/internal/domain"
)

func region(text string, x, y float64) domain.TextRegion {
	return domain.TextRegion{
		Text:       text,
		Box:        domain.QuadFromRect(x, y, x+60, y+18),
		Confidence: 0.9,
	}
}

func TestReconstruct_NameAgeTable(t *testing.T) {
	regions := []domain.TextRegion{
		region("Name", 0, 0),
		region("Age", 100, 0),
		region("Alice", 0, 30),
		region("30", 100, 30),
	}

	grid, ok := Reconstruct(regions)
	require.True(t, ok)
	assert.Equal(t, domain.TableGrid{{"Name", "Age"}, {"Alice", "30"}}, grid)
}

func TestReconstruct_ColumnClustering(t *testing.T) {
	tests := []struct {
		name      string
		secondX   float64
		wantWidth int
	}{
		{"81px apart opens a column", 91, 2},
		{"exactly 80px apart merges", 90, 1},
		{"50px apart merges", 60, 1},
		{"far apart", 400, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions := []domain.TextRegion{
				region("a", 10, 0),
				region("b", tt.secondX, 0),
				region("c", 10, 30),
				region("d", tt.secondX, 30),
			}
			grid, ok := Reconstruct(regions)
			require.True(t, ok)
			assert.Equal(t, tt.wantWidth, grid.Width())
			for _, row := range grid {
				assert.Len(t, row, tt.wantWidth)
			}
		})
	}
}

func TestReconstruct_MergedCellsJoinLeftToRight(t *testing.T) {
	regions := []domain.TextRegion{
		region("world", 60, 0),
		region("hello", 10, 0),
		region("x", 10, 30),
	}
	grid, ok := Reconstruct(regions)
	require.True(t, ok)
	assert.Equal(t, domain.TableGrid{{"hello world"}, {"x"}}, grid)
}

func TestReconstruct_NoTable(t *testing.T) {
	tests := []struct {
		name    string
		regions []domain.TextRegion
	}{
		{"no regions", nil},
		{"single line", []domain.TextRegion{region("a", 10, 0), region("b", 200, 5)}},
		{"only whitespace", []domain.TextRegion{region("  ", 10, 0), region("\t", 10, 40)}},
		{"one real row", []domain.TextRegion{region("a", 10, 0), region(" ", 10, 40)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, ok := Reconstruct(tt.regions)
			assert.False(t, ok)
			assert.Nil(t, grid)
		})
	}
}

func TestReconstruct_LinesSortedByBand(t *testing.T) {
	regions := []domain.TextRegion{
		region("third", 10, 80),
		region("first", 10, 3),
		region("second", 10, 49),
		region("first-b", 200, 24.9),
	}
	grid, ok := Reconstruct(regions)
	require.True(t, ok)
	assert.Equal(t, domain.TableGrid{
		{"first", "first-b"},
		{"second", ""},
		{"third", ""},
	}, grid)
}

func TestReconstruct_AssignTolerance(t *testing.T) {
	// Boundaries end up at 10 and 100. 65 is within 40px of 100, 55 is not.
	regions := []domain.TextRegion{
		region("h1", 10, 0),
		region("h2", 100, 0),
		region("v1", 10, 30),
		region("v2", 65, 30),
		region("v3", 55, 60),
		region("v4", 10, 60),
	}
	grid, ok := Reconstruct(regions)
	require.True(t, ok)
	assert.Equal(t, domain.TableGrid{
		{"h1", "h2"},
		{"v1", "v2"},
		{"v4 v3", ""},
	}, grid)
}

func TestReconstruct_CloseColumnsCollapse(t *testing.T) {
	// Two semantic columns starting 30px apart share one cell.
	regions := []domain.TextRegion{
		region("Qty", 100, 0),
		region("Unit", 130, 0),
		region("4", 100, 30),
		region("kg", 130, 30),
	}
	grid, ok := Reconstruct(regions)
	require.True(t, ok)
	assert.Equal(t, domain.TableGrid{{"Qty Unit"}, {"4 kg"}}, grid)
}

func TestReconstruct_UsesQuadCorners(t *testing.T) {
	skewed := domain.TextRegion{
		Text: "skew",
		Box: domain.Quad{
			{X: 205, Y: 12},
			{X: 260, Y: 8},
			{X: 262, Y: 30},
			{X: 200, Y: 33},
		},
	}
	regions := []domain.TextRegion{
		region("a", 10, 0),
		skewed,
		region("b", 10, 30),
		region("c", 200, 30),
	}
	grid, ok := Reconstruct(regions)
	require.True(t, ok)
	assert.Equal(t, domain.TableGrid{{"a", "skew"}, {"b", "c"}}, grid)
}

func TestReconstruct_Idempotent(t *testing.T) {
	regions := []domain.TextRegion{
		region("Name", 0, 0),
		region("Age", 100, 0),
		region("Alice", 0, 30),
		region("30", 100, 30),
		region("Bob", 12, 70),
		region("41", 198, 71),
	}
	first, ok1 := Reconstruct(regions)
	second, ok2 := Reconstruct(regions)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

func TestParams_CustomGeometry(t *testing.T) {
	p := Params{BandHeight: 50, ColumnGap: 20, AssignTolerance: 5}
	regions := []domain.TextRegion{
		region("a", 10, 0),
		region("b", 40, 30),
		region("c", 10, 60),
	}
	grid, ok := p.Reconstruct(regions)
	require.True(t, ok)
	assert.Equal(t, domain.TableGrid{{"a", "b"}, {"c", ""}}, grid)
}

func TestBandKey(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 0.0, p.BandKey(24.99))
	assert.Equal(t, 25.0, p.BandKey(25))
	assert.Equal(t, 50.0, p.BandKey(74.5))
}

func TestSafeReconstruct(t *testing.T) {
	grid, ok, err := DefaultParams().SafeReconstruct([]domain.TextRegion{
		region("a", 0, 0),
		region("b", 0, 30),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, grid, 2)
}
