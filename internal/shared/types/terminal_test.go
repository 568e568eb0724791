package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeFor(t *testing.T) {
	assert.Equal(t, GlobalScope, ScopeFor(""))
	assert.Equal(t, GlobalScope, ScopeFor("   "))
	assert.Equal(t, Scope("/proj"), ScopeFor("/proj"))

	assert.Equal(t, "", GlobalScope.ProjectPath())
	assert.Equal(t, "/proj", Scope("/proj").ProjectPath())
	assert.True(t, GlobalScope.IsGlobal())
}

func TestParseViewMode(t *testing.T) {
	mode, err := ParseViewMode("GRID")
	require.NoError(t, err)
	assert.Equal(t, ViewGrid, mode)

	_, err = ParseViewMode("split")
	assert.Error(t, err)

	assert.Equal(t, ViewGrid, ViewTabs.Toggle())
	assert.Equal(t, ViewTabs, ViewGrid.Toggle())
}

func TestParseGridLayout(t *testing.T) {
	tests := []struct {
		in       string
		want     GridLayout
		rows     int
		cols     int
		wantFail bool
	}{
		{in: "2x2", want: Grid2x2, rows: 2, cols: 2},
		{in: "3×2", want: Grid3x2, rows: 3, cols: 2},
		{in: " 1X4 ", want: Grid1x4, rows: 1, cols: 4},
		{in: "4x4", wantFail: true},
		{in: "", wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGridLayout(tt.in)
			if tt.wantFail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rows, got.Rows())
			assert.Equal(t, tt.cols, got.Cols())
			assert.Equal(t, tt.rows*tt.cols, got.Cells())
		})
	}
}

func TestGridLayoutsAllValid(t *testing.T) {
	layouts := GridLayouts()
	assert.Len(t, layouts, 8)
	for _, l := range layouts {
		assert.True(t, l.Valid(), string(l))
	}
	assert.False(t, GridLayout("5x5").Valid())
}
