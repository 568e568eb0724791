package presentation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

func snapshotOf(mode types.ViewMode, layout types.GridLayout, active types.TerminalID, ids ...types.TerminalID) session.Snapshot {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := session.Snapshot{
		Scope:      "/proj/a",
		ActiveID:   active,
		ViewMode:   mode,
		GridLayout: layout,
		Live:       len(ids),
		Tracked:    ids,
	}
	for i, tid := range ids {
		snap.Sessions = append(snap.Sessions, session.Session{
			ID:        tid,
			Name:      "Terminal " + string(tid[len("term-"):]),
			Scope:     "/proj/a",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Active:    tid == active,
		})
	}
	return snap
}

func slotIDs(plan presentation.Plan) []types.TerminalID {
	out := make([]types.TerminalID, len(plan.Slots))
	for i, slot := range plan.Slots {
		out[i] = slot.ID
	}
	return out
}

func TestBuildPlanTabs(t *testing.T) {
	snap := snapshotOf(types.ViewTabs, types.Grid2x2, "term-2", "term-1", "term-2", "term-3")
	plan := presentation.BuildPlan(snap, presentation.PlanOptions{})

	assert.Equal(t, types.ViewTabs, plan.Mode)
	assert.Equal(t, 1, plan.Rows)
	assert.Equal(t, 1, plan.Cols)
	assert.Equal(t, []presentation.Slot{{ID: "term-2"}}, plan.Slots)
	assert.Equal(t, []types.TerminalID{"term-1", "term-3"}, plan.Hidden)

	assert.Len(t, plan.Tabs, 3)
	assert.True(t, plan.Tabs[1].Active)
	assert.Equal(t, "Terminal 1", plan.Tabs[0].Title)
}

func TestBuildPlanTabsWithoutSessions(t *testing.T) {
	plan := presentation.BuildPlan(snapshotOf(types.ViewTabs, types.Grid2x2, ""), presentation.PlanOptions{})
	assert.Empty(t, plan.Slots)
	assert.Empty(t, plan.Tabs)
	assert.Empty(t, plan.Hidden)
}

func TestBuildPlanGrid(t *testing.T) {
	tests := []struct {
		name   string
		layout types.GridLayout
		ids    []types.TerminalID
		slots  []presentation.Slot
		hidden []types.TerminalID
	}{
		{
			name:   "fewer sessions than cells",
			layout: types.Grid2x2,
			ids:    []types.TerminalID{"term-1", "term-2", "term-3"},
			slots: []presentation.Slot{
				{Index: 0, Row: 0, Col: 0, ID: "term-1"},
				{Index: 1, Row: 0, Col: 1, ID: "term-2"},
				{Index: 2, Row: 1, Col: 0, ID: "term-3"},
			},
		},
		{
			name:   "extra sessions are hidden",
			layout: types.Grid1x2,
			ids:    []types.TerminalID{"term-1", "term-2", "term-3", "term-4"},
			slots: []presentation.Slot{
				{Index: 0, Row: 0, Col: 0, ID: "term-1"},
				{Index: 1, Row: 0, Col: 1, ID: "term-2"},
			},
			hidden: []types.TerminalID{"term-3", "term-4"},
		},
		{
			name:   "column layout",
			layout: types.Grid3x1,
			ids:    []types.TerminalID{"term-4", "term-7"},
			slots: []presentation.Slot{
				{Index: 0, Row: 0, Col: 0, ID: "term-4"},
				{Index: 1, Row: 1, Col: 0, ID: "term-7"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshotOf(types.ViewGrid, tt.layout, tt.ids[0], tt.ids...)
			plan := presentation.BuildPlan(snap, presentation.PlanOptions{})

			assert.Equal(t, types.ViewGrid, plan.Mode)
			assert.Equal(t, tt.layout.Rows(), plan.Rows)
			assert.Equal(t, tt.layout.Cols(), plan.Cols)
			assert.Equal(t, tt.slots, plan.Slots)
			assert.Equal(t, tt.hidden, plan.Hidden)
			assert.Len(t, plan.Tabs, len(tt.ids))
		})
	}
}

func TestBuildPlanTruncatesTitles(t *testing.T) {
	snap := snapshotOf(types.ViewTabs, types.Grid2x2, "term-1", "term-1", "term-2")
	snap.Sessions[0].CustomName = "a very long build watcher name"
	snap.Sessions[1].CustomName = "日本語のターミナル"

	plan := presentation.BuildPlan(snap, presentation.PlanOptions{MaxTitleWidth: 10})

	assert.Equal(t, "a very lo…", plan.Tabs[0].Title)
	assert.Equal(t, "日本語の…", plan.Tabs[1].Title)
}

func TestBuildPlanIsPure(t *testing.T) {
	snap := snapshotOf(types.ViewGrid, types.Grid2x2, "term-1", "term-1", "term-2")
	first := presentation.BuildPlan(snap, presentation.PlanOptions{})
	second := presentation.BuildPlan(snap, presentation.PlanOptions{})
	assert.Equal(t, first, second)
	assert.Equal(t, []types.TerminalID{"term-1", "term-2"}, slotIDs(first))
}
