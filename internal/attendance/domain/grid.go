package domain

import "github.com/shopspring/decimal"

// CellDefault decides what an empty cell shows
type CellDefault string

const (
	// CellDefaultUnset shows the neutral marker
	CellDefaultUnset CellDefault = "unset"
	// CellDefaultWorkLocation shows present-home or present-office from the
	// agent's work location flag
	CellDefaultWorkLocation CellDefault = "work-location"
)

// StatusFor returns the default status of an empty cell for agent
func (c CellDefault) StatusFor(agent Agent) Status {
	if c != CellDefaultWorkLocation {
		return StatusUnset
	}
	if agent.WorksFromHome {
		return StatusPresentHome
	}
	return StatusPresentOffice
}

// Cell is one (agent, day) position of the grid
type Cell struct {
	Date       string
	Status     Status
	ExtraHours decimal.Decimal
	// Recorded is false when the cell shows a default rather than an entry
	Recorded bool
}

// GridRow is one agent's week
type GridRow struct {
	Agent Agent
	Cells [DaysPerWeek]Cell
}

// WeekGrid is the assembled week view, one row per agent in directory order
type WeekGrid struct {
	Window WeekWindow
	Rows   []GridRow
}

// ByAgent indexes the rows by agent id
func (g WeekGrid) ByAgent() map[string][DaysPerWeek]Cell {
	out := make(map[string][DaysPerWeek]Cell, len(g.Rows))
	for _, row := range g.Rows {
		out[row.Agent.ID] = row.Cells
	}
	return out
}

// AssembleGrid lays entries over the window. Every agent gets exactly one
// row with seven cells even without entries; entries of unknown agents or
// outside the window are dropped.
func AssembleGrid(window WeekWindow, agents []Agent, entries []Entry, def CellDefault) WeekGrid {
	rows := make([]GridRow, 0, len(agents))
	index := make(map[string]int, len(agents))

	for _, agent := range agents {
		if _, dup := index[agent.ID]; dup {
			continue
		}
		row := GridRow{Agent: agent}
		for i, day := range window.Days {
			row.Cells[i] = Cell{
				Date:       day.Date,
				Status:     def.StatusFor(agent),
				ExtraHours: decimal.Zero,
			}
		}
		index[agent.ID] = len(rows)
		rows = append(rows, row)
	}

	for _, e := range entries {
		r, ok := index[e.AgentID]
		if !ok {
			continue
		}
		col := window.Index(e.Date)
		if col < 0 {
			continue
		}
		cell := &rows[r].Cells[col]
		cell.Status = e.Status
		cell.ExtraHours = e.ExtraHours
		cell.Recorded = true
	}

	return WeekGrid{Window: window, Rows: rows}
}
