// Package components provides render helpers for run reports.
package components

import (
	"fmt"
	"strings"

	"github.com/fd1az/fba-sourcing/pkg/ui"
)

// StageStat is one counter line.
type StageStat struct {
	Name  string
	Value string
	// Alert highlights a non-zero failure counter.
	Alert bool
}

// Stage groups the counters of one pipeline stage.
type Stage struct {
	Title string
	Stats []StageStat
}

// StatsComponent renders stage counters side by side per stage.
type StatsComponent struct {
	stages []Stage
}

func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the displayed stages.
func (s *StatsComponent) Update(stages []Stage) {
	s.stages = stages
}

// View renders one line per stage.
func (s *StatsComponent) View() string {
	if len(s.stages) == 0 {
		return ui.MutedValue.Render("No stages ran.")
	}

	var b strings.Builder
	b.WriteString(ui.HeaderStyle.Render("STAGES"))
	for _, stage := range s.stages {
		parts := make([]string, 0, len(stage.Stats))
		for _, st := range stage.Stats {
			value := ui.StrongValue.Render(st.Value)
			if st.Alert {
				value = ui.WarningValue.Render(st.Value)
			}
			parts = append(parts, fmt.Sprintf("%s: %s", st.Name, value))
		}
		fmt.Fprintf(&b, "\n%-14s %s", ui.MutedValue.Render(stage.Title), strings.Join(parts, "  │  "))
	}
	return b.String()
}
