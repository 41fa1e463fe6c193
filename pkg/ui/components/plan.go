package components

import (
	"fmt"
	"strings"

	"github.com/fd1az/fba-sourcing/pkg/ui"
)

// PlanRow is one allocation line, already formatted.
type PlanRow struct {
	ID     string
	Title  string
	Tier   string
	Units  string
	Cost   string
	Profit string
	ROI    string
	Funded bool
}

// PlanComponent renders the allocation table.
type PlanComponent struct {
	rows       []PlanRow
	titleWidth int
}

func NewPlanComponent(titleWidth int) *PlanComponent {
	return &PlanComponent{titleWidth: titleWidth}
}

func (p *PlanComponent) Update(rows []PlanRow) {
	p.rows = rows
}

// View renders the table. Unfunded lines are dimmed.
func (p *PlanComponent) View() string {
	if len(p.rows) == 0 {
		return ui.MutedValue.Render("No eligible candidates.")
	}

	var b strings.Builder
	b.WriteString(ui.HeaderStyle.Render(fmt.Sprintf("PURCHASE PLAN (%d lines)", len(p.rows))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-12s %-*s %-6s %8s %12s %12s %6s\n",
		"ID", p.titleWidth, "TITLE", "TIER", "UNITS", "COST", "PROFIT", "ROI")

	for _, row := range p.rows {
		line := fmt.Sprintf("%-12s %-*s %-6s %8s %12s %12s %6s",
			row.ID, p.titleWidth, truncate(row.Title, p.titleWidth), row.Tier,
			row.Units, row.Cost, row.Profit, row.ROI)
		if row.Funded {
			b.WriteString(ui.PositiveValue.Render(line))
		} else {
			b.WriteString(ui.MutedValue.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
