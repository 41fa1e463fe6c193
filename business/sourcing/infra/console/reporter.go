// Package console renders run reports for a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	allocationDomain "github.com/fd1az/fba-sourcing/business/allocation/domain"
	"github.com/fd1az/fba-sourcing/business/sourcing/domain"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/pkg/ui"
	"github.com/fd1az/fba-sourcing/pkg/ui/components"
)

const titleWidth = 32

// Reporter implements app.Reporter for CLI output.
type Reporter struct {
	out   io.Writer
	stats *components.StatsComponent
	plan  *components.PlanComponent
}

// NewReporter writes to stdout.
func NewReporter() *Reporter {
	return NewReporterTo(os.Stdout)
}

func NewReporterTo(w io.Writer) *Reporter {
	return &Reporter{
		out:   w,
		stats: components.NewStatsComponent(),
		plan:  components.NewPlanComponent(titleWidth),
	}
}

// Report prints the run header, stage counters, purchase plan and summary.
func (r *Reporter) Report(ctx context.Context, report *domain.Report) error {
	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render("SOURCING RUN"))
	fmt.Fprintf(&b, "\n%s %s  %s %s  %s %s\n\n",
		ui.MutedValue.Render("run"), report.RunID,
		ui.MutedValue.Render("budget"), formatMoney(report.Budget),
		ui.MutedValue.Render("took"), report.Duration().Round(time.Millisecond))

	r.stats.Update(stages(report))
	b.WriteString(r.stats.View())
	b.WriteString("\n\n")

	if report.Plan != nil {
		r.plan.Update(planRows(report.Plan))
		b.WriteString(r.plan.View())
		b.WriteString("\n\n")
		b.WriteString(ui.BoxStyle.Render(summary(report.Plan.Summary)))
		b.WriteString("\n")
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func stages(report *domain.Report) []components.Stage {
	var out []components.Stage
	var current *components.Stage
	for _, c := range report.Counters() {
		if current == nil || current.Title != c.Stage {
			out = append(out, components.Stage{Title: c.Stage})
			current = &out[len(out)-1]
		}
		current.Stats = append(current.Stats, components.StageStat{
			Name:  strings.ReplaceAll(c.Name, "_", " "),
			Value: humanize.Comma(int64(c.Value)),
			Alert: c.Value > 0 && alerting[c.Name],
		})
	}
	return out
}

var alerting = map[string]bool{
	"skipped_invalid":  true,
	"skipped_no_data":  true,
	"discarded":        true,
	"invalid_price":    true,
	"non_positive_roi": true,
	"unmatched":        true,
}

func planRows(plan *allocationDomain.Plan) []components.PlanRow {
	rows := make([]components.PlanRow, 0, len(plan.Lines))
	for _, l := range plan.Lines {
		rows = append(rows, components.PlanRow{
			ID:     l.ID,
			Title:  l.Title,
			Tier:   string(l.Tier),
			Units:  humanize.Comma(int64(l.Units)),
			Cost:   formatMoney(l.TotalCost),
			Profit: formatDecimal(l.EstimatedProfit),
			ROI:    l.ROI.StringFixed(2),
			Funded: l.Units > 0,
		})
	}
	return rows
}

func summary(s allocationDomain.PortfolioSummary) string {
	profit := ui.PositiveValue.Render(formatDecimal(s.TotalProfit))
	if !s.TotalProfit.IsPositive() {
		profit = ui.NegativeValue.Render(formatDecimal(s.TotalProfit))
	}
	return strings.Join([]string{
		fmt.Sprintf("Spent:        %s of %s", ui.StrongValue.Render(formatMoney(s.TotalCost)), formatMoney(s.Budget)),
		fmt.Sprintf("Remaining:    %s", formatMoney(s.RemainingBudget)),
		fmt.Sprintf("Profit:       %s", profit),
		fmt.Sprintf("ROI:          %s (annualized %s)", s.OverallROI.StringFixed(2), s.OverallTemporalROI.StringFixed(2)),
		fmt.Sprintf("Units:        %s across %d lines", humanize.Comma(int64(s.UnitsOrdered)), s.Lines),
	}, "\n")
}

func formatMoney(a money.Amount) string {
	return formatDecimal(a.Decimal())
}

func formatDecimal(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + formatDecimal(d.Neg())
	}
	return "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}
