// Package report renders a batch summary for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/volumelab/churn/internal/domain"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warn      = lipgloss.AdaptiveColor{Light: "#BF4343", Dark: "#F57373"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(subtle).
			Width(24)

	failStyle = lipgloss.NewStyle().
			Foreground(warn).
			Bold(true)
)

const hundred = 100

// Render produces the final batch report: per-trip lines, totals, the fee
// breakdown when available, and the projection toward targetVolumeUSD.
func Render(pair string, summary domain.BatchSummary, targetVolumeUSD decimal.Decimal) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("CHURN REPORT — %s", pair)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("ROUND TRIPS"))
	b.WriteString("\n")
	for i, r := range summary.Results {
		if r.Success {
			b.WriteString(fmt.Sprintf("  #%-3d volume $%s  cost $%s  buy %s  sell %s\n",
				i+1,
				r.VolumeUSD.StringFixed(2),
				r.CostUSD.StringFixed(4),
				r.BuyPrice.StringFixed(4),
				r.SellPrice.StringFixed(4)))
			continue
		}
		b.WriteString(fmt.Sprintf("  #%-3d %s\n", i+1, failStyle.Render("FAILED: "+r.FailureReason)))
	}

	b.WriteString(sectionStyle.Render("TOTALS"))
	b.WriteString("\n")
	line(&b, "attempted", fmt.Sprintf("%d (%d ok, %d failed)", summary.Attempted, summary.Succeeded, summary.Failed))
	line(&b, "total volume", "$"+summary.TotalVolumeUSD.StringFixed(2))
	line(&b, "total cost", "$"+summary.TotalCostUSD.StringFixed(4))
	line(&b, "quote start → end", fmt.Sprintf("$%s → $%s", summary.StartQuote.StringFixed(2), summary.EndQuote.StringFixed(2)))
	line(&b, "net quote change", "$"+summary.EndQuote.Sub(summary.StartQuote).StringFixed(4))
	line(&b, "elapsed", fmt.Sprintf("%.1fs", summary.ElapsedSeconds))

	if summary.TotalVolumeUSD.GreaterThan(decimal.Zero) {
		costPerDollar := summary.TotalCostUSD.Div(summary.TotalVolumeUSD).Mul(decimal.NewFromInt(hundred))
		line(&b, "cost per $1 volume", costPerDollar.StringFixed(4)+"%")
	}

	if summary.Fee != nil {
		b.WriteString(sectionStyle.Render("FEES"))
		b.WriteString("\n")
		line(&b, "taker fee rate", summary.Fee.Rate.Mul(decimal.NewFromInt(hundred)).StringFixed(3)+"%")
		line(&b, "estimated fees", "$"+summary.Fee.FeeUSD.StringFixed(4))
		spreadLoss := summary.TotalCostUSD.Sub(summary.Fee.FeeUSD)
		line(&b, "estimated spread loss", "$"+spreadLoss.StringFixed(4))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(subtle).Render("  fee breakdown unavailable"))
		b.WriteString("\n")
	}

	if proj := projection(summary, targetVolumeUSD); proj != "" {
		b.WriteString(sectionStyle.Render("PROJECTION"))
		b.WriteString("\n")
		b.WriteString(proj)
	}

	return b.String()
}

func line(b *strings.Builder, label, value string) {
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

// projection extrapolates the trips and cost still needed to reach the target
// cumulative volume from this batch's averages.
func projection(summary domain.BatchSummary, targetVolumeUSD decimal.Decimal) string {
	if summary.Succeeded == 0 || summary.TotalVolumeUSD.LessThanOrEqual(decimal.Zero) || targetVolumeUSD.LessThanOrEqual(decimal.Zero) {
		return ""
	}

	var b strings.Builder
	progress := summary.TotalVolumeUSD.Div(targetVolumeUSD).Mul(decimal.NewFromInt(hundred))
	line(&b, "target volume", "$"+targetVolumeUSD.StringFixed(0))
	line(&b, "batch progress", progress.StringFixed(1)+"%")

	remaining := targetVolumeUSD.Sub(summary.TotalVolumeUSD)
	if remaining.GreaterThan(decimal.Zero) {
		avgVolume := summary.TotalVolumeUSD.Div(decimal.NewFromInt(int64(summary.Succeeded)))
		tripsNeeded := remaining.Div(avgVolume).Ceil()
		avgCost := summary.TotalCostUSD.Div(decimal.NewFromInt(int64(summary.Succeeded)))
		line(&b, "est. trips remaining", tripsNeeded.String())
		line(&b, "est. remaining cost", "$"+tripsNeeded.Mul(avgCost).StringFixed(2))
	}
	return b.String()
}
