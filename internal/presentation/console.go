// Package presentation renders cycle results: console tables for the CLI and
// a websocket feed for live dashboards.
package presentation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wonny/movers/internal/contracts"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B50FF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	upStyle     = cellStyle.Foreground(lipgloss.Color("#00FFB2"))
	downStyle   = cellStyle.Foreground(lipgloss.Color("#E94090"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#858392")).Italic(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D4C57"))
)

// Console writes cycle results as tables
type Console struct {
	w io.Writer
}

// NewConsole creates a console presenter writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Present writes the fetched table followed by both leaderboards
func (c *Console) Present(_ context.Context, result *contracts.CycleResult) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Screened %d of %d symbols", len(result.Scored), len(result.Universe))))
	b.WriteString("\n")
	b.WriteString(RenderSnapshots(result.Scored))
	b.WriteString("\n")

	if len(result.Skipped) > 0 {
		for _, s := range result.Skipped {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("skipped %s: %s", s.Symbol, s.Reason)))
			b.WriteString("\n")
		}
	}

	for _, board := range result.Boards {
		b.WriteString("\n")
		b.WriteString(RenderBoard(board))
		b.WriteString("\n")
	}

	_, err := io.WriteString(c.w, b.String())
	return err
}

// RenderSnapshots renders every fetched snapshot, admitted or not
func RenderSnapshots(scored []contracts.ScoredSnapshot) string {
	rows := make([][]string, 0, len(scored))
	trends := make([]contracts.Trend, 0, len(scored))
	for _, s := range scored {
		admitted := ""
		if s.Admitted {
			admitted = "✓"
		}
		rows = append(rows, []string{
			s.Symbol,
			s.Price.StringFixed(2),
			s.ChangeDisplay(),
			s.ValuationDisplay(),
			s.ReasonsDisplay(),
			admitted,
		})
		trends = append(trends, s.Trend)
	}

	return newTable(trends, "Symbol", "Price", "Change", "P/E", "Reasons", "Admitted").
		Rows(rows...).
		String()
}

// RenderBoard renders one leaderboard, or its empty label
func RenderBoard(view contracts.BoardView) string {
	var b strings.Builder
	title := boardTitle(view.Kind)
	if !view.ValidUntil.IsZero() {
		title += fmt.Sprintf(" (until %s)", view.ValidUntil.Format("2006-01-02 15:04"))
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if view.Error != "" {
		b.WriteString(downStyle.Render("error: " + view.Error))
		b.WriteString("\n")
	}

	if len(view.Entries) == 0 {
		b.WriteString(mutedStyle.Render(view.Kind.EmptyLabel()))
		return b.String()
	}

	rows := make([][]string, 0, len(view.Entries))
	trends := make([]contracts.Trend, 0, len(view.Entries))
	for i, s := range view.Entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			s.Symbol,
			s.Price.StringFixed(2),
			s.ChangeDisplay(),
			s.ValuationDisplay(),
			s.ReasonsDisplay(),
		})
		trends = append(trends, s.Trend)
	}

	b.WriteString(newTable(trends, "#", "Symbol", "Price", "Change", "P/E", "Reasons").Rows(rows...).String())
	return b.String()
}

func boardTitle(kind contracts.Kind) string {
	switch kind {
	case contracts.Daily:
		return "Today's top stocks"
	case contracts.Weekly:
		return "This week's top stocks"
	}
	return string(kind)
}

// newTable colors the change column by trend
func newTable(trends []contracts.Trend, headers ...string) *table.Table {
	changeCol := -1
	for i, h := range headers {
		if h == "Change" {
			changeCol = i
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == changeCol && row >= 0 && row < len(trends) {
				if trends[row] == contracts.TrendUpward {
					return upStyle
				}
				return downStyle
			}
			return cellStyle
		})
}
