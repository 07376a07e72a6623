// Package observability renders the boxed CLI output for import and stats
// commands.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/company-registry/internal/types"
)

const (
	boxWidth       = 60
	maxItemsToShow = 5
)

// Printer writes human-readable summaries, usually to stdout.
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox draws a titled box around content. Lines wider than the box are
// truncated, not wrapped.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title, content string) {
	const inner = boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)

	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", inner, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		if len(line) > inner {
			line = line[:inner-3] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", inner, line)
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintImportSummary outputs the run-end summary of one import run.
func (p *Printer) PrintImportSummary(stats *types.ImportStats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:      %s\n", stats.RunID))
	sb.WriteString(fmt.Sprintf("File:     %s\n", stats.File))
	sb.WriteString(fmt.Sprintf("Mode:     %s\n", stats.Mode))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Imported:  %d\n", stats.Imported))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", stats.Skipped))
	sb.WriteString(fmt.Sprintf("Errored:   %d\n", stats.Errored))
	sb.WriteString(fmt.Sprintf("Malformed: %d\n", stats.Malformed))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Duration: %s", stats.Duration().Round(time.Millisecond)))

	p.printBox("IMPORT SUMMARY", sb.String())
}

// writeTopList appends a ranked value list, capped at maxItemsToShow.
func writeTopList(sb *strings.Builder, heading string, items []types.ValueCount) {
	if len(items) == 0 {
		return
	}

	sb.WriteString("\n" + heading + ":\n")
	shown := min(len(items), maxItemsToShow)
	for _, vc := range items[:shown] {
		sb.WriteString(fmt.Sprintf("  %5d  %s\n", vc.Count, vc.Value))
	}
	if rest := len(items) - shown; rest > 0 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", rest))
	}
}

// PrintRegistryStats outputs the table summary: row count plus the most
// frequent industries and cities.
func (p *Printer) PrintRegistryStats(stats *types.RegistryStats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total companies: %d\n", stats.TotalCompanies))
	writeTopList(&sb, "Top industries", stats.TopIndustries)
	writeTopList(&sb, "Top cities", stats.TopCities)

	p.printBox("REGISTRY STATS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSampleCompanies outputs a few rows so an operator can eyeball the
// import result.
func (p *Printer) PrintSampleCompanies(companies []types.Company) {
	if len(companies) == 0 {
		return
	}

	var sb strings.Builder
	shown := min(len(companies), maxItemsToShow)
	for i, c := range companies[:shown] {
		sb.WriteString(fmt.Sprintf("%s  %s\n", c.BusinessID, c.Name))
		var details []string
		if c.Industry != nil {
			details = append(details, *c.Industry)
		}
		if c.City != nil {
			details = append(details, *c.City)
		}
		if c.RegistrationDate != nil {
			details = append(details, *c.RegistrationDate)
		}
		if len(details) > 0 {
			sb.WriteString(fmt.Sprintf("  %s\n", strings.Join(details, " · ")))
		}
		if i < shown-1 {
			sb.WriteString("\n")
		}
	}
	if rest := len(companies) - shown; rest > 0 {
		sb.WriteString(fmt.Sprintf("\n... and %d more rows", rest))
	}

	p.printBox("SAMPLE ROWS", strings.TrimSuffix(sb.String(), "\n"))
}
