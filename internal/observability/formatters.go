// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/deck-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDocument outputs a human-readable summary of the parsed document.
func (p *Printer) PrintDocument(doc *types.Document) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Language: %s\n", doc.Language.Lid))
	sb.WriteString(fmt.Sprintf("Sections: %d\n", len(doc.Sections)))
	sb.WriteString(fmt.Sprintf("Media:    %d\n", len(doc.IterMedias())))
	sb.WriteString("\n")

	count := min(len(doc.Sections), maxItemsToShow)
	for i := 0; i < count; i++ {
		section := &doc.Sections[i]
		sb.WriteString(fmt.Sprintf("  • %s (%d subsections)\n", section.Title, len(section.Subsections)))
	}
	if len(doc.Sections) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.Sections)-maxItemsToShow))
	}

	p.printBox("PARSED DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutline outputs the planned slide sequence.
func (p *Printer) PrintOutline(outline types.Outline) {
	if len(outline) == 0 {
		return
	}

	var sb strings.Builder
	for i, item := range outline {
		tag := ""
		if item.Kind != types.OutlineContent {
			tag = fmt.Sprintf(" [%s]", item.Kind)
		}
		sb.WriteString(fmt.Sprintf("%2d. %s%s\n", i+1, item.Purpose, tag))
	}

	p.printBox("SLIDE OUTLINE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintHistory outputs per-role call counts and the code-edit outcome tally.
func (p *Printer) PrintHistory(history *types.History) {
	if history == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("Agent calls:\n")
	for role, records := range history.Agents {
		failed := 0
		for _, r := range records {
			if r.Error != "" {
				failed++
			}
		}
		sb.WriteString(fmt.Sprintf("  %-18s %3d calls, %d failed\n", role, len(records), failed))
	}

	correct := 0
	for _, record := range history.CodeHistory {
		if record.Outcome == types.OutcomeCorrect {
			correct++
		}
	}
	sb.WriteString(fmt.Sprintf("\nCode blocks: %d (%d applied cleanly)\n", len(history.CodeHistory), correct))
	sb.WriteString(fmt.Sprintf("API calls:   %d\n", len(history.APIHistory)))

	p.printBox("GENERATION HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}
