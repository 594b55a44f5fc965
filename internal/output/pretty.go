package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bgricker/adoreport/internal/ado"
	"github.com/bgricker/adoreport/internal/aggregate"
	"github.com/bgricker/adoreport/internal/report"
)

// PrettyRenderer renders pipelines and report rows in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderPipelines lists pipelines grouped by folder.
func (p *PrettyRenderer) RenderPipelines(refs []ado.DefinitionRef) error {
	var folder string
	for i, ref := range refs {
		if i == 0 || ref.Path != folder {
			folder = ref.Path
			if _, err := fmt.Fprintf(p.out, "Folder %s\n", folder); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(p.out, "  • %s #%d%s\n", ref.Name, ref.ID, queueNote(ref.QueueStatus)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.out, "%d pipeline(s)\n", len(refs))
	return err
}

// RenderRows shows one line per report row followed by a summary.
func (p *PrettyRenderer) RenderRows(rows report.Rows, summary aggregate.Summary) error {
	for _, row := range rows {
		name := field(row, report.FieldName)
		glyph := statusGlyph(row)
		line := fmt.Sprintf("%s %s", glyph, name)
		if build := field(row, report.FieldLastBuildID); build != "" {
			line += fmt.Sprintf(" build %s", build)
		}
		if stats := statLine(row); stats != "" {
			line += " (" + stats + ")"
		}
		if _, err := fmt.Fprintln(p.out, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(p.out, "SUMMARY: %d pipelines, %d with test runs, %d without test runs, %d skipped (%s)\n",
		summary.Pipelines, summary.WithTestRun, summary.WithBuild-summary.WithTestRun, summary.Skipped, formatDuration(summary.Duration))
	return err
}

func queueNote(status ado.QueueStatus) string {
	if status == "" || status == ado.QueueEnabled {
		return ""
	}
	return " [" + string(status) + "]"
}

func field(row *report.Row, key string) string {
	v, ok := row.Get(key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func statusGlyph(row *report.Row) string {
	switch {
	case !row.Has(report.FieldLastBuildID):
		return "-"
	case !row.Has(report.FieldRunID):
		return "?"
	default:
		return "✓"
	}
}

// statLine renders outcome counts sorted by outcome label.
func statLine(row *report.Row) string {
	var parts []string
	for _, k := range row.Keys() {
		if !strings.HasPrefix(k, report.StatPrefix) {
			continue
		}
		outcome := strings.TrimPrefix(k, report.StatPrefix)
		parts = append(parts, fmt.Sprintf("%s=%s", outcome, field(row, k)))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
