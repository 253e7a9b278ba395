package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/logview/internal/domain/logs"
	"github.com/kailas-cloud/logview/internal/domain/timestamp"
	logsuc "github.com/kailas-cloud/logview/internal/usecase/logs"
	"github.com/kailas-cloud/logview/internal/usecase/table"
)

// Renderer writes log viewer results to an output stream.
type Renderer interface {
	// View renders one page. details holds the expanded rows by row key.
	View(v *logsuc.View, details map[string]table.Detail) error
	Fields(fields []string) error
	History(queries []string) error
}

// ---------------------------------------------------------------------------
// Text Renderer (styled terminal table)
// ---------------------------------------------------------------------------

// PreviewLines is the number of lines a document preview is clamped to.
const PreviewLines = 4

const (
	defaultPreviewWidth = 100
	maxCellWidth        = 40
	timeWidth           = len(timestamp.Layout)
	columnGap           = "  "
)

// NoDocuments is printed for an empty result.
const NoDocuments = "No documents found"

var (
	styleHeader  = lipgloss.NewStyle().Bold(true).Underline(true)
	styleTime    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")) // cyan
	styleKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	styleSummary = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleEmpty   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleDetail  = lipgloss.NewStyle().PaddingLeft(4)
)

// TextRenderer prints pages as a table: a time column when the data view has a
// timestamp field, then either the selected fields or a clamped document preview.
type TextRenderer struct {
	w            io.Writer
	previewWidth int
}

// NewTextRenderer returns a Renderer writing styled text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w, previewWidth: defaultPreviewWidth}
}

// WithPreviewWidth sets the wrap width of the preview column.
func (r *TextRenderer) WithPreviewWidth(width int) *TextRenderer {
	if width > 0 {
		r.previewWidth = width
	}
	return r
}

// View renders the summary line, the histogram and the table.
func (r *TextRenderer) View(v *logsuc.View, details map[string]table.Detail) error {
	if v.Empty {
		_, err := fmt.Fprintln(r.w, styleEmpty.Render(NoDocuments))
		return err
	}

	var b strings.Builder
	b.WriteString(styleSummary.Render(summary(v)))
	b.WriteString("\n")
	if h := Histogram(v.Buckets); h != "" {
		b.WriteString(styleSummary.Render(h))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	hasTime := v.DataView.TimestampField != ""
	widths := r.columnWidths(v, hasTime)

	b.WriteString(r.line(headerCells(v.Columns, widths, hasTime)))
	b.WriteString("\n")
	for _, row := range v.Rows {
		b.WriteString(r.line(r.rowCells(row, widths, hasTime)))
		b.WriteString("\n")
		if d, ok := details[row.Key]; ok {
			b.WriteString(styleDetail.Render(renderDetail(d)))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Fields prints one field per line.
func (r *TextRenderer) Fields(fields []string) error {
	for _, f := range fields {
		if _, err := fmt.Fprintln(r.w, f); err != nil {
			return err
		}
	}
	return nil
}

// History prints the queries oldest first, numbered.
func (r *TextRenderer) History(queries []string) error {
	for i, q := range queries {
		if _, err := fmt.Fprintf(r.w, "%s %s\n", styleKey.Render(fmt.Sprintf("%3d", i+1)), q); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) columnWidths(v *logsuc.View, hasTime bool) []int {
	cols := v.Columns
	if hasTime {
		cols = cols[1:]
	}
	widths := make([]int, len(cols))
	if len(v.Rows) > 0 && v.Rows[0].Cells == nil {
		widths[0] = r.previewWidth
		return widths
	}
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range v.Rows {
		for i, cell := range row.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxCellWidth)
	}
	return widths
}

func headerCells(columns []string, widths []int, hasTime bool) []string {
	cells := make([]string, 0, len(columns))
	if hasTime {
		cells = append(cells, styleHeader.Render(pad(columns[0], timeWidth)))
		columns = columns[1:]
	}
	for i, c := range columns {
		cells = append(cells, styleHeader.Render(pad(truncate(c, widths[i]), widths[i])))
	}
	return cells
}

func (r *TextRenderer) rowCells(row table.Row, widths []int, hasTime bool) []string {
	cells := make([]string, 0, len(widths)+1)
	if hasTime {
		cells = append(cells, styleTime.Render(pad(row.Timestamp, timeWidth)))
	}
	if row.Cells == nil {
		return append(cells, Preview(row, widths[0]))
	}
	for i, c := range row.Cells {
		cells = append(cells, pad(truncate(c, widths[i]), widths[i]))
	}
	return cells
}

func (r *TextRenderer) line(cells []string) string {
	joined := make([]string, 0, 2*len(cells))
	for i, c := range cells {
		if i > 0 {
			joined = append(joined, columnGap)
		}
		joined = append(joined, c)
	}
	return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, joined...), " ")
}

// Preview renders the flattened pairs of a row wrapped to width and clamped
// to PreviewLines lines.
func Preview(row table.Row, width int) string {
	pairs := make([]string, len(row.Preview))
	for i, kv := range row.Preview {
		pairs[i] = styleKey.Render(kv.Key+":") + " " + kv.Value.Text()
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(strings.Join(pairs, " "))
	lines := strings.Split(wrapped, "\n")
	if len(lines) > PreviewLines {
		lines = lines[:PreviewLines]
		lines[PreviewLines-1] = strings.TrimRight(lines[PreviewLines-1], " ") + " …"
	}
	return strings.Join(lines, "\n")
}

// Histogram renders bucket counts as a one-line bar chart.
func Histogram(buckets []logs.Bucket) string {
	if len(buckets) == 0 {
		return ""
	}
	bars := []rune("▁▂▃▄▅▆▇█")
	var peak int64
	for _, b := range buckets {
		peak = max(peak, b.DocCount)
	}
	out := make([]rune, len(buckets))
	for i, b := range buckets {
		switch {
		case b.DocCount == 0:
			out[i] = ' '
		case peak == 0:
			out[i] = bars[0]
		default:
			out[i] = bars[int((b.DocCount*int64(len(bars)-1)+peak-1)/peak)]
		}
	}
	return string(out)
}

func summary(v *logsuc.View) string {
	pages := (v.Documents + v.Options.PerPage - 1) / max(v.Options.PerPage, 1)
	return fmt.Sprintf("%d hits in %d ms, %d documents loaded, page %d of %d",
		v.Hits, v.Took, v.Documents, v.Options.Page, max(pages, 1))
}

func renderDetail(d table.Detail) string {
	lines := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		lines[i] = styleKey.Render(f.Key+":") + " " + f.Value.Text()
	}
	return strings.Join(lines, "\n")
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 || len(r) <= 1 {
		return string(r[:min(len(r), width)])
	}
	return string(r[:width-1]) + "…"
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints results as JSON objects, one per call.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

// View encodes the page, with the expanded rows under "details".
func (r *JSONRenderer) View(v *logsuc.View, details map[string]table.Detail) error {
	if len(details) == 0 {
		return r.enc.Encode(v)
	}
	return r.enc.Encode(struct {
		*logsuc.View
		Details map[string]table.Detail `json:"details"`
	}{v, details})
}

// Fields encodes the field list.
func (r *JSONRenderer) Fields(fields []string) error {
	return r.enc.Encode(map[string][]string{"fields": nonNil(fields)})
}

// History encodes the query history.
func (r *JSONRenderer) History(queries []string) error {
	return r.enc.Encode(map[string][]string{"queries": nonNil(queries)})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
