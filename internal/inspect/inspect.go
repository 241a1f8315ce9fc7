// Package inspect formats per-layer query results for human inspection on
// the debug path: columns reordered by role, the hidden name placeholder
// stripped, server notices relayed alongside the rows.
package inspect

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
)

// DefaultMaxCellWidth caps a rendered cell before truncation. Geometry
// text gets long fast; the table stays comparable at a glance.
const DefaultMaxCellWidth = 60

// LayerResult is one layer's raw execution result: the projected columns
// as the builder declared them, the row values in projection order, and
// the server notices captured while the query ran. The notice buffer must
// be drained per layer by the caller so messages are never attributed to
// the wrong layer.
type LayerResult struct {
	LayerID string
	Columns []sqltomvt.Column
	Rows    [][]interface{}
	Notices []domain.Notice
}

// Options tune display only; they never change which rows exist.
type Options struct {
	// MaxCellWidth truncates longer cells. Zero means DefaultMaxCellWidth.
	MaxCellWidth int
}

// Report is the displayable form of one layer's rows.
type Report struct {
	LayerID string
	Columns []string
	Rows    [][]string

	// NamesHidden records that the hidden name placeholder was present
	// and stripped, so callers can surface a "names hidden" notice.
	NamesHidden bool

	Notices []domain.Notice
}

// displayRank orders columns for inspection: key field first, attributes
// alphabetically, diagnostics last in a fixed relative order. The order
// is purely cosmetic, chosen so ad hoc comparisons line up.
func displayRank(kind sqltomvt.ColumnKind) int {
	switch kind {
	case sqltomvt.KindKey:
		return 0
	case sqltomvt.KindAttribute:
		return 1
	case sqltomvt.KindMVTValidity:
		return 2
	case sqltomvt.KindEncodedGeometry:
		return 3
	case sqltomvt.KindGeomValidity:
		return 4
	case sqltomvt.KindGeometry:
		return 5
	default:
		return 6
	}
}

// FormatRows reorders and stringifies a layer result for display. The
// hidden name placeholder is stripped and recorded; every other column
// survives, values formatted and truncated per Options.
func FormatRows(result LayerResult, opts Options) (*Report, error) {
	width := opts.MaxCellWidth
	if width <= 0 {
		width = DefaultMaxCellWidth
	}

	report := &Report{
		LayerID: result.LayerID,
		Notices: result.Notices,
	}

	keep := make([]int, 0, len(result.Columns))
	for i, col := range result.Columns {
		if col.Kind == sqltomvt.KindHiddenName {
			report.NamesHidden = true
			continue
		}
		keep = append(keep, i)
	}

	sort.SliceStable(keep, func(a, b int) bool {
		ca, cb := result.Columns[keep[a]], result.Columns[keep[b]]
		ra, rb := displayRank(ca.Kind), displayRank(cb.Kind)
		if ra != rb {
			return ra < rb
		}
		if ca.Kind == sqltomvt.KindAttribute {
			return ca.Alias < cb.Alias
		}
		return false
	})

	report.Columns = make([]string, len(keep))
	for i, idx := range keep {
		report.Columns[i] = result.Columns[idx].Alias
	}

	report.Rows = make([][]string, 0, len(result.Rows))
	for rowNum, row := range result.Rows {
		if len(row) != len(result.Columns) {
			return nil, errors.Newf(errors.ErrInternalServer,
				"row %d has %d values, expected %d", rowNum, len(row), len(result.Columns))
		}
		cells := make([]string, len(keep))
		for i, idx := range keep {
			cells[i] = formatValue(row[idx], width)
		}
		report.Rows = append(report.Rows, cells)
	}
	return report, nil
}

// Render writes the layer header, the hidden-names notice, relayed server
// notices and the aligned table.
func (r *Report) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "==== %s: %d features ====\n", r.LayerID, len(r.Rows)); err != nil {
		return err
	}
	if r.NamesHidden {
		if _, err := fmt.Fprintln(w, "(name columns are hidden, request locales to resolve them)"); err != nil {
			return err
		}
	}
	for _, n := range r.Notices {
		if _, err := fmt.Fprintln(w, n.String()); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func formatValue(v interface{}, width int) string {
	var s string
	switch val := v.(type) {
	case nil:
		s = "NULL"
	case []byte:
		s = fmt.Sprintf("%d bytes", len(val))
	case string:
		s = val
	default:
		s = fmt.Sprint(val)
	}
	return truncate(s, width)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
