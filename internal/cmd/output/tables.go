package output

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/passkeyradar/radar/internal/utils/ptr"
	"github.com/passkeyradar/radar/pkg/merger"
)

// Write renders data in format. Table formats use tableData when it is
// non-nil; structured formats always encode data itself.
func Write(w io.Writer, format Format, data any, tableData *Data) error {
	formatter := NewFormatter(format)
	if tableData != nil && format.isTable() {
		return formatter.Format(w, *tableData)
	}
	return formatter.Format(w, data)
}

// EntitiesToTableData builds the entity table. Wide adds alternate names
// and per-source evidence counts.
func EntitiesToTableData(entities []merger.Entity, wide bool) Data {
	headers := []string{"Name", "Domain", "Signin", "MFA", "Sources"}
	align := []Align{AlignLeft, AlignLeft, AlignCenter, AlignCenter, AlignLeft}
	if wide {
		headers = append(headers, "Alt", "Evidence")
		align = append(align, AlignLeft, AlignRight)
	}

	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		row := []string{
			strOrDash(e.Name),
			strOrDash(e.Domain),
			boolMark(e.Signin),
			boolMark(e.MFA),
			strings.Join(sources(e), ", "),
		}
		if wide {
			row = append(row, strings.Join(e.Alt, ", "), strconv.Itoa(evidenceCount(e)))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// ConflictsToTableData builds the conflict log table.
func ConflictsToTableData(conflicts []merger.Conflict) Data {
	rows := make([][]string, 0, len(conflicts))
	for i, c := range conflicts {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Reason,
			strOrDash(c.Entity.Name),
			strOrDash(c.Entity.Domain),
			strings.Join(sources(c.Entity), ", "),
		})
	}
	return Data{
		Headers:         []string{"#", "Reason", "Name", "Domain", "Sources"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}
}

// sources lists the category/subtype pairs that contributed to e.
func sources(e merger.Entity) []string {
	var out []string
	for subtype := range e.Directories {
		out = append(out, "directories/"+subtype)
	}
	for subtype := range e.Wellknown {
		out = append(out, "wellknown/"+subtype)
	}
	sort.Strings(out)
	return out
}

func evidenceCount(e merger.Entity) int {
	n := 0
	for _, recs := range e.Directories {
		n += len(recs)
	}
	for _, recs := range e.Wellknown {
		n += len(recs)
	}
	return n
}

func strOrDash(s *string) string {
	if v := ptr.Deref(s, ""); v != "" {
		return v
	}
	return "-"
}

func boolMark(b *bool) string {
	switch {
	case b == nil:
		return "-"
	case *b:
		return "yes"
	default:
		return "no"
	}
}
