package utils

import (
	"fmt"
	"io"
	"strings"
)

// FormatRows writes rows as an aligned plain-text table. Each row maps column
// name to value; fields controls column order. Missing values render empty.
func FormatRows(w io.Writer, rows []map[string]string, fields []string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}

	widths := make([]int, len(fields))
	for i, f := range fields {
		widths[i] = len(f)
		for _, r := range rows {
			if n := len(r[f]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	header := make([]string, len(fields))
	sep := make([]string, len(fields))
	for i, f := range fields {
		header[i] = pad(f, widths[i])
		sep[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, strings.Join(header, " | "))
	fmt.Fprintln(w, strings.Join(sep, "-+-"))

	for _, r := range rows {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = pad(r[f], widths[i])
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
