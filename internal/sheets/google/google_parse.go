package google

import (
	"fmt"
	"strings"
)

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// normalizeRows converts a values matrix (as returned by the Sheets API) to
// trimmed strings, dropping blank rows and "#" comment rows. Header names are
// lower-cased so they match the CSV import columns.
func normalizeRows(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	header := true
	for _, raw := range values {
		row := toStrings(raw)
		if isBlank(row) || strings.HasPrefix(row[0], "#") {
			continue
		}
		if header {
			for i := range row {
				row[i] = strings.ToLower(row[i])
			}
			header = false
		}
		out = append(out, row)
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
