package allpatients

import (
	"sort"
	"strings"
)

// SortRows orders rows in place by a sortable column. Only "name" is
// sortable; other keys leave rows untouched. The sort is stable.
func SortRows(rows []Row, key string, desc bool) {
	if key != "name" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name)
		if desc {
			return a > b
		}
		return a < b
	})
}
