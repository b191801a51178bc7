package mysql

import (
	"strings"

	domain "github.com/bryanwahyu/policylens/internal/domain/analysis"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// pageBounds turns a 1-based page into LIMIT/OFFSET.
func pageBounds(page, pageSize int) (limit, offset int) {
	page, pageSize = domain.PageBounds(page, pageSize)
	return pageSize, (page - 1) * pageSize
}
