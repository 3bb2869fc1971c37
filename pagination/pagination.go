// Package pagination parses the offset-based page/per_page query contract
// shared by every list endpoint.
package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxPerPage = 100

// Params holds the clamped pagination inputs for one list request.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Parse reads page and per_page from the query string. Missing or malformed
// values fall back to page 1 and the given default size; per_page is capped
// at 100. A page past the end of the collection is legal and simply yields
// an empty items list.
func Parse(c *gin.Context, defaultPerPage int) Params {
	if defaultPerPage <= 0 {
		defaultPerPage = 10
	}

	page := 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			page = value
		}
	}

	perPage := defaultPerPage
	if raw := strings.TrimSpace(c.Query("per_page")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			if value > maxPerPage {
				value = maxPerPage
			}
			perPage = value
		}
	}

	return Params{Page: page, PerPage: perPage}
}

// Offset converts the 1-indexed page into a row offset.
func (p Params) Offset() int {
	offset := (p.Page - 1) * p.PerPage
	if offset < 0 {
		return 0
	}
	return offset
}

// Pages returns the total page count for the collection size.
func (p Params) Pages(total int64) int {
	if total <= 0 || p.PerPage <= 0 {
		return 0
	}
	pages := int(total) / p.PerPage
	if int(total)%p.PerPage != 0 {
		pages++
	}
	return pages
}
