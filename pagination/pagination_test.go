package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paramsFor(t *testing.T, query string, defaultPerPage int) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/items"+query, nil)
	return Parse(c, defaultPerPage)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name        string
		query       string
		defaultSize int
		want        Params
	}{
		{"defaults", "", 10, Params{Page: 1, PerPage: 10}},
		{"explicit", "?page=3&per_page=25", 10, Params{Page: 3, PerPage: 25}},
		{"zero page falls back", "?page=0", 10, Params{Page: 1, PerPage: 10}},
		{"negative page falls back", "?page=-2", 10, Params{Page: 1, PerPage: 10}},
		{"garbage falls back", "?page=abc&per_page=xyz", 10, Params{Page: 1, PerPage: 10}},
		{"per_page capped", "?per_page=500", 10, Params{Page: 1, PerPage: 100}},
		{"zero per_page falls back", "?per_page=0", 20, Params{Page: 1, PerPage: 20}},
		{"bad default replaced", "", 0, Params{Page: 1, PerPage: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := paramsFor(t, tc.query, tc.defaultSize)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 1, PerPage: 10}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
	if got := (Params{Page: 4, PerPage: 25}).Offset(); got != 75 {
		t.Fatalf("expected offset 75, got %d", got)
	}
}

func TestPages(t *testing.T) {
	cases := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{100, 25, 4},
		{101, 25, 5},
	}
	for _, tc := range cases {
		got := (Params{Page: 1, PerPage: tc.perPage}).Pages(tc.total)
		if got != tc.want {
			t.Fatalf("Pages(%d) with per_page=%d: expected %d, got %d", tc.total, tc.perPage, tc.want, got)
		}
	}
}
