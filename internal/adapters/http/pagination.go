package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with offset pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// SetLinkHeaders emits RFC 8288 Link headers (first/prev/next/last) for the
// current page, keyed off the request path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()

	link := func(rel string, offset int) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel=%q`, base, offset, p.Limit, rel)
	}

	lastOffset := p.Total - p.Limit
	if lastOffset < 0 {
		lastOffset = 0
	}

	links := []string{link("first", 0)}
	if prev := p.Offset - p.Limit; p.Offset > 0 {
		if prev < 0 {
			prev = 0
		}
		links = append(links, link("prev", prev))
	}
	if next := p.Offset + p.Limit; next < p.Total {
		links = append(links, link("next", next))
	}
	links = append(links, link("last", lastOffset))

	c.Set(fiber.HeaderLink, strings.Join(links, ", "))
}
