package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination reads page/limit query params with sane bounds.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

func GetPagination(c *fiber.Ctx) Pagination {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limitParam := c.Query("limit")
	if limitParam == "" {
		limitParam = c.Query("per_page", strconv.Itoa(DefaultPageSize))
	}
	limit, _ := strconv.Atoi(limitParam)
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Pages is the number of pages needed for total rows.
func (p Pagination) Pages(total int64) int {
	return (int(total) + p.Limit - 1) / p.Limit
}

// Envelope wraps a page of results in the shape list endpoints share.
func (p Pagination) Envelope(items any, total int64) fiber.Map {
	return fiber.Map{
		"items": items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
		"pages": p.Pages(total),
	}
}
