package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type Pagination struct {
	Page    int    `json:"page"`
	Size    int    `json:"count"`
	OrderBy string `json:"order_by"`
}

const (
	defaultSize = 10
)

func (p *Pagination) SetSize(querySize string) error {
	if querySize == "" {
		p.Size = defaultSize
		return nil
	}
	size, err := strconv.Atoi(querySize)
	if err != nil {
		return fmt.Errorf("invalid size: %w", err)
	}
	p.Size = size
	return nil
}

func (p *Pagination) SetPage(queryPage string) error {
	if queryPage == "" {
		p.Page = 0
		return nil
	}
	page, err := strconv.Atoi(queryPage)
	if err != nil {
		return fmt.Errorf("invalid page: %w", err)
	}
	p.Page = page
	return nil
}

func (p *Pagination) SetOrderBy(queryOrder string) {
	p.OrderBy = queryOrder
}

func (p *Pagination) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetOrderBy turns OrderBy into an ORDER BY clause. OrderBy is a column name
// from columns, optionally prefixed with "-" or suffixed with " desc" or
// " asc". An empty OrderBy yields fallback.
func (p *Pagination) GetOrderBy(columns []string, fallback string) (string, error) {
	order := strings.TrimSpace(p.OrderBy)
	if order == "" {
		return fallback, nil
	}

	direction := "ASC"
	if strings.HasPrefix(order, "-") {
		order, direction = order[1:], "DESC"
	} else if fields := strings.Fields(order); len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "asc":
		case "desc":
			direction = "DESC"
		default:
			return "", fmt.Errorf("invalid order direction: %s", fields[1])
		}
		order = fields[0]
	}

	for _, column := range columns {
		if strings.EqualFold(order, column) {
			return fmt.Sprintf("%s %s, id %s", column, direction, direction), nil
		}
	}
	return "", fmt.Errorf("cannot order by %q", order)
}

func (p *Pagination) GetOffset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.GetLimit()
}

func (p *Pagination) GetLimit() int {
	if p.Size <= 0 {
		return defaultSize
	}
	return p.Size
}

func GetPaginationFromCtx(ctx echo.Context) (*Pagination, error) {
	p := &Pagination{}

	if err := p.SetSize(ctx.QueryParam("size")); err != nil {
		return nil, err
	}
	if err := p.SetPage(ctx.QueryParam("page")); err != nil {
		return nil, err
	}
	p.SetOrderBy(ctx.QueryParam("orderBy"))
	return p, nil
}

func GetTotalPages(totalCount int, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	d := float64(totalCount) / float64(pageSize)
	return int(math.Ceil(d))
}

func GetHasMore(currPage, totalCount, pageSize int) bool {
	return currPage*pageSize < totalCount
}
