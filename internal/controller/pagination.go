package controller

import (
	"math"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/repository"
)

// Paginator reads the page and limit query parameters.
type Paginator struct {
	defaultSize int
	maxSize     int
}

func NewPaginator(cfg *config.Config) *Paginator {
	return &Paginator{defaultSize: cfg.API.PageSize, maxSize: cfg.API.MaxPageSize}
}

func (p *Paginator) Parse(c *gin.Context) (repository.Page, error) {
	page := repository.Page{Number: 1, Size: p.defaultSize}
	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, apperr.Validation("page", "%q is not a valid page number", raw)
		}
		page.Number = n
	}
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > p.maxSize {
			return page, apperr.Validation("limit", "must be an integer between 1 and %d", p.maxSize)
		}
		page.Size = n
	}
	// Keeps (page-1)*limit inside a 32-bit offset.
	if maxPage := math.MaxInt32/page.Size + 1; page.Number > maxPage {
		return page, apperr.Validation("page", "must be at most %d for limit %d", maxPage, page.Size)
	}
	return page, nil
}

// Paginate wraps one page of results in the list envelope.
func Paginate[T any](c *gin.Context, page repository.Page, count int64, results []T) dto.Paginated[T] {
	if results == nil {
		results = []T{}
	}
	out := dto.Paginated[T]{Count: count, Results: results}
	if int64(page.Number*page.Size) < count {
		out.Next = pageURL(c, page.Number+1, page.Size)
	}
	if page.Number > 1 {
		out.Previous = pageURL(c, page.Number-1, page.Size)
	}
	return out
}

func pageURL(c *gin.Context, number, size int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	query.Set("page", strconv.Itoa(number))
	query.Set("limit", strconv.Itoa(size))

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	s := u.String()
	return &s
}
