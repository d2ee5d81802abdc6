package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
)

// CategorySums returns per-day per-category sums between start and end
// inclusive. An empty categoryIDs means every category.
func (c *Client) CategorySums(ctx context.Context, start, end time.Time, categoryIDs []int) ([]model.CategorySum, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(model.DateLayout))
	q.Set("end_date", end.Format(model.DateLayout))
	addCategoryIDs(q, categoryIDs)

	var sums []model.CategorySum
	req := request{method: http.MethodGet, path: "/analytics/category-sums", query: q}
	if err := c.do(ctx, req, &sums); err != nil {
		return nil, err
	}
	return sums, nil
}
