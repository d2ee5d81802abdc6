package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/autobudget/internal/model"
)

// ListCategories returns every category of the current user.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, request{method: http.MethodGet, path: "/categories"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	return c.sendCategory(ctx, http.MethodPost, "/categories", in)
}

// UpdateCategory replaces a category's name and type.
func (c *Client) UpdateCategory(ctx context.Context, id int, in model.CategoryInput) (model.Category, error) {
	return c.sendCategory(ctx, http.MethodPut, categoryPath(id), in)
}

// PatchCategory changes only the fields set in patch.
func (c *Client) PatchCategory(ctx context.Context, id int, patch model.CategoryPatch) (model.Category, error) {
	return c.sendCategory(ctx, http.MethodPatch, categoryPath(id), patch)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: categoryPath(id)}, nil)
}

func (c *Client) sendCategory(ctx context.Context, method, path string, payload any) (model.Category, error) {
	req, err := jsonRequest(method, path, payload)
	if err != nil {
		return model.Category{}, err
	}
	var category model.Category
	if err := c.do(ctx, req, &category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

func categoryPath(id int) string {
	return fmt.Sprintf("/categories/%d", id)
}
