package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/Veraticus/autobudget/internal/model"
)

// PreviewImport uploads a CSV file for parsing. Nothing is persisted by the
// backend; the returned preview is meant for review.
func (c *Client) PreviewImport(ctx context.Context, filename string, file io.Reader) (model.ImportPreview, error) {
	body, contentType, err := multipartFile(filename, file)
	if err != nil {
		return model.ImportPreview{}, err
	}

	var preview model.ImportPreview
	req := request{
		method:      http.MethodPost,
		path:        "/expenses/import/preview",
		body:        body,
		contentType: contentType,
	}
	if err := c.do(ctx, req, &preview); err != nil {
		return model.ImportPreview{}, err
	}
	return preview, nil
}

// SaveImportBatch persists reviewed transactions in one request.
func (c *Client) SaveImportBatch(ctx context.Context, transactions []model.ImportedTransaction) error {
	req, err := jsonRequest(http.MethodPost, "/expenses/import/batch", model.ImportBatch{Transactions: transactions})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// multipartFile encodes file as the "file" field of a multipart body.
func multipartFile(filename string, file io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to read import file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
