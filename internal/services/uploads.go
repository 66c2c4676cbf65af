package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/safar/flowerstore/internal/apiclient"
)

type UploadService struct {
	client *apiclient.Client
}

type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Image uploads one image as multipart form field "file".
func (s *UploadService) Image(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close multipart writer: %w", err)
	}

	return call[UploadResult](ctx, s.client, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/upload/image",
		RawBody:     body.Bytes(),
		ContentType: mw.FormDataContentType(),
	})
}

func (s *UploadService) Delete(ctx context.Context, key string) error {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/upload/image",
		Query:  url.Values{"key": {key}},
	}, nil)
}
