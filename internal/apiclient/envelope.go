package apiclient

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
)

// Envelope is the wrapper every API response uses.
type Envelope[T any] struct {
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Message string            `json:"message,omitempty"`
	Errors  []json.RawMessage `json:"errors,omitempty"`
}

// Page is a paginated list. A bare JSON array decodes as a single page so
// callers never branch on response shape.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{
			Content:       items,
			TotalPages:    1,
			TotalElements: int64(len(items)),
			Size:          len(items),
		}
		return nil
	}

	var decoded pageFields[T]
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	if decoded.Content == nil {
		decoded.Content = []T{}
	}
	*p = Page[T](decoded)
	return nil
}

// pageFields mirrors Page without its UnmarshalJSON method.
type pageFields[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// PageRequest holds zero-based pagination parameters.
type PageRequest struct {
	Page int
	Size int
	Sort string
}

func (r PageRequest) Values() url.Values {
	page := r.Page
	if page < 0 {
		page = 0
	}
	size := r.Size
	if size < 1 || size > 100 {
		size = 20
	}

	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("size", strconv.Itoa(size))
	if r.Sort != "" {
		values.Set("sort", r.Sort)
	}
	return values
}
