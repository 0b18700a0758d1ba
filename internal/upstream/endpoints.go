package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

func decodeJSON(resp *http.Response, out any) error {
	defer drain(resp)
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream: %w: decode response: %v", model.ErrUpstreamProtocol, err)
	}
	return nil
}

// Statistics fetches GET /api/statistics/.
func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/statistics/", nil)
	if err != nil {
		return Statistics{}, err
	}
	var stats Statistics
	if err := decodeJSON(resp, &stats); err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

// ListDocuments fetches one page of GET /api/documents/, ordered by
// descending modified time (spec §6), which the sync engine relies on for
// early termination of incremental syncs.
func (c *Client) ListDocuments(ctx context.Context, page, pageSize int) (DocumentListPage, error) {
	query := url.Values{
		"page":      {strconv.Itoa(page)},
		"page_size": {strconv.Itoa(pageSize)},
		"ordering":  {"-modified"},
	}
	resp, err := c.do(ctx, http.MethodGet, "/api/documents/", query)
	if err != nil {
		return DocumentListPage{}, err
	}
	var out DocumentListPage
	if err := decodeJSON(resp, &out); err != nil {
		return DocumentListPage{}, err
	}
	return out, nil
}

// GetDocument fetches GET /api/documents/{id}/.
func (c *Client) GetDocument(ctx context.Context, id int64) (Document, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/documents/%d/", id), nil)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := decodeJSON(resp, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// GetDocumentMetadata fetches GET /api/documents/{id}/metadata/.
func (c *Client) GetDocumentMetadata(ctx context.Context, id int64) (DocumentMetadata, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/documents/%d/metadata/", id), nil)
	if err != nil {
		return DocumentMetadata{}, err
	}
	var meta DocumentMetadata
	if err := decodeJSON(resp, &meta); err != nil {
		return DocumentMetadata{}, err
	}
	return meta, nil
}

// DeleteDocument issues DELETE /api/documents/{id}/, expecting 204.
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/documents/%d/", id), nil)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// referenceEndpoint is shared by Tags, Correspondents, and DocumentTypes:
// all three are paginated name/id tables of identical shape.
func (c *Client) referenceEndpoint(ctx context.Context, path string) (map[int64]string, error) {
	out := make(map[int64]string)
	page := 1
	for {
		query := url.Values{"page": {strconv.Itoa(page)}, "page_size": {"200"}}
		resp, err := c.do(ctx, http.MethodGet, path, query)
		if err != nil {
			return nil, err
		}
		var pageResult referencePage
		if err := decodeJSON(resp, &pageResult); err != nil {
			return nil, err
		}
		for _, item := range pageResult.Results {
			out[item.ID] = item.Name
		}
		if pageResult.Next == nil || *pageResult.Next == "" {
			return out, nil
		}
		page++
	}
}

// Tags fetches every row of GET /api/tags/.
func (c *Client) Tags(ctx context.Context) (map[int64]string, error) {
	return c.referenceEndpoint(ctx, "/api/tags/")
}

// Correspondents fetches every row of GET /api/correspondents/.
func (c *Client) Correspondents(ctx context.Context) (map[int64]string, error) {
	return c.referenceEndpoint(ctx, "/api/correspondents/")
}

// DocumentTypes fetches every row of GET /api/document_types/.
func (c *Client) DocumentTypes(ctx context.Context) (map[int64]string, error) {
	return c.referenceEndpoint(ctx, "/api/document_types/")
}
