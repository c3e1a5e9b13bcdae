package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	contentType    = "application/json"
	acceptEncoding = "gzip"
)

// Row is a single decoded JSON object from a table response.
type Row = map[string]any

// getRows makes GET requests against a table and returns rows from all pages.
// Pagination uses limit/offset and stops on the first short page.
func (c *Client) getRows(ctx context.Context, table string, q url.Values) ([]Row, error) {
	var rows []Row

	limit := c.PageSize
	if limit <= 0 {
		limit = pageSize
	}

	for offset := 0; ; offset += limit {
		page := cloneValues(q)
		page.Set("limit", strconv.Itoa(limit))
		page.Set("offset", strconv.Itoa(offset))

		var batch []Row
		if err := c.getJSON(ctx, c.restURL(table), page, &batch); err != nil {
			return nil, fmt.Errorf("%s: %w", table, err)
		}

		rows = append(rows, batch...)

		if len(batch) < limit {
			break
		}

		c.logger.Debug("additional request needed", zap.String("table", table), zap.Int("offset", offset+limit))
	}

	return rows, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Accept", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	return c.do(req, http.StatusOK, target)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, expected int, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	return c.do(req, expected, target)
}

func (c *Client) do(req *http.Request, expected int, target any) error {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != expected {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(data)}
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	return req
}

// StatusError is returned when the backend answers with an unexpected status.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status: %s", e.Status)
	}
	return fmt.Sprintf("bad status: %s: %s", e.Status, e.Body)
}

func cloneValues(q url.Values) url.Values {
	out := url.Values{}
	for key, values := range q {
		out[key] = append([]string(nil), values...)
	}
	return out
}
