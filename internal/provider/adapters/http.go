package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// NewHTTPClient builds the single outbound client shared by every
// adapter. Provider APIs can be slow; 30s bounds a stuck call without
// killing a legitimate large response.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

const maxResponseBytes = 4 << 20

// doRequest performs one outbound call and returns the status with the
// response body capped at maxResponseBytes.
func doRequest(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}

// eachDay yields every YYYY-MM-DD between start and end inclusive.
func eachDay(start, end time.Time) []string {
	var days []string
	day := start.UTC().Truncate(24 * time.Hour)
	last := end.UTC().Truncate(24 * time.Hour)
	for !day.After(last) {
		days = append(days, day.Format("2006-01-02"))
		day = day.AddDate(0, 0, 1)
	}
	return days
}
