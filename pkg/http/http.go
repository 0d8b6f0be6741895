package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var DefaultHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// MaxResponseSize bounds the bodies read by GetBytes.
const MaxResponseSize = 1 << 20

var ErrResponseTooLarge = errors.New("response body too large")

type Decoder interface {
	Decode(dst any, src map[string][]string) error
}

type Encoder interface {
	Encode(src any, dst map[string][]string) error
}

// GetBytes fetches the resource with a GET request and returns its body.
// Non 2xx responses and bodies above MaxResponseSize are errors.
func GetBytes(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http status not ok: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

// GetJSON fetches the resource and unmarshals it into response.
func GetJSON(ctx context.Context, client *http.Client, endpoint string, response any) error {
	body, err := GetBytes(ctx, client, endpoint)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w %s", err, body)
	}
	return nil
}

func URLEncodeParams(resp any, encoder Encoder) (url.Values, error) {
	values := make(map[string][]string)
	err := encoder.Encode(resp, values)
	if err != nil {
		return nil, err
	}
	return values, nil
}
