// Package client is a typed HTTP client for the wine classifier API.
package client

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/web"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("wine api: %d %s", e.StatusCode, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return fmt.Sprintf("wine api: %d %s", e.StatusCode, strings.Join(parts, "; "))
}

// Predict classifies one observation.
func (c *Client) Predict(ctx context.Context, raw features.RawObservation) (*web.PredictResponse, error) {
	out := &web.PredictResponse{}
	if err := c.post(ctx, "/api/v1/predict", raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transform runs only the feature pipeline.
func (c *Client) Transform(ctx context.Context, raw features.RawObservation) (*features.ModelInput, error) {
	out := &features.ModelInput{}
	if err := c.post(ctx, "/api/v1/transform", raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Schema returns the controls table and model column order.
func (c *Client) Schema(ctx context.Context) (*web.SchemaResponse, error) {
	out := &web.SchemaResponse{}
	if err := c.get(ctx, "/api/v1/schema", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Model returns the loaded artifact's metadata.
func (c *Client) Model(ctx context.Context) (*ml.ModelMetadata, error) {
	out := &ml.ModelMetadata{}
	if err := c.get(ctx, "/api/v1/model", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns up to limit recent classifications.
func (c *Client) History(ctx context.Context, limit int) (*web.HistoryResponse, error) {
	out := &web.HistoryResponse{}
	query := map[string]string{}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}
	if err := c.get(ctx, "/api/v1/history", query, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health returns the server's health report. An unhealthy server still yields
// a report; check Healthy.
func (c *Client) Health(ctx context.Context) (*ml.HealthStatus, error) {
	status := &ml.HealthStatus{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(status).
		SetError(status).
		Get(c.base + "/health")
	if err != nil {
		return nil, err
	}
	if resp.IsError() && resp.StatusCode() != 503 {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	return status, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	apiErr := &APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		SetError(apiErr).
		Post(c.base + path)
	if err != nil {
		return err
	}
	return checkResponse(resp, apiErr)
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	apiErr := &APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		SetError(apiErr).
		Get(c.base + path)
	if err != nil {
		return err
	}
	return checkResponse(resp, apiErr)
}

func checkResponse(resp *resty.Response, apiErr *APIError) error {
	if !resp.IsError() {
		return nil
	}
	apiErr.StatusCode = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = resp.Status()
	}
	return apiErr
}
