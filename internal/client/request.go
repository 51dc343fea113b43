package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/igraph100/DW-Spectrum/internal/auth"
)

// request describes one authenticated call. path may hold {placeholders}
// filled from pathParams.
type request struct {
	method     string
	path       string
	pathParams map[string]string
	query      map[string]string
	body       any
	accept     string
}

func (c *SpectrumClient) send(ctx context.Context, req request, token string) (*resty.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	r := c.HTTP.R().
		SetContext(ctx).
		SetHeader("Authorization", auth.BearerHeader(token))
	if req.accept != "" {
		r.SetHeader("Accept", req.accept)
	}
	if len(req.pathParams) > 0 {
		r.SetPathParams(req.pathParams)
	}
	if len(req.query) > 0 {
		r.SetQueryParams(req.query)
	}
	if req.body != nil {
		r.SetBody(req.body)
	}

	resp, err := r.Execute(req.method, req.path)
	if err != nil {
		return nil, &RequestError{Method: req.method, Path: req.path, Err: err}
	}
	return resp, nil
}

// do performs an authenticated request and returns the response body.
//
// A 401/403 drops the token, logs in once and resends once. Whatever the
// second attempt returns is final, so bad credentials cannot loop.
func (c *SpectrumClient) do(ctx context.Context, req request) ([]byte, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if isAuthStatus(resp.StatusCode()) {
		c.log.WithField("path", req.path).
			WithField("status", resp.StatusCode()).
			Debug("token rejected, logging in again")

		c.takeToken()
		if token, err = c.Login(ctx); err != nil {
			return nil, err
		}
		if resp, err = c.send(ctx, req, token); err != nil {
			return nil, err
		}
	}

	if resp.IsError() {
		return nil, &RequestError{
			Method: req.method,
			Path:   req.path,
			Status: resp.StatusCode(),
			Body:   strings.TrimSpace(resp.String()),
		}
	}
	return resp.Body(), nil
}

// unwrapList finds the array in a bare list or in an object envelope under
// one of keys.
func unwrapList(body []byte, keys ...string) (json.RawMessage, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false
	}
	if body[0] == '[' {
		return body, true
	}
	if body[0] != '{' {
		return nil, false
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, false
	}
	for _, k := range keys {
		if v := bytes.TrimSpace(env[k]); len(v) > 0 && v[0] == '[' {
			return v, true
		}
	}
	return nil, false
}

func isObject(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) > 0 && body[0] == '{'
}

func decodeInto(method, path string, raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &RequestError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
