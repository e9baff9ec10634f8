// Package client provides REST access to the relation builder API.
package client

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/faciam-dev/gcrb/internal/api/schema"
)

// Client drives a remote derivation session over HTTP.
type Client interface {
	Categories(ctx context.Context) ([]string, error)
	Open(ctx context.Context, req schema.OpenSession) (schema.SessionState, error)
	Get(ctx context.Context, id string) (schema.SessionState, error)
	Patch(ctx context.Context, id string, p schema.SessionPatch) (schema.SessionState, error)
	Flush(ctx context.Context, id string) (schema.SessionState, error)
	Summary(ctx context.Context, id string) (schema.Summary, error)
	Close(ctx context.Context, id string) error
}

type httpClient struct {
	base string
	http *resty.Client
}

type Option func(*httpClient)

// WithToken sets the Authorization token
func WithToken(tok string) Option {
	return func(c *httpClient) {
		c.http.SetAuthToken(tok)
	}
}

// NewHTTP returns a new Client for the given base URL.
func NewHTTP(base string, opts ...Option) Client {
	c := &httpClient{base: base, http: resty.New()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Categories(ctx context.Context) ([]string, error) {
	var out []string
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(c.base + "/v1/categories")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, restyErr(resp)
	}
	return out, nil
}

func (c *httpClient) Open(ctx context.Context, req schema.OpenSession) (schema.SessionState, error) {
	var out schema.SessionState
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post(c.base + "/v1/sessions")
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, restyErr(resp)
	}
	return out, nil
}

func (c *httpClient) Get(ctx context.Context, id string) (schema.SessionState, error) {
	var out schema.SessionState
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(c.base + "/v1/sessions/" + id)
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, restyErr(resp)
	}
	return out, nil
}

func (c *httpClient) Patch(ctx context.Context, id string, p schema.SessionPatch) (schema.SessionState, error) {
	var out schema.SessionState
	resp, err := c.http.R().SetContext(ctx).SetBody(p).SetResult(&out).Patch(c.base + "/v1/sessions/" + id)
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, restyErr(resp)
	}
	return out, nil
}

func (c *httpClient) Flush(ctx context.Context, id string) (schema.SessionState, error) {
	var out schema.SessionState
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Post(c.base + "/v1/sessions/" + id + "/flush")
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, restyErr(resp)
	}
	return out, nil
}

func (c *httpClient) Summary(ctx context.Context, id string) (schema.Summary, error) {
	var out schema.Summary
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(c.base + "/v1/sessions/" + id + "/summary")
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, restyErr(resp)
	}
	return out, nil
}

func (c *httpClient) Close(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete(c.base + "/v1/sessions/" + id)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return restyErr(resp)
	}
	return nil
}

func restyErr(resp *resty.Response) error {
	return fmt.Errorf("%s", resp.Status())
}
