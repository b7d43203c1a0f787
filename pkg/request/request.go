// Copyright 2026 Cyborg Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package request

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 10 * time.Second

var defaultClient = &fasthttp.Client{
	Name:                "cyborg",
	MaxIdleConnDuration: 30 * time.Second,
}

// Request is a single outbound HTTP call over fasthttp with sonic JSON.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	BodyRaw []byte
	BodyObj any
	Result  any
	Timeout time.Duration
}

// Response is the part of the fasthttp response callers need after the
// underlying buffer is released.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// NewRequest creates a new request with the given method and headers.
func NewRequest(url, method string, headers map[string]string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: headers,
	}
}

// WithQueryParams appends query parameters to the request URL.
func (r *Request) WithQueryParams(params map[string]string) *Request {
	r.Query = params
	return r
}

// WithHeader sets a single header.
func (r *Request) WithHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	r.Headers[key] = value
	return r
}

// WithResult decodes a 2xx response body into result.
func (r *Request) WithResult(result any) *Request {
	r.Result = result
	return r
}

// WithBodyBytes sets raw body bytes.
func (r *Request) WithBodyBytes(body []byte) *Request {
	r.BodyRaw = body
	return r
}

// WithBodyJSON sets a JSON body and default Content-Type.
func (r *Request) WithBodyJSON(body any) *Request {
	r.BodyObj = body
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	if _, ok := r.Headers["Content-Type"]; !ok {
		r.Headers["Content-Type"] = "application/json"
	}
	return r
}

// WithTimeout bounds the whole call.
func (r *Request) WithTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// Do sends the request. The effective timeout is the smaller of the request
// timeout and the context deadline.
func (r *Request) Do(ctx context.Context) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		return nil, errors.New("request method is required")
	}
	if !isValidMethod(method) {
		return nil, fmt.Errorf("invalid request method: %s", method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(r.withQuery())
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	switch {
	case len(r.BodyRaw) > 0:
		req.SetBody(r.BodyRaw)
	case r.BodyObj != nil:
		bodyBytes, err := sonic.Marshal(r.BodyObj)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		req.SetBody(bodyBytes)
	}

	if err := defaultClient.DoTimeout(req, resp, r.timeout(ctx)); err != nil {
		return nil, err
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Body:       append([]byte(nil), resp.Body()...),
	}
	if r.Result != nil && out.IsSuccess() && len(out.Body) > 0 {
		if err := sonic.Unmarshal(out.Body, r.Result); err != nil {
			return out, fmt.Errorf("decode response body: %w", err)
		}
	}
	return out, nil
}

func (r *Request) timeout(ctx context.Context) time.Duration {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = max(remaining, time.Millisecond)
		}
	}
	return timeout
}

func (r *Request) withQuery() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	values := parsed.Query()
	for key, value := range r.Query {
		values.Set(key, value)
	}
	parsed.RawQuery = values.Encode()
	return parsed.String()
}

// isValidMethod validates supported HTTP methods.
func isValidMethod(method string) bool {
	switch method {
	case fasthttp.MethodGet,
		fasthttp.MethodPost,
		fasthttp.MethodPut,
		fasthttp.MethodDelete,
		fasthttp.MethodPatch,
		fasthttp.MethodHead,
		fasthttp.MethodOptions:
		return true
	default:
		return false
	}
}
