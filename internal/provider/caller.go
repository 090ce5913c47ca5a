// Package provider carries the HTTP plumbing shared by all external API
// clients: quota checks, retry with backoff, metrics and structured logging.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/logfields"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/observability"
	"git.home.luguber.info/inful/mealprep/internal/quota"
	"git.home.luguber.info/inful/mealprep/internal/retry"
)

// Caller wraps outbound HTTP calls to one provider. All provider clients in
// the subpackages embed one.
type Caller struct {
	Name    string
	HTTP    *http.Client
	Quota   *quota.Manager
	Metrics metrics.Recorder
	Retry   retry.Policy
}

// NewCaller builds a caller with sane defaults for optional collaborators.
func NewCaller(name string, timeout time.Duration, q *quota.Manager, rec metrics.Recorder, policy retry.Policy) *Caller {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Caller{
		Name:    name,
		HTTP:    &http.Client{Timeout: timeout},
		Quota:   q,
		Metrics: rec,
		Retry:   policy,
	}
}

// Request describes a single provider call.
type Request struct {
	Operation string // metric label, e.g. "search"
	Method    string
	URL       string
	Query     url.Values
	Headers   map[string]string
	Form      url.Values // form-encoded body; mutually exclusive with JSONBody
	JSONBody  any
}

// DoJSON performs the request with quota/retry/metrics applied and decodes a
// JSON response into out (skipped when out is nil).
func (c *Caller) DoJSON(ctx context.Context, req Request, out any) error {
	if c.Quota != nil {
		if err := c.Quota.Allow(c.Name); err != nil {
			c.Metrics.ObserveProviderRequest(c.Name, req.Operation, 0, metrics.ResultDenied)
			return apperrors.Wrap(err, apperrors.CategoryQuota, apperrors.SeverityWarning, c.Name+" call budget exceeded")
		}
	}

	ctx = observability.WithProvider(ctx, c.Name)
	start := time.Now()

	err := retry.Do(ctx, c.Retry, func() error {
		return c.doOnce(ctx, req, out)
	})

	elapsed := time.Since(start)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	c.Metrics.ObserveProviderRequest(c.Name, req.Operation, elapsed, result)

	if err != nil {
		observability.WarnContext(ctx, "provider request failed",
			logfields.Error(err),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
		return err
	}

	observability.DebugContext(ctx, "provider request ok",
		logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}

func (c *Caller) doOnce(ctx context.Context, req Request, out any) error {
	u := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.JSONBody != nil:
		data, err := json.Marshal(req.JSONBody)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CategoryInternal, apperrors.SeverityError, "marshal request body")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryInternal, apperrors.SeverityError, "build request")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return apperrors.WrapRetryable(err, apperrors.CategoryProvider, apperrors.SeverityError,
			c.Name+" request failed").WithContext("provider", c.Name)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.WrapRetryable(err, apperrors.CategoryProvider, apperrors.SeverityError,
			c.Name+" response read failed").WithContext("provider", c.Name)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.Retryable(apperrors.CategoryProvider, apperrors.SeverityError,
			fmt.Sprintf("%s returned status %d", c.Name, resp.StatusCode)).
			WithContext("provider", c.Name).
			WithContext("status", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return apperrors.New(apperrors.CategoryProvider, apperrors.SeverityError,
			fmt.Sprintf("%s returned status %d: %s", c.Name, resp.StatusCode, truncate(data, 200))).
			WithContext("provider", c.Name).
			WithContext("status", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryProvider, apperrors.SeverityError,
			c.Name+" response parse failed").WithContext("provider", c.Name)
	}
	return nil
}

func truncate(data []byte, limit int) string {
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
