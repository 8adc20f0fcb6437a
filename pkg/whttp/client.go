package whttp

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// redactedParams are query parameters never written to the logs.
var redactedParams = []string{"key", "access_key"}

type LoggingRoundTripper struct {
	Proxied http.RoundTripper
}

func (lrt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	t0 := time.Now()

	res, err := lrt.Proxied.RoundTrip(req)
	if err != nil {
		slog.ErrorContext(ctx, "outbound request failed",
			"method", req.Method,
			"url", RedactURL(req.URL),
			"duration_ms", time.Since(t0).Milliseconds(),
			"error", err.Error())
		return res, err
	}

	b := bytes.NewBuffer(make([]byte, 0))
	reader := io.TeeReader(res.Body, b)

	body, _ := io.ReadAll(reader)
	defer res.Body.Close()

	res.Body = io.NopCloser(b)

	slog.InfoContext(ctx, "outbound request",
		"method", req.Method,
		"url", RedactURL(req.URL),
		"duration_ms", time.Since(t0).Milliseconds(),
		"status", res.StatusCode,
		"size", len(body))

	return res, nil
}

// RedactURL returns u as a string with credentials in the query masked.
func RedactURL(u *url.URL) string {
	c := *u
	c.RawQuery = RedactQuery(c.Query()).Encode()
	return c.String()
}

// RedactQuery masks credentials in q in place and returns it.
func RedactQuery(q url.Values) url.Values {
	for _, p := range redactedParams {
		if q.Has(p) {
			q.Set(p, "*****")
		}
	}

	return q
}

func NewLoggingClient() *http.Client {
	return &http.Client{
		Transport: LoggingRoundTripper{Proxied: http.DefaultTransport},
		Timeout:   10 * time.Second,
	}
}
