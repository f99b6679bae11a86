package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Probe checks that the game server's HTTP side is reachable before the
// websocket is dialled.
type Probe struct {
	baseURL string
	path    string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
	retryBase      time.Duration
}

type ProbeOption func(*Probe)

func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(p *Probe) { p.defaultTimeout = d }
}

func WithProbeRetry(max int, base time.Duration) ProbeOption {
	return func(p *Probe) {
		p.retryMax = max
		if base > 0 {
			p.retryBase = base
		}
	}
}

func WithProbePath(path string) ProbeOption {
	return func(p *Probe) { p.path = "/" + strings.TrimLeft(path, "/") }
}

func NewProbe(baseURL string, opts ...ProbeOption) *Probe {
	p := &Probe{
		baseURL:        strings.TrimRight(baseURL, "/"),
		path:           "/healthz",
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 4},
		defaultTimeout: 5 * time.Second,
		retryMax:       3,
		retryBase:      100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProbeResult is what the health endpoint answered.
type ProbeResult struct {
	Status   int
	Body     string
	Attempts int
	Latency  time.Duration
}

// Check issues GET <base><path>. Transport errors and 5xx are retried with
// backoff; any other non-2xx fails at once.
func (p *Probe) Check(ctx context.Context) (*ProbeResult, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(p.baseURL + p.path)

	attempts := p.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		err := p.http.DoDeadline(req, resp, p.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("probe request failed: %w", err)
		} else {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return &ProbeResult{
					Status:   status,
					Body:     truncate(string(resp.Body()), 512),
					Attempts: attempt,
					Latency:  time.Since(start),
				}, nil
			}
			lastErr = fmt.Errorf("probe status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return nil, lastErr
			}
		}
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, p.backoff(attempt)); sleepErr != nil {
			return nil, lastErr
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func (p *Probe) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(p.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (p *Probe) backoff(attempt int) time.Duration {
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * p.retryBase
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
