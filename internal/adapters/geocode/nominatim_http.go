package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (n *NominatimClient) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", n.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (n *NominatimClient) do(req *http.Request) (*http.Response, error) {
	resp, err := n.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) with exponential backoff. Every attempt passes the rate gate.
func (n *NominatimClient) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	var (
		resp    *http.Response
		lastErr error
	)

	err := retry.Do(
		func() error {
			if err := n.gate.Wait(ctx); err != nil {
				lastErr = err
				return err
			}

			req, err := makeReq()
			if err != nil {
				lastErr = fmt.Errorf("make request: %w", err)
				return lastErr
			}

			r, err := n.do(req)
			if err != nil {
				lastErr = err
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(n.cfg.MaxAttempts),
		retry.Delay(n.cfg.RetryDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(attempt uint, err error) {
			n.logger.Debug("retrying geocode request", "attempt", attempt+1, "error", err)
		}),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, lastErr
	}

	return resp, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
