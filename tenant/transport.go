package tenant

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryTransport retries idempotent-safe failures with bounded exponential
// backoff: network errors, 5xx and 429. Any other 4xx fails immediately —
// those are answers, not outages.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries uint64
}

// NewClient returns an *http.Client with the retry policy the directory
// client expects. The timeout bounds each attempt; the backoff bounds the
// whole sequence.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			base:       http.DefaultTransport,
			maxRetries: 3,
		},
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(newExponential(), t.maxRetries),
		req.Context(),
	)

	var resp *http.Response
	op := func() error {
		r := req
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			r = req.Clone(req.Context())
			r.Body = body
		}

		var err error
		resp, err = t.base.RoundTrip(r)
		if err != nil {
			return err
		}
		if retryableStatus(resp.StatusCode) {
			// Drain so the connection can be reused, then retry.
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &statusError{code: resp.StatusCode}
		}
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		var se *statusError
		if errors.As(err, &se) && resp != nil {
			// Retries exhausted on a 5xx/429: surface the final response so
			// the caller can classify it. Its body was drained above.
			resp.Body = http.NoBody
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}

func newExponential() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 10 * time.Second
	return bo
}
