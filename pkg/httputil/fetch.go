package httputil

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/schemconv/pkg/buildinfo"
	errs "github.com/matzehuels/schemconv/pkg/errors"
)

const (
	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps a downloaded body. Compressed schematics are
	// small; this leaves room for very large builds.
	DefaultMaxBytes = 64 << 20
)

// Fetcher downloads schematic files.
type Fetcher struct {
	Client    *http.Client
	Backoff   Backoff
	MaxBytes  int64
	UserAgent string
}

// NewFetcher returns a Fetcher with the default timeout, retry schedule and
// size cap.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: DefaultTimeout},
		Backoff:   DefaultBackoff,
		MaxBytes:  DefaultMaxBytes,
		UserAgent: "schemconv/" + buildinfo.Version,
	}
}

// IsURL reports whether s names an http or https resource.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch GETs rawURL and returns the body, retrying transient failures.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "invalid URL: %q", rawURL)
	}

	var body []byte
	err = f.Backoff.Do(ctx, func() error {
		body, err = f.get(ctx, u.String())
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request")
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: errs.Wrap(errs.ErrCodeNetwork, err, "GET %s", target)}
	}
	defer resp.Body.Close()

	if err := checkStatus(target, resp.StatusCode); err != nil {
		return nil, err
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if resp.ContentLength > limit {
		return nil, errs.New(errs.ErrCodeTooLarge, "%s: %d bytes exceeds %d", target, resp.ContentLength, limit)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &RetryableError{Err: errs.Wrap(errs.ErrCodeNetwork, err, "read %s", target)}
	}
	if int64(len(data)) > limit {
		return nil, errs.New(errs.ErrCodeTooLarge, "%s: body exceeds %d bytes", target, limit)
	}
	return data, nil
}

func checkStatus(target string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errs.New(errs.ErrCodeNotFound, "%s: not found", target)
	case code == http.StatusTooManyRequests, code >= 500:
		return &RetryableError{Err: errs.New(errs.ErrCodeNetwork, "%s: status %d", target, code)}
	default:
		return errs.New(errs.ErrCodeNetwork, "%s: status %d", target, code)
	}
}

