// Package httputil fetches schematic files over HTTP.
//
// # Overview
//
// The CLI accepts http:// and https:// URLs wherever it takes an input
// file. This package provides what those downloads need:
//
//   - [Fetcher]: a size-capped GET with status classification
//   - [Backoff]: retry with exponential delay for transient failures
//
// # Retry
//
// Only errors wrapped in [RetryableError] are retried. [Fetcher] wraps
// transport failures, 5xx responses and 429 rate limits; a 404 or any other
// client error fails at once.
//
//	f := httputil.NewFetcher()
//	data, err := f.Fetch(ctx, "https://example.com/house.litematic")
//
// # Errors
//
// Fetch errors carry codes from the errors package: NETWORK_ERROR for
// transport and status failures, NOT_FOUND for 404, TOO_LARGE when the body
// exceeds [Fetcher.MaxBytes].
package httputil
