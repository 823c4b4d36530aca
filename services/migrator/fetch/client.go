// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fetch is the HTTP boundary for release diffs and binary assets.
//
// # Description
//
// Both resources live behind fixed template URLs keyed by release tags.
// A non-200 response is a FetchError, distinct from parse failures
// downstream; the engine never retries on its own. Asset payloads are
// buffered fully before the caller writes them so a cancelled or timed
// out fetch can never corrupt a target file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
)

// DefaultDiffBase is the base URL release-to-release diffs are served
// from. Diff URLs are formed as <base>/<from>..<to>.diff.
const DefaultDiffBase = "https://raw.githubusercontent.com/react-native-community/rn-diff-purge/diffs/diffs"

// defaultTimeout bounds a single fetch, diff or asset alike.
const defaultTimeout = 60 * time.Second

// FetchError reports an unreachable or non-200 resource.
type FetchError struct {
	// URL is the resource that failed.
	URL string

	// StatusCode is the HTTP status, or 0 if the request never completed.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether an error is a FetchError for a missing
// resource, which usually means an unknown release pair.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

// Client fetches release diffs and binary assets.
//
// # Thread Safety
//
// Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	diffBase   string
	assetBase  string
	logger     *slog.Logger
}

// NewClient creates a client with the default endpoints, a 60s per-request
// timeout, and a polite rate limit toward the asset host.
//
// # Inputs
//
//   - logger: Structured logger. May be nil for a no-op logger.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(4), 8),
		diffBase:   DefaultDiffBase,
		assetBase:  diff.DefaultAssetBase,
		logger:     logger,
	}
}

// WithBases overrides the diff and asset base URLs. Empty strings keep
// the current value. Returns the client for chaining.
func (c *Client) WithBases(diffBase, assetBase string) *Client {
	if diffBase != "" {
		c.diffBase = strings.TrimSuffix(diffBase, "/")
	}
	if assetBase != "" {
		c.assetBase = strings.TrimSuffix(assetBase, "/")
	}
	return c
}

// WithHTTPClient overrides the underlying HTTP client. Returns the client
// for chaining.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// DiffURL derives the release diff URL for a version pair.
func (c *Client) DiffURL(fromVersion, toVersion string) string {
	return fmt.Sprintf("%s/%s..%s.diff", c.diffBase, fromVersion, toVersion)
}

// AssetURL derives the binary asset URL for a diff path and target
// version. The path keeps its template root; the release tree is laid out
// the same way the diff is.
func (c *Client) AssetURL(path, toVersion string) string {
	return fmt.Sprintf("%s/%s/%s", c.assetBase, toVersion, path)
}

// FetchDiff downloads the unified diff between two release baselines.
//
// # Inputs
//
//   - ctx: Context for cancellation and timeout.
//   - fromVersion, toVersion: Release tags (e.g. "0.79.0", "0.80.0").
//
// # Outputs
//
//   - string: Raw diff text.
//   - error: *FetchError on transport failure or non-200 status.
func (c *Client) FetchDiff(ctx context.Context, fromVersion, toVersion string) (string, error) {
	data, err := c.get(ctx, c.DiffURL(fromVersion, toVersion))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FetchAsset downloads a binary release asset.
//
// # Description
//
// The full payload is buffered in memory; callers must only write it to
// disk after this returns, so an aborted fetch leaves the target file
// untouched.
//
// # Inputs
//
//   - ctx: Context for cancellation and timeout.
//   - path: Diff path of the asset, including the template root.
//   - toVersion: Target release tag.
//
// # Outputs
//
//   - []byte: Complete asset payload.
//   - error: *FetchError on transport failure or non-200 status.
func (c *Client) FetchAsset(ctx context.Context, path, toVersion string) ([]byte, error) {
	return c.get(ctx, c.AssetURL(path, toVersion))
}

// get performs one rate-limited GET, buffering the entire body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	c.logger.Debug("fetch complete",
		"url", url, "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}
