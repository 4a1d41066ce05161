// Package wcs talks to an OGC Web Coverage Service 1.0.0 endpoint over KVP.
package wcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/agrefed/dem-harvester/internal/httpclient"
	"github.com/agrefed/dem-harvester/internal/model"
	"github.com/agrefed/dem-harvester/internal/ogc"
)

// Client issues single blocking WCS requests. It holds no per-call state and
// is safe for reuse across service URLs.
type Client struct {
	logger *slog.Logger
	client *http.Client
}

func NewClient(logger *slog.Logger, client *http.Client) *Client {
	if client == nil {
		client = httpclient.NewOutbound(httpclient.DefaultTimeout)
	}
	return &Client{logger: logger, client: client}
}

// ListLayers enumerates all coverages the service advertises, in service
// order, and logs each one for operator visibility.
func (c *Client) ListLayers(ctx context.Context, serviceURL string) ([]model.LayerMetadata, error) {
	body, err := c.get(ctx, serviceURL, ogc.BuildGetCapabilitiesParams())
	if err != nil {
		return nil, fmt.Errorf("get capabilities: %w", err)
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read capabilities: %w", err)
	}
	if exc := ogc.ParseServiceException(raw); exc != nil {
		return nil, exc
	}

	layers, err := ogc.ParseCapabilities(raw)
	if err != nil {
		return nil, err
	}
	for _, l := range layers {
		c.logger.Info("coverage available",
			"identifier", l.Identifier,
			"title", l.Title,
			"bbox", l.BBox.String())
	}
	return layers, nil
}

// GetCoverage requests one coverage and returns the raw response body for
// streaming. The caller owns the returned reader. A 200 response carrying a
// service exception document is converted to an error.
func (c *Client) GetCoverage(ctx context.Context, serviceURL string, req ogc.CoverageRequest) (io.ReadCloser, error) {
	body, err := c.get(ctx, serviceURL, ogc.BuildGetCoverageParams(req))
	if err != nil {
		return nil, fmt.Errorf("get coverage %q: %w", req.Identifier, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, serviceURL string, params url.Values) (io.ReadCloser, error) {
	endpoint, err := ogc.Endpoint(serviceURL)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.logger.Debug("wcs request", "url", endpoint, "request", params.Get("request"))
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if exc := ogc.ParseServiceException(raw); exc != nil {
			return nil, exc
		}
		return nil, fmt.Errorf("service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	// Some servers answer GetCoverage faults with 200 + an XML exception body.
	ct := resp.Header.Get("Content-Type")
	if params.Get("request") == "GetCoverage" && strings.Contains(ct, "xml") {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if exc := ogc.ParseServiceException(raw); exc != nil {
			return nil, exc
		}
		return nil, fmt.Errorf("expected coverage bytes, got %q response", ct)
	}
	return resp.Body, nil
}
