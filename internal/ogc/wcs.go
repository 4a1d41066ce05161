// Package ogc builds WCS 1.0.0 KVP requests and parses the service's XML
// responses.
package ogc

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/agrefed/dem-harvester/internal/model"
)

// Endpoint normalizes a service URL. Published WCS URLs often carry a pre-baked
// query string (e.g. "?request=GetCapabilities&service=WCS"); the client sets
// its own parameters, so any existing query is dropped.
func Endpoint(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse service url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("service url %q missing scheme or host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func BuildGetCapabilitiesParams() url.Values {
	params := url.Values{}
	params.Set("service", "WCS")
	params.Set("version", "1.0.0")
	params.Set("request", "GetCapabilities")
	return params
}

// CoverageRequest is the parameter set of a single GetCoverage call.
type CoverageRequest struct {
	Identifier  string
	BBox        model.BBox
	CRS         string
	ResDegreesX float64
	ResDegreesY float64
	Format      string
	Styles      string
}

func BuildGetCoverageParams(req CoverageRequest) url.Values {
	params := url.Values{}
	params.Set("service", "WCS")
	params.Set("version", "1.0.0")
	params.Set("request", "GetCoverage")
	params.Set("coverage", req.Identifier)
	params.Set("bbox", req.BBox.String())
	params.Set("crs", req.CRS)
	params.Set("resx", strconv.FormatFloat(req.ResDegreesX, 'f', -1, 64))
	params.Set("resy", strconv.FormatFloat(req.ResDegreesY, 'f', -1, 64))
	params.Set("format", req.Format)
	if req.Styles != "" {
		params.Set("styles", req.Styles)
	}
	return params
}
