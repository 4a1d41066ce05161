package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/agrefed/dem-harvester/internal/config"
	"github.com/agrefed/dem-harvester/internal/geotiff"
	"github.com/agrefed/dem-harvester/internal/harvester"
	"github.com/agrefed/dem-harvester/internal/metrics"
	"github.com/agrefed/dem-harvester/internal/wcs"
)

const testCapabilities = `<?xml version="1.0" encoding="UTF-8"?>
<WCS_Capabilities xmlns="http://www.opengis.net/wcs" xmlns:gml="http://www.opengis.net/gml" version="1.0.0">
  <ContentMetadata>
    <CoverageOfferingBrief>
      <description>hydro enforced national DEM</description>
      <name>1</name>
      <label>DEM 1 Second Grid</label>
      <lonLatEnvelope>
        <gml:pos>112.9999 -44.0001</gml:pos>
        <gml:pos>153.9999 -10.0001</gml:pos>
      </lonLatEnvelope>
    </CoverageOfferingBrief>
  </ContentMetadata>
</WCS_Capabilities>`

func demPayload(t *testing.T) []byte {
	t.Helper()
	const w, h = 6, 6
	r := &geotiff.Raster{
		Width:       w,
		Height:      h,
		Elev:        make([]float64, w*h),
		OriginX:     114,
		OriginY:     -11,
		PixelWidth:  1,
		PixelHeight: 1,
	}
	for i := range r.Elev {
		r.Elev[i] = float64(i)
	}
	path := filepath.Join(t.TempDir(), "payload.tif")
	if err := geotiff.Write(path, r); err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return raw
}

func newTestAPI(t *testing.T) (*api, *httptest.Server) {
	t.Helper()
	payload := demPayload(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("request") {
		case "GetCapabilities":
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(testCapabilities))
		case "GetCoverage":
			w.Header().Set("Content-Type", "image/tiff")
			_, _ = w.Write(payload)
		}
	}))
	t.Cleanup(upstream.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	prov := metrics.Init(metrics.BuildInfo{Version: "test"})
	client := wcs.NewClient(log, upstream.Client())
	cfg := config.Config{
		ServiceURL: upstream.URL,
		CRS:        "EPSG:4326",
		OutDir:     t.TempDir(),
	}
	return &api{
		log:       log,
		cfg:       cfg,
		client:    client,
		harvester: harvester.New(log, client).WithObserver(prov),
		metrics:   prov,
	}, upstream
}

func TestHandleLayers(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	a.handleLayers(rec, httptest.NewRequest("GET", "/v1/layers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Layers []layerJSON `json:"layers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Layers) != 1 || resp.Layers[0].Title != "DEM 1 Second Grid" {
		t.Fatalf("layers: %+v", resp.Layers)
	}
}

func TestHandleSourceAndLicense(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	a.handleSource(rec, httptest.NewRequest("GET", "/v1/source", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("source status: %d", rec.Code)
	}
	var src map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&src); err != nil {
		t.Fatalf("decode source: %v", err)
	}
	if src["crs"] != "EPSG:4326" {
		t.Fatalf("source crs: %v", src["crs"])
	}

	rec = httptest.NewRecorder()
	a.handleLicense(rec, httptest.NewRequest("GET", "/v1/license", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("license status: %d", rec.Code)
	}
	var lic map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&lic); err != nil {
		t.Fatalf("decode license: %v", err)
	}
	if lic["license"] != "CC BY 4.0" {
		t.Fatalf("license: %v", lic["license"])
	}
}

func TestHandleFetch_WithDerivatives(t *testing.T) {
	a, _ := newTestAPI(t)

	body, _ := json.Marshal(fetchRequest{
		BBox:             [4]float64{114, -44, 153.9, -11},
		ResolutionArcsec: 100,
		Derivatives:      []string{"slope", "aspect"},
	})
	rec := httptest.NewRecorder()
	a.handleFetch(rec, httptest.NewRequest("POST", "/v1/dem", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body)
	}

	var resp fetchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := os.Stat(resp.Path); err != nil {
		t.Fatalf("dem not on disk: %v", err)
	}
	for _, kind := range []string{"slope", "aspect"} {
		p, ok := resp.Derivatives[kind]
		if !ok {
			t.Fatalf("missing %s derivative", kind)
		}
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s not on disk: %v", kind, err)
		}
	}
}

func TestHandleFetch_RejectsBadInput(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	a.handleFetch(rec, httptest.NewRequest("POST", "/v1/dem", bytes.NewReader([]byte("{not json"))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status: %d", rec.Code)
	}

	body, _ := json.Marshal(fetchRequest{BBox: [4]float64{153.9, -11, 114, -44}})
	rec = httptest.NewRecorder()
	a.handleFetch(rec, httptest.NewRequest("POST", "/v1/dem", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted bbox status: %d", rec.Code)
	}

	body, _ = json.Marshal(fetchRequest{
		BBox:        [4]float64{114, -44, 153.9, -11},
		Derivatives: []string{"hillshade"},
	})
	rec = httptest.NewRecorder()
	a.handleFetch(rec, httptest.NewRequest("POST", "/v1/dem", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown derivative status: %d", rec.Code)
	}
}

func TestHandleFetch_UpstreamFailure(t *testing.T) {
	a, upstream := newTestAPI(t)
	upstream.Close()

	body, _ := json.Marshal(fetchRequest{
		BBox:             [4]float64{114, -44, 153.9, -11},
		ResolutionArcsec: 100,
	})
	rec := httptest.NewRecorder()
	a.handleFetch(rec, httptest.NewRequest("POST", "/v1/dem", bytes.NewReader(body)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("upstream failure status: %d", rec.Code)
	}
}
