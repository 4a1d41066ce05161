package ogc

import (
	"testing"

	"github.com/agrefed/dem-harvester/internal/model"
)

func TestEndpoint_StripsPrebakedQuery(t *testing.T) {
	got, err := Endpoint("https://example.com/wcs/WCSServer?request=GetCapabilities&service=WCS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com/wcs/WCSServer" {
		t.Fatalf("query not stripped: %s", got)
	}
}

func TestEndpoint_RejectsRelative(t *testing.T) {
	if _, err := Endpoint("/just/a/path"); err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestBuildGetCoverageParams(t *testing.T) {
	params := BuildGetCoverageParams(CoverageRequest{
		Identifier:  "1",
		BBox:        model.BBox{MinX: 114, MinY: -44, MaxX: 153.9, MaxY: -11},
		CRS:         "EPSG:4326",
		ResDegreesX: 100.0 / 3600,
		ResDegreesY: 100.0 / 3600,
		Format:      "GeoTIFF",
		Styles:      "tc",
	})

	want := map[string]string{
		"service":  "WCS",
		"version":  "1.0.0",
		"request":  "GetCoverage",
		"coverage": "1",
		"bbox":     "114,-44,153.9,-11",
		"crs":      "EPSG:4326",
		"format":   "GeoTIFF",
		"styles":   "tc",
	}
	for k, v := range want {
		if got := params.Get(k); got != v {
			t.Fatalf("param %s: got %q, want %q", k, got, v)
		}
	}
	if params.Get("resx") != params.Get("resy") {
		t.Fatalf("resx %q != resy %q", params.Get("resx"), params.Get("resy"))
	}
	if params.Get("resx") == "" {
		t.Fatal("resx missing")
	}
}

const sampleCapabilities = `<?xml version="1.0" encoding="UTF-8"?>
<WCS_Capabilities xmlns="http://www.opengis.net/wcs" xmlns:gml="http://www.opengis.net/gml" version="1.0.0">
  <ContentMetadata>
    <CoverageOfferingBrief>
      <description>Digital Elevation Model (DEM) of Australia derived from STRM with 1 Second Grid - Hydrologically Enforced.</description>
      <name>1</name>
      <label>DEM 1 Second Grid</label>
      <lonLatEnvelope srsName="urn:ogc:def:crs:OGC:1.3:CRS84">
        <gml:pos>112.99986111100009 -44.0001388895483</gml:pos>
        <gml:pos>153.9998611116614 -10.000138888999906</gml:pos>
      </lonLatEnvelope>
    </CoverageOfferingBrief>
  </ContentMetadata>
</WCS_Capabilities>`

func TestParseCapabilities(t *testing.T) {
	layers, err := ParseCapabilities([]byte(sampleCapabilities))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(layers))
	}
	l := layers[0]
	if l.Identifier != "1" {
		t.Fatalf("identifier: %q", l.Identifier)
	}
	if l.Title != "DEM 1 Second Grid" {
		t.Fatalf("title: %q", l.Title)
	}
	if l.Description == "" {
		t.Fatal("description empty")
	}
	if l.BBox.MinX != 112.99986111100009 || l.BBox.MaxY != -10.000138888999906 {
		t.Fatalf("bbox: %+v", l.BBox)
	}
}

func TestParseCapabilities_BadEnvelope(t *testing.T) {
	doc := `<WCS_Capabilities><ContentMetadata><CoverageOfferingBrief>
	  <name>1</name><label>x</label>
	  <lonLatEnvelope><pos>1 2</pos></lonLatEnvelope>
	</CoverageOfferingBrief></ContentMetadata></WCS_Capabilities>`
	if _, err := ParseCapabilities([]byte(doc)); err == nil {
		t.Fatal("expected error for single-corner envelope")
	}
}

func TestParseServiceException(t *testing.T) {
	doc := `<?xml version="1.0"?>
<ServiceExceptionReport version="1.2.0">
  <ServiceException code="InvalidParameterValue">bbox out of range</ServiceException>
</ServiceExceptionReport>`
	err := ParseServiceException([]byte(doc))
	if err == nil {
		t.Fatal("expected an error from exception report")
	}
	if got := err.Error(); got != "service exception InvalidParameterValue: bbox out of range" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestParseServiceException_NotAnException(t *testing.T) {
	if err := ParseServiceException([]byte(sampleCapabilities)); err != nil {
		t.Fatalf("capabilities doc mistaken for exception: %v", err)
	}
}
