package source

import "testing"

func TestMetadataConstants(t *testing.T) {
	m := GetMetadata()
	if m.Title != "DEM 1 Second Grid" {
		t.Fatalf("title: %q", m.Title)
	}
	if m.CRS != "EPSG:4326" {
		t.Fatalf("crs: %q", m.CRS)
	}
	if m.ResolutionArcsec != 1 {
		t.Fatalf("resolution: %v", m.ResolutionArcsec)
	}
	if err := m.BBox.Validate(); err != nil {
		t.Fatalf("default bbox invalid: %v", err)
	}
}

func TestLicenseComplete(t *testing.T) {
	l := GetLicense()
	if l.Name == "" || l.SourceURL == "" || l.LicenseName == "" ||
		l.LicenseURL == "" || l.Copyright == "" || l.Attribution == "" {
		t.Fatalf("license record incomplete: %+v", l)
	}
	if l.LicenseName != "CC BY 4.0" {
		t.Fatalf("license: %q", l.LicenseName)
	}
}
