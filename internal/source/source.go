// Package source holds the fixed description of the default DEM coverage
// source: the Geoscience Australia "DEM 1 Second Grid", an SRTM-derived,
// hydrologically enforced elevation model served over WCS 1.0.0.
package source

import "github.com/agrefed/dem-harvester/internal/model"

const (
	// DefaultServiceURL is the GA WCS endpoint for the 1 second hydro enforced DEM.
	DefaultServiceURL = "https://services.ga.gov.au/site_9/services/DEM_SRTM_1Second_Hydro_Enforced/MapServer/WCSServer?request=GetCapabilities&service=WCS"

	// DefaultCRS is the reference system the source publishes in.
	DefaultCRS = "EPSG:4326"

	// DefaultLayerID is the only coverage identifier the default source exposes.
	DefaultLayerID = "1"

	// NativeResolutionArcsec is the source-native grid spacing.
	NativeResolutionArcsec = 1
)

// Metadata is the fixed descriptive record for the default DEM source.
type Metadata struct {
	Title            string
	Description      string
	CRS              string
	BBox             model.BBox
	ResolutionArcsec float64
}

// License is the fixed licensing and attribution record for the default DEM source.
type License struct {
	Name         string
	SourceURL    string
	LicenseName  string
	LicenseTitle string
	LicenseURL   string
	Copyright    string
	Attribution  string
}

// GetMetadata returns the static metadata for the default DEM source. No
// network call is involved.
func GetMetadata() Metadata {
	return Metadata{
		Title:       "DEM 1 Second Grid",
		Description: "Digital Elevation Model (DEM) of Australia derived from STRM with 1 Second Grid - Hydrologically Enforced.",
		CRS:         DefaultCRS,
		BBox: model.BBox{
			MinX: 112.99986111100009,
			MinY: -44.0001388895483,
			MaxX: 153.9998611116614,
			MaxY: -10.000138888999906,
		},
		ResolutionArcsec: NativeResolutionArcsec,
	}
}

// GetLicense returns the Geoscience Australia data license for the DEM source.
func GetLicense() License {
	return License{
		Name:         "Digital Elevation Model (DEM) of Australia derived from STRM with 1 Second Grid - Hydrologically Enforced",
		SourceURL:    "https://www.clw.csiro.au/aclep/soilandlandscapegrid/ProductDetails.html",
		LicenseName:  "CC BY 4.0",
		LicenseTitle: "Creative Commons Attribution 4.0 International (CC BY 4.0)",
		LicenseURL:   "https://creativecommons.org/licenses/by/4.0/",
		Copyright:    "© Copyright 2017-2022, Geoscience Australia",
		Attribution:  "Commonwealth of Australia (Geoscience Australia) ",
	}
}
