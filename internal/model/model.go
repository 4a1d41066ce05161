package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BBox is a geographic bounding box in lon/lat order (minLon, minLat, maxLon, maxLat).
type BBox struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// String encodes the box the way WCS 1.0.0 KVP expects it: minx,miny,maxx,maxy.
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// ParseBBox validates user input of the form "minx,miny,maxx,maxy".
func ParseBBox(raw string) (BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return BBox{}, errors.New("expected 4 comma-separated values: minx,miny,maxx,maxy")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bbox component %d: %w", i+1, err)
		}
		vals[i] = f
	}
	bb := BBox{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]}
	if err := bb.Validate(); err != nil {
		return BBox{}, err
	}
	return bb, nil
}

func (b BBox) Validate() error {
	if !(b.MinX >= -180 && b.MinX <= 180 && b.MaxX >= -180 && b.MaxX <= 180) {
		return errors.New("longitude must be in [-180,180]")
	}
	if !(b.MinY >= -90 && b.MinY <= 90 && b.MaxY >= -90 && b.MaxY <= 90) {
		return errors.New("latitude must be in [-90,90]")
	}
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return errors.New("coordinates must satisfy maxx>minx and maxy>miny")
	}
	return nil
}

// LayerMetadata describes one coverage advertised by a WCS endpoint.
type LayerMetadata struct {
	Identifier  string
	Title       string
	Description string
	BBox        BBox
}

// DownloadRequest carries everything one coverage fetch needs. Zero values for
// ResolutionArcsec, ServiceURL and CRS mean "use the default source settings".
type DownloadRequest struct {
	OutDir           string
	BBox             BBox
	ResolutionArcsec float64
	ServiceURL       string
	CRS              string
}
