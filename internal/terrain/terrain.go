// Package terrain derives slope and aspect rasters from a DEM using Horn's
// 3x3 finite differences, the same formulation the common raster engines use.
package terrain

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/agrefed/dem-harvester/internal/geotiff"
)

// aspectNoData marks flat cells in aspect output, matching the GDAL convention.
const aspectNoData = -9999

// Options tune the derivative computation. Scale is the ratio of horizontal
// units to vertical units (e.g. 111120 for degrees against metres); the zero
// value means 1, i.e. matching units.
type Options struct {
	Scale float64
}

// SlopePath returns the output path for a slope raster derived from demPath:
// "Slope_<name>" next to the input.
func SlopePath(demPath string) string {
	dir, name := filepath.Split(demPath)
	return filepath.Join(dir, "Slope_"+name)
}

// AspectPath returns the output path for an aspect raster derived from
// demPath: "Aspect_<name>" next to the input.
func AspectPath(demPath string) string {
	dir, name := filepath.Split(demPath)
	return filepath.Join(dir, "Aspect_"+name)
}

// Slope reads the DEM at demPath, computes slope in degrees and writes the
// result beside the input. Returns the output path.
func Slope(demPath string, opts Options) (string, error) {
	return derive(demPath, SlopePath(demPath), opts, slopeCell)
}

// Aspect reads the DEM at demPath, computes downhill compass direction in
// degrees (0 = north, clockwise) and writes the result beside the input.
// Flat cells carry the nodata value.
func Aspect(demPath string, opts Options) (string, error) {
	return derive(demPath, AspectPath(demPath), opts, aspectCell)
}

type cellFunc func(dzdx, dzdy, scale float64) (float64, bool)

func derive(demPath, outPath string, opts Options, f cellFunc) (string, error) {
	dem, err := geotiff.Read(demPath)
	if err != nil {
		return "", fmt.Errorf("read dem: %w", err)
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	out := &geotiff.Raster{
		Width:       dem.Width,
		Height:      dem.Height,
		Elev:        make([]float64, dem.Width*dem.Height),
		NoData:      aspectNoData,
		HasNoData:   true,
		OriginX:     dem.OriginX,
		OriginY:     dem.OriginY,
		PixelWidth:  dem.PixelWidth,
		PixelHeight: dem.PixelHeight,
		Geo:         dem.Geo,
	}
	if dem.HasNoData {
		out.NoData = dem.NoData
	}

	for y := 0; y < dem.Height; y++ {
		for x := 0; x < dem.Width; x++ {
			center := dem.At(x, y)
			if dem.IsNoData(center) {
				out.Set(x, y, out.NoData)
				continue
			}

			// 3x3 window with edge replication; nodata neighbours fall back
			// to the centre value.
			a := sample(dem, x-1, y-1, center)
			b := sample(dem, x, y-1, center)
			c := sample(dem, x+1, y-1, center)
			d := sample(dem, x-1, y, center)
			e := sample(dem, x+1, y, center)
			g := sample(dem, x-1, y+1, center)
			h := sample(dem, x, y+1, center)
			i := sample(dem, x+1, y+1, center)

			dzdx := ((c + 2*e + i) - (a + 2*d + g)) / (8 * dem.PixelWidth)
			dzdy := ((g + 2*h + i) - (a + 2*b + c)) / (8 * dem.PixelHeight)

			v, ok := f(dzdx, dzdy, scale)
			if !ok {
				v = out.NoData
			}
			out.Set(x, y, v)
		}
	}

	if err := geotiff.Write(outPath, out); err != nil {
		return "", fmt.Errorf("write derivative: %w", err)
	}
	return outPath, nil
}

func sample(r *geotiff.Raster, x, y int, fallback float64) float64 {
	if x < 0 {
		x = 0
	}
	if x >= r.Width {
		x = r.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= r.Height {
		y = r.Height - 1
	}
	v := r.At(x, y)
	if r.IsNoData(v) {
		return fallback
	}
	return v
}

func slopeCell(dzdx, dzdy, scale float64) (float64, bool) {
	rise := math.Sqrt(dzdx*dzdx + dzdy*dzdy)
	return math.Atan(rise/scale) * 180 / math.Pi, true
}

func aspectCell(dzdx, dzdy, _ float64) (float64, bool) {
	if dzdx == 0 && dzdy == 0 {
		return 0, false // flat
	}
	deg := math.Atan2(dzdy, -dzdx) * 180 / math.Pi
	// math angle to compass bearing
	if deg > 90 {
		return 360 - deg + 90, true
	}
	return 90 - deg, true
}
