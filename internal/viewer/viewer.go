// Package viewer renders rasters to PNG for visual inspection.
package viewer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"

	"github.com/agrefed/dem-harvester/internal/geotiff"
)

// DefaultMaxDim caps the longer output edge; full 1-second tiles are far too
// large to preview at native size.
const DefaultMaxDim = 1024

// RenderPNG reads the raster at rasterPath, stretches valid values to
// grayscale and writes a PNG preview to outPath. Rasters larger than maxDim
// on either edge are downsampled; maxDim <= 0 selects DefaultMaxDim.
func RenderPNG(rasterPath, outPath string, maxDim int) error {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}

	r, err := geotiff.Read(rasterPath)
	if err != nil {
		return fmt.Errorf("read raster: %w", err)
	}

	lo, hi, ok := valueRange(r)
	if !ok {
		return fmt.Errorf("raster %s has no valid samples", rasterPath)
	}

	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	span := hi - lo
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.At(x, y)
			if r.IsNoData(v) || math.IsNaN(v) {
				continue // nodata stays black
			}
			g := 255.0
			if span > 0 {
				g = (v - lo) / span * 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(g)})
		}
	}

	var out image.Image = img
	if r.Width > maxDim || r.Height > maxDim {
		out = shrink(img, maxDim)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

func valueRange(r *geotiff.Raster) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range r.Elev {
		if r.IsNoData(v) || math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, lo <= hi
}

func shrink(src *image.Gray, maxDim int) image.Image {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	scale := float64(maxDim) / float64(max(w, h))
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewGray(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}
