package viewer

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/agrefed/dem-harvester/internal/geotiff"
)

func writeRaster(t *testing.T, w, h int) string {
	t.Helper()
	r := &geotiff.Raster{
		Width:       w,
		Height:      h,
		Elev:        make([]float64, w*h),
		NoData:      -9999,
		HasNoData:   true,
		OriginX:     114,
		OriginY:     -11,
		PixelWidth:  1,
		PixelHeight: 1,
	}
	for i := range r.Elev {
		r.Elev[i] = float64(i % 97)
	}
	r.Elev[0] = -9999
	path := filepath.Join(t.TempDir(), "dem.tif")
	if err := geotiff.Write(path, r); err != nil {
		t.Fatalf("write raster: %v", err)
	}
	return path
}

func TestRenderPNG(t *testing.T) {
	src := writeRaster(t, 32, 16)
	out := filepath.Join(t.TempDir(), "preview.png")

	if err := RenderPNG(src, out, 0); err != nil {
		t.Fatalf("render: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Fatalf("unexpected preview size: %v", img.Bounds())
	}
}

func TestRenderPNG_DownsamplesLargeRasters(t *testing.T) {
	src := writeRaster(t, 64, 32)
	out := filepath.Join(t.TempDir(), "preview.png")

	if err := RenderPNG(src, out, 16); err != nil {
		t.Fatalf("render: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if img.Bounds().Dx() > 16 || img.Bounds().Dy() > 16 {
		t.Fatalf("not downsampled: %v", img.Bounds())
	}
}

func TestRenderPNG_AllNoDataFails(t *testing.T) {
	r := &geotiff.Raster{
		Width: 2, Height: 2,
		Elev:      []float64{-9999, -9999, -9999, -9999},
		NoData:    -9999,
		HasNoData: true,
		PixelWidth: 1, PixelHeight: 1,
	}
	path := filepath.Join(t.TempDir(), "empty.tif")
	if err := geotiff.Write(path, r); err != nil {
		t.Fatalf("write raster: %v", err)
	}
	if err := RenderPNG(path, filepath.Join(t.TempDir(), "p.png"), 0); err == nil {
		t.Fatal("expected error for raster with no valid samples")
	}
}
