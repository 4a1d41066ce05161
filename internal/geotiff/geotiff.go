// Package geotiff reads and writes single-band GeoTIFF rasters.
//
// It covers the subset the coverage service emits and the derivative writers
// need: classic TIFF, one sample per pixel, uncompressed strips, integer or
// floating point samples, with ModelPixelScale/ModelTiepoint georeferencing,
// GeoKey directories and the GDAL nodata convention carried through untouched
// so a derivative raster keeps the exact grid, extent and CRS of its source.
package geotiff

// Raster is a single-band raster with geographic anchoring. Elev holds
// row-major samples, top row first.
type Raster struct {
	Width  int
	Height int
	Elev   []float64

	NoData    float64
	HasNoData bool

	// Top-left outer corner of the grid and positive pixel sizes. Y decreases
	// downward in raster space.
	OriginX     float64
	OriginY     float64
	PixelWidth  float64
	PixelHeight float64

	Geo GeoTags
}

// GeoTags holds the raw GeoTIFF key tags so outputs can reproduce the input
// CRS without interpreting it.
type GeoTags struct {
	KeyDirectory []uint16
	DoubleParams []float64
	ASCIIParams  string
}

// At returns the sample at column x, row y.
func (r *Raster) At(x, y int) float64 {
	return r.Elev[y*r.Width+x]
}

// Set stores a sample at column x, row y.
func (r *Raster) Set(x, y int, v float64) {
	r.Elev[y*r.Width+x] = v
}

// IsNoData reports whether v matches the raster's nodata marker.
func (r *Raster) IsNoData(v float64) bool {
	return r.HasNoData && v == r.NoData
}

// TIFF tag codes used by the reader and writer.
const (
	tagImageWidth       = 256
	tagImageLength      = 257
	tagBitsPerSample    = 258
	tagCompression      = 259
	tagPhotometric      = 262
	tagStripOffsets     = 273
	tagSamplesPerPixel  = 277
	tagRowsPerStrip     = 278
	tagStripByteCounts  = 279
	tagPlanarConfig     = 284
	tagSampleFormat     = 339
	tagModelPixelScale  = 33550
	tagModelTiepoint    = 33922
	tagGeoKeyDirectory  = 34735
	tagGeoDoubleParams  = 34736
	tagGeoASCIIParams   = 34737
	tagGDALNoData       = 42113
)

// TIFF field types.
const (
	typeByte     = 1
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
	typeSShort   = 8
	typeSLong    = 9
	typeFloat    = 11
	typeDouble   = 12
)

func typeSize(t uint16) int {
	switch t {
	case typeByte, typeASCII:
		return 1
	case typeShort, typeSShort:
		return 2
	case typeLong, typeSLong, typeFloat:
		return 4
	case typeRational, typeDouble:
		return 8
	default:
		return 0
	}
}
