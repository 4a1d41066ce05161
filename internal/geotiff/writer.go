package geotiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
)

// Write stores a raster as a little-endian, uncompressed, single-strip
// float32 GeoTIFF. Georeferencing tags are taken from the raster so the file
// lands on the same grid, extent and CRS as its source.
func Write(path string, r *Raster) error {
	raw, err := encode(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

type tagValue struct {
	tag   uint16
	typ   uint16
	count uint32
	// inline holds the value bytes when they fit in 4 bytes; ext holds the
	// out-of-line payload otherwise.
	inline [4]byte
	ext    []byte
}

func encode(r *Raster) ([]byte, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("bad raster dimensions %dx%d", r.Width, r.Height)
	}
	if len(r.Elev) != r.Width*r.Height {
		return nil, errors.New("sample count does not match raster dimensions")
	}

	order := binary.LittleEndian
	dataLen := r.Width * r.Height * 4
	dataOffset := uint32(8)
	ifdOffset := dataOffset + uint32(dataLen)

	tags := []tagValue{
		longTag(tagImageWidth, uint32(r.Width)),
		longTag(tagImageLength, uint32(r.Height)),
		shortTag(tagBitsPerSample, 32),
		shortTag(tagCompression, 1),
		shortTag(tagPhotometric, 1), // BlackIsZero
		longTag(tagStripOffsets, dataOffset),
		shortTag(tagSamplesPerPixel, 1),
		longTag(tagRowsPerStrip, uint32(r.Height)),
		longTag(tagStripByteCounts, uint32(dataLen)),
		shortTag(tagPlanarConfig, 1),
		shortTag(tagSampleFormat, 3), // IEEE float
		doubleTag(tagModelPixelScale, []float64{r.PixelWidth, r.PixelHeight, 0}),
		doubleTag(tagModelTiepoint, []float64{0, 0, 0, r.OriginX, r.OriginY, 0}),
	}

	keyDir := r.Geo.KeyDirectory
	if len(keyDir) == 0 {
		// Bare minimum: geographic model, pixel-is-area, WGS84.
		keyDir = []uint16{
			1, 1, 0, 3,
			1024, 0, 1, 2,
			1025, 0, 1, 1,
			2048, 0, 1, 4326,
		}
	}
	tags = append(tags, shortSliceTag(tagGeoKeyDirectory, keyDir))
	if len(r.Geo.DoubleParams) > 0 {
		tags = append(tags, doubleTag(tagGeoDoubleParams, r.Geo.DoubleParams))
	}
	if r.Geo.ASCIIParams != "" {
		tags = append(tags, asciiTag(tagGeoASCIIParams, r.Geo.ASCIIParams))
	}
	if r.HasNoData {
		tags = append(tags, asciiTag(tagGDALNoData, strconv.FormatFloat(r.NoData, 'f', -1, 64)))
	}

	// TIFF requires tags in ascending order.
	sort.Slice(tags, func(i, j int) bool { return tags[i].tag < tags[j].tag })

	// Out-of-line tag payloads follow the IFD (entries + next-IFD pointer).
	extOffset := ifdOffset + 2 + uint32(len(tags))*12 + 4

	var buf bytes.Buffer
	buf.Grow(int(extOffset))

	buf.WriteString("II")
	writeU16(&buf, order, 42)
	writeU32(&buf, order, ifdOffset) // first IFD follows the pixel data

	// pixel data
	for _, v := range r.Elev {
		writeU32(&buf, order, math.Float32bits(float32(v)))
	}

	// IFD
	writeU16(&buf, order, uint16(len(tags)))
	ext := make([]byte, 0)
	for _, t := range tags {
		writeU16(&buf, order, t.tag)
		writeU16(&buf, order, t.typ)
		writeU32(&buf, order, t.count)
		if t.ext == nil {
			buf.Write(t.inline[:])
		} else {
			writeU32(&buf, order, extOffset+uint32(len(ext)))
			ext = append(ext, t.ext...)
			if len(t.ext)%2 == 1 {
				ext = append(ext, 0) // keep word alignment
			}
		}
	}
	writeU32(&buf, order, 0) // no next IFD
	buf.Write(ext)

	return buf.Bytes(), nil
}

func writeU16(buf *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	buf.Write(b[:])
}

func shortTag(tag uint16, v uint16) tagValue {
	t := tagValue{tag: tag, typ: typeShort, count: 1}
	binary.LittleEndian.PutUint16(t.inline[:], v)
	return t
}

func longTag(tag uint16, v uint32) tagValue {
	t := tagValue{tag: tag, typ: typeLong, count: 1}
	binary.LittleEndian.PutUint32(t.inline[:], v)
	return t
}

func shortSliceTag(tag uint16, vals []uint16) tagValue {
	t := tagValue{tag: tag, typ: typeShort, count: uint32(len(vals))}
	if len(vals) <= 2 {
		for i, v := range vals {
			binary.LittleEndian.PutUint16(t.inline[2*i:], v)
		}
		return t
	}
	t.ext = make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(t.ext[2*i:], v)
	}
	return t
}

func doubleTag(tag uint16, vals []float64) tagValue {
	t := tagValue{tag: tag, typ: typeDouble, count: uint32(len(vals))}
	t.ext = make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(t.ext[8*i:], math.Float64bits(v))
	}
	return t
}

func asciiTag(tag uint16, s string) tagValue {
	b := append([]byte(s), 0)
	t := tagValue{tag: tag, typ: typeASCII, count: uint32(len(b))}
	if len(b) <= 4 {
		copy(t.inline[:], b)
		return t
	}
	t.ext = b
	return t
}
