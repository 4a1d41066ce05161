package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Read loads a single-band GeoTIFF from disk.
func Read(path string) (*Raster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

type ifdEntry struct {
	typ   uint16
	count uint32
	raw   []byte // value bytes, already dereferenced
}

func decode(raw []byte) (*Raster, error) {
	if len(raw) < 8 {
		return nil, errors.New("truncated tiff header")
	}
	var order binary.ByteOrder
	switch string(raw[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, errors.New("not a tiff file")
	}
	if order.Uint16(raw[2:4]) != 42 {
		return nil, errors.New("bad tiff magic (bigtiff is not supported)")
	}

	entries, err := parseIFD(raw, order, order.Uint32(raw[4:8]))
	if err != nil {
		return nil, err
	}

	width := int(firstUint(entries, tagImageWidth, order, 0))
	height := int(firstUint(entries, tagImageLength, order, 0))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bad raster dimensions %dx%d", width, height)
	}
	if n := firstUint(entries, tagSamplesPerPixel, order, 1); n != 1 {
		return nil, fmt.Errorf("expected single band raster, got %d samples per pixel", n)
	}
	if c := firstUint(entries, tagCompression, order, 1); c != 1 {
		return nil, fmt.Errorf("unsupported tiff compression %d", c)
	}
	if p := firstUint(entries, tagPlanarConfig, order, 1); p != 1 {
		return nil, fmt.Errorf("unsupported planar configuration %d", p)
	}

	bits := firstUint(entries, tagBitsPerSample, order, 1)
	format := firstUint(entries, tagSampleFormat, order, 1)

	offsets, err := uintVals(entries, tagStripOffsets, order)
	if err != nil {
		return nil, err
	}
	counts, err := uintVals(entries, tagStripByteCounts, order)
	if err != nil {
		return nil, err
	}
	if len(offsets) == 0 || len(offsets) != len(counts) {
		return nil, errors.New("inconsistent strip layout")
	}

	pixels := make([]byte, 0, width*height*int(bits)/8)
	for i := range offsets {
		off, n := int(offsets[i]), int(counts[i])
		if off < 0 || off+n > len(raw) {
			return nil, errors.New("strip extends past end of file")
		}
		pixels = append(pixels, raw[off:off+n]...)
	}
	want := width * height * int(bits) / 8
	if len(pixels) < want {
		return nil, fmt.Errorf("pixel data truncated: have %d bytes, want %d", len(pixels), want)
	}

	elev, err := decodeSamples(pixels[:want], order, bits, format, width*height)
	if err != nil {
		return nil, err
	}

	out := &Raster{
		Width:       width,
		Height:      height,
		Elev:        elev,
		PixelWidth:  1,
		PixelHeight: 1,
	}

	if nd, ok := entries[tagGDALNoData]; ok {
		s := strings.Trim(string(nd.raw), "\x00 \t\r\n")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			out.NoData = v
			out.HasNoData = true
		}
	}

	if scale, err := doubleVals(entries, tagModelPixelScale, order); err == nil && len(scale) >= 2 {
		out.PixelWidth = scale[0]
		out.PixelHeight = scale[1]
	}
	if tie, err := doubleVals(entries, tagModelTiepoint, order); err == nil && len(tie) >= 6 {
		// tiepoint is (i, j, k) -> (x, y, z)
		out.OriginX = tie[3] - tie[0]*out.PixelWidth
		out.OriginY = tie[4] + tie[1]*out.PixelHeight
	}

	if kd, ok := entries[tagGeoKeyDirectory]; ok {
		dir := make([]uint16, kd.count)
		for i := range dir {
			dir[i] = order.Uint16(kd.raw[2*i:])
		}
		out.Geo.KeyDirectory = dir
	}
	if dp, err := doubleVals(entries, tagGeoDoubleParams, order); err == nil {
		out.Geo.DoubleParams = dp
	}
	if ap, ok := entries[tagGeoASCIIParams]; ok {
		out.Geo.ASCIIParams = strings.TrimRight(string(ap.raw), "\x00")
	}

	return out, nil
}

func parseIFD(raw []byte, order binary.ByteOrder, off uint32) (map[uint16]ifdEntry, error) {
	if int(off)+2 > len(raw) {
		return nil, errors.New("ifd offset out of range")
	}
	n := int(order.Uint16(raw[off : off+2]))
	base := int(off) + 2
	if base+n*12 > len(raw) {
		return nil, errors.New("ifd extends past end of file")
	}

	entries := make(map[uint16]ifdEntry, n)
	for i := 0; i < n; i++ {
		e := raw[base+i*12 : base+(i+1)*12]
		tag := order.Uint16(e[0:2])
		typ := order.Uint16(e[2:4])
		count := order.Uint32(e[4:8])

		size := typeSize(typ)
		if size == 0 {
			continue // unknown field type, skip
		}
		total := size * int(count)
		var val []byte
		if total <= 4 {
			val = e[8 : 8+total]
		} else {
			voff := int(order.Uint32(e[8:12]))
			if voff < 0 || voff+total > len(raw) {
				return nil, fmt.Errorf("tag %d value out of range", tag)
			}
			val = raw[voff : voff+total]
		}
		entries[tag] = ifdEntry{typ: typ, count: count, raw: val}
	}
	return entries, nil
}

func firstUint(entries map[uint16]ifdEntry, tag uint16, order binary.ByteOrder, def uint64) uint64 {
	e, ok := entries[tag]
	if !ok || e.count == 0 {
		return def
	}
	switch e.typ {
	case typeByte:
		return uint64(e.raw[0])
	case typeShort:
		return uint64(order.Uint16(e.raw))
	case typeLong:
		return uint64(order.Uint32(e.raw))
	}
	return def
}

func uintVals(entries map[uint16]ifdEntry, tag uint16, order binary.ByteOrder) ([]uint64, error) {
	e, ok := entries[tag]
	if !ok {
		return nil, fmt.Errorf("missing required tag %d", tag)
	}
	out := make([]uint64, e.count)
	for i := range out {
		switch e.typ {
		case typeByte:
			out[i] = uint64(e.raw[i])
		case typeShort:
			out[i] = uint64(order.Uint16(e.raw[2*i:]))
		case typeLong:
			out[i] = uint64(order.Uint32(e.raw[4*i:]))
		default:
			return nil, fmt.Errorf("tag %d: unexpected field type %d", tag, e.typ)
		}
	}
	return out, nil
}

func doubleVals(entries map[uint16]ifdEntry, tag uint16, order binary.ByteOrder) ([]float64, error) {
	e, ok := entries[tag]
	if !ok {
		return nil, fmt.Errorf("missing tag %d", tag)
	}
	if e.typ != typeDouble {
		return nil, fmt.Errorf("tag %d: expected DOUBLE, got type %d", tag, e.typ)
	}
	out := make([]float64, e.count)
	for i := range out {
		out[i] = math.Float64frombits(order.Uint64(e.raw[8*i:]))
	}
	return out, nil
}

func decodeSamples(pixels []byte, order binary.ByteOrder, bits, format uint64, n int) ([]float64, error) {
	out := make([]float64, n)
	switch {
	case bits == 8 && format == 1:
		for i := 0; i < n; i++ {
			out[i] = float64(pixels[i])
		}
	case bits == 16 && format == 1:
		for i := 0; i < n; i++ {
			out[i] = float64(order.Uint16(pixels[2*i:]))
		}
	case bits == 16 && format == 2:
		for i := 0; i < n; i++ {
			out[i] = float64(int16(order.Uint16(pixels[2*i:])))
		}
	case bits == 32 && format == 1:
		for i := 0; i < n; i++ {
			out[i] = float64(order.Uint32(pixels[4*i:]))
		}
	case bits == 32 && format == 2:
		for i := 0; i < n; i++ {
			out[i] = float64(int32(order.Uint32(pixels[4*i:])))
		}
	case bits == 32 && format == 3:
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(order.Uint32(pixels[4*i:])))
		}
	case bits == 64 && format == 3:
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(order.Uint64(pixels[8*i:]))
		}
	default:
		return nil, fmt.Errorf("unsupported sample layout: %d bits, format %d", bits, format)
	}
	return out, nil
}
