package ogc

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/agrefed/dem-harvester/internal/model"
)

// WCS 1.0.0 GetCapabilities document, reduced to the content section.
type capabilitiesDoc struct {
	XMLName   xml.Name           `xml:"WCS_Capabilities"`
	Offerings []coverageOffering `xml:"ContentMetadata>CoverageOfferingBrief"`
}

type coverageOffering struct {
	Name        string   `xml:"name"`
	Label       string   `xml:"label"`
	Description string   `xml:"description"`
	Positions   []string `xml:"lonLatEnvelope>pos"`
}

// ParseCapabilities extracts the advertised coverages from a GetCapabilities
// response, in the order the service reports them.
func ParseCapabilities(body []byte) ([]model.LayerMetadata, error) {
	var doc capabilitiesDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode capabilities: %w", err)
	}
	layers := make([]model.LayerMetadata, 0, len(doc.Offerings))
	for _, off := range doc.Offerings {
		bb, err := parseEnvelope(off.Positions)
		if err != nil {
			return nil, fmt.Errorf("coverage %q: %w", off.Name, err)
		}
		layers = append(layers, model.LayerMetadata{
			Identifier:  off.Name,
			Title:       off.Label,
			Description: strings.TrimSpace(off.Description),
			BBox:        bb,
		})
	}
	return layers, nil
}

// parseEnvelope turns the two gml:pos corners of a lonLatEnvelope into a BBox.
func parseEnvelope(positions []string) (model.BBox, error) {
	if len(positions) != 2 {
		return model.BBox{}, fmt.Errorf("expected 2 envelope positions, got %d", len(positions))
	}
	minX, minY, err := parsePos(positions[0])
	if err != nil {
		return model.BBox{}, err
	}
	maxX, maxY, err := parsePos(positions[1])
	if err != nil {
		return model.BBox{}, err
	}
	return model.BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, nil
}

func parsePos(pos string) (float64, float64, error) {
	fields := strings.Fields(pos)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed gml:pos %q", pos)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("gml:pos %q: %w", pos, err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("gml:pos %q: %w", pos, err)
	}
	return x, y, nil
}

type exceptionReport struct {
	XMLName    xml.Name `xml:"ServiceExceptionReport"`
	Exceptions []struct {
		Code string `xml:"code,attr"`
		Text string `xml:",chardata"`
	} `xml:"ServiceException"`
}

// ParseServiceException decodes a ServiceExceptionReport body into an error.
// Returns nil if the body is not an exception report.
func ParseServiceException(body []byte) error {
	var rep exceptionReport
	if err := xml.Unmarshal(body, &rep); err != nil {
		return nil
	}
	if len(rep.Exceptions) == 0 {
		return fmt.Errorf("service exception (empty report)")
	}
	ex := rep.Exceptions[0]
	msg := strings.TrimSpace(ex.Text)
	if ex.Code != "" {
		return fmt.Errorf("service exception %s: %s", ex.Code, msg)
	}
	return fmt.Errorf("service exception: %s", msg)
}
