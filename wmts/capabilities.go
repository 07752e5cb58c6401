package wmts

import (
	"encoding/xml"
	"fmt"
	"github.com/paulmach/orb"
	"golang.org/x/net/html/charset"
	"io"
	"strconv"
	"strings"
)

// Capabilities is a WMTS 1.0.0 GetCapabilities document, reduced to what
// is needed to configure a tile source. Element names match any namespace.
type Capabilities struct {
	XMLName xml.Name `xml:"Capabilities"`
	Version string   `xml:"version,attr"`

	ServiceIdentification *ServiceIdentification `xml:"ServiceIdentification"`
	OperationsMetadata    *OperationsMetadata    `xml:"OperationsMetadata"`
	Contents              *Contents              `xml:"Contents"`
}

type ServiceIdentification struct {
	Title              string `xml:"Title"`
	Abstract           string `xml:"Abstract"`
	ServiceType        string `xml:"ServiceType"`
	ServiceTypeVersion string `xml:"ServiceTypeVersion"`
}

type OperationsMetadata struct {
	Operations []Operation `xml:"Operation"`
}

type Operation struct {
	Name string    `xml:"name,attr"`
	Gets []HTTPGet `xml:"DCP>HTTP>Get"`
}

type HTTPGet struct {
	Href        string       `xml:"href,attr"`
	Constraints []Constraint `xml:"Constraint"`
}

type Constraint struct {
	Name          string   `xml:"name,attr"`
	AllowedValues []string `xml:"AllowedValues>Value"`
}

type Contents struct {
	Layers         []Layer         `xml:"Layer"`
	TileMatrixSets []TileMatrixSet `xml:"TileMatrixSet"`
}

type Layer struct {
	Identifier         string              `xml:"Identifier"`
	Title              string              `xml:"Title"`
	Abstract           string              `xml:"Abstract"`
	WGS84BoundingBox   *BoundingBox        `xml:"WGS84BoundingBox"`
	Styles             []Style             `xml:"Style"`
	Formats            []string            `xml:"Format"`
	InfoFormats        []string            `xml:"InfoFormat"`
	Dimensions         []Dimension         `xml:"Dimension"`
	TileMatrixSetLinks []TileMatrixSetLink `xml:"TileMatrixSetLink"`
	ResourceURLs       []ResourceURL       `xml:"ResourceURL"`
}

type BoundingBox struct {
	LowerCorner Corner `xml:"LowerCorner"`
	UpperCorner Corner `xml:"UpperCorner"`
}

func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point(b.LowerCorner), Max: orb.Point(b.UpperCorner)}
}

type Style struct {
	Identifier string `xml:"Identifier"`
	Title      string `xml:"Title"`
	IsDefault  bool   `xml:"isDefault,attr"`
}

type Dimension struct {
	Identifier string   `xml:"Identifier"`
	Default    string   `xml:"Default"`
	Values     []string `xml:"Value"`
}

type TileMatrixSetLink struct {
	TileMatrixSet string             `xml:"TileMatrixSet"`
	Limits        []TileMatrixLimits `xml:"TileMatrixSetLimits>TileMatrixLimits"`
}

type TileMatrixLimits struct {
	TileMatrix string `xml:"TileMatrix"`
	MinTileRow int    `xml:"MinTileRow"`
	MaxTileRow int    `xml:"MaxTileRow"`
	MinTileCol int    `xml:"MinTileCol"`
	MaxTileCol int    `xml:"MaxTileCol"`
}

type ResourceURL struct {
	Format       string `xml:"format,attr"`
	ResourceType string `xml:"resourceType,attr"`
	Template     string `xml:"template,attr"`
}

type TileMatrixSet struct {
	Identifier        string       `xml:"Identifier"`
	SupportedCRS      string       `xml:"SupportedCRS"`
	WellKnownScaleSet string       `xml:"WellKnownScaleSet"`
	TileMatrices      []TileMatrix `xml:"TileMatrix"`
}

type TileMatrix struct {
	Identifier       string  `xml:"Identifier"`
	ScaleDenominator float64 `xml:"ScaleDenominator"`
	TopLeftCorner    Corner  `xml:"TopLeftCorner"`
	TileWidth        int     `xml:"TileWidth"`
	TileHeight       int     `xml:"TileHeight"`
	MatrixWidth      int     `xml:"MatrixWidth"`
	MatrixHeight     int     `xml:"MatrixHeight"`
}

// Corner is a whitespace separated coordinate pair, in the axis order
// of the CRS it belongs to.
type Corner [2]float64

func (c *Corner) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	if len(fields) != 2 {
		return fmt.Errorf("corner %q: want 2 coordinates, got %d", text, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("corner %q: %w", text, err)
		}
		c[i] = v
	}
	return nil
}

// ParseCapabilities decodes a capabilities document.
// Failures are *ParseError.
func ParseCapabilities(r io.Reader) (*Capabilities, error) {
	caps := &Capabilities{}
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(caps); err != nil {
		return nil, &ParseError{Err: err}
	}
	if caps.Contents == nil {
		return nil, parseErrorf("no Contents element")
	}
	for _, tms := range caps.Contents.TileMatrixSets {
		if tms.Identifier == "" {
			return nil, parseErrorf("TileMatrixSet without Identifier")
		}
		for _, tm := range tms.TileMatrices {
			if tm.ScaleDenominator <= 0 {
				return nil, parseErrorf("TileMatrix %s:%s: ScaleDenominator %v", tms.Identifier, tm.Identifier, tm.ScaleDenominator)
			}
		}
	}
	return caps, nil
}

// Layer returns the layer with identifier id.
func (c *Capabilities) Layer(id string) (*Layer, bool) {
	if c.Contents == nil {
		return nil, false
	}
	for i := range c.Contents.Layers {
		if c.Contents.Layers[i].Identifier == id {
			return &c.Contents.Layers[i], true
		}
	}
	return nil, false
}

// LayerIDs lists layer identifiers in document order.
func (c *Capabilities) LayerIDs() []string {
	if c.Contents == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Contents.Layers))
	for _, l := range c.Contents.Layers {
		ids = append(ids, l.Identifier)
	}
	return ids
}

func (c *Capabilities) TileMatrixSet(id string) (*TileMatrixSet, bool) {
	if c.Contents == nil {
		return nil, false
	}
	for i := range c.Contents.TileMatrixSets {
		if c.Contents.TileMatrixSets[i].Identifier == id {
			return &c.Contents.TileMatrixSets[i], true
		}
	}
	return nil, false
}

// Operation returns the named operation, eg. "GetTile".
func (m *OperationsMetadata) Operation(name string) (*Operation, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Operations {
		if m.Operations[i].Name == name {
			return &m.Operations[i], true
		}
	}
	return nil, false
}

// Encodings lists the GetEncoding values allowed for this endpoint.
// An endpoint without the constraint is KVP.
func (g HTTPGet) Encodings() []RequestEncoding {
	for _, c := range g.Constraints {
		if c.Name != "GetEncoding" {
			continue
		}
		out := make([]RequestEncoding, 0, len(c.AllowedValues))
		for _, v := range c.AllowedValues {
			out = append(out, RequestEncoding(strings.ToUpper(strings.TrimSpace(v))))
		}
		return out
	}
	return []RequestEncoding{EncodingKVP}
}
