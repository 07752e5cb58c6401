package proj

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnsupported = errors.New("unsupported projection")
	ErrUnknown     = errors.New("unknown projection")
	ErrBadDef      = errors.New("malformed projection definition")
)

type Units string

const (
	UnitsMetres  Units = "m"
	UnitsDegrees Units = "degrees"
	UnitsFeet    Units = "ft"
	UnitsUSFeet  Units = "us-ft"
)

// metersPerUnit follows the conventions web map clients use,
// degrees are measured on the 6370997m authalic sphere.
var metersPerUnit = map[Units]float64{
	UnitsMetres:  1,
	UnitsDegrees: 2 * math.Pi * 6370997 / 360,
	UnitsFeet:    0.3048,
	UnitsUSFeet:  1200.0 / 3937.0,
}

type ellipsoid struct {
	a  float64
	rf float64 // inverse flattening, 0 for a sphere
}

var ellipsoids = map[string]ellipsoid{
	"GRS80":  {a: 6378137, rf: 298.257222101},
	"WGS84":  {a: 6378137, rf: 298.257223563},
	"bessel": {a: 6377397.155, rf: 299.1528128},
	"intl":   {a: 6378388, rf: 297},
	"krass":  {a: 6378245, rf: 298.3},
}

// Definition is a parsed proj string.
type Definition struct {
	Proj  string
	Lat0  float64
	Lon0  float64
	K0    float64
	X0    float64
	Y0    float64
	A     float64
	Rf    float64
	Units Units
	Axis  string
	Zone  int
	South bool

	// Params holds every +key[=value] as given.
	Params map[string]string
}

// ParseDef parses a proj string such as
//
//	+proj=tmerc +lat_0=0 +lon_0=19 +k=0.9993 +x_0=500000 +y_0=-5300000 +ellps=GRS80 +units=m +axis=neu +no_defs
func ParseDef(def string) (*Definition, error) {
	d := &Definition{
		K0:     1,
		Units:  UnitsMetres,
		Axis:   "enu",
		Params: map[string]string{},
	}
	for _, field := range strings.Fields(def) {
		if !strings.HasPrefix(field, "+") {
			return nil, fmt.Errorf("%w: %q is not a +parameter", ErrBadDef, field)
		}
		k, v, _ := strings.Cut(field[1:], "=")
		d.Params[k] = v
	}
	d.Proj = d.Params["proj"]
	if d.Proj == "" {
		return nil, fmt.Errorf("%w: missing +proj", ErrBadDef)
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"lat_0", &d.Lat0},
		{"lon_0", &d.Lon0},
		{"k", &d.K0},
		{"k_0", &d.K0},
		{"x_0", &d.X0},
		{"y_0", &d.Y0},
	}
	for _, f := range floats {
		v, ok := d.Params[f.key]
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: +%s=%q", ErrBadDef, f.key, v)
		}
		*f.dst = n
	}

	if err := d.parseEllipsoid(); err != nil {
		return nil, err
	}

	if v, ok := d.Params["units"]; ok {
		u := Units(v)
		if _, known := metersPerUnit[u]; !known {
			return nil, fmt.Errorf("%w: units %q", ErrUnsupported, v)
		}
		d.Units = u
	}
	if v, ok := d.Params["axis"]; ok {
		if len(v) != 3 {
			return nil, fmt.Errorf("%w: axis %q", ErrBadDef, v)
		}
		d.Axis = v
	}

	switch d.Proj {
	case "tmerc":
	case "utm":
		zone, err := strconv.Atoi(d.Params["zone"])
		if err != nil || zone < 1 || zone > 60 {
			return nil, fmt.Errorf("%w: utm zone %q", ErrBadDef, d.Params["zone"])
		}
		_, d.South = d.Params["south"]
		d.Zone = zone
		d.Lon0 = float64(zone-1)*6 - 180 + 3
		d.Lat0 = 0
		d.K0 = 0.9996
		d.X0 = 500000
		d.Y0 = 0
		if d.South {
			d.Y0 = 10000000
		}
	case "longlat", "latlong", "lonlat", "latlon":
		d.Proj = "longlat"
		d.Units = UnitsDegrees
	case "merc":
		if d.Rf != 0 {
			return nil, fmt.Errorf("%w: ellipsoidal merc", ErrUnsupported)
		}
	default:
		return nil, fmt.Errorf("%w: +proj=%s", ErrUnsupported, d.Proj)
	}
	return d, nil
}

func (d *Definition) parseEllipsoid() error {
	e := ellipsoids["WGS84"]
	if name, ok := d.Params["ellps"]; ok {
		known, ok := ellipsoids[name]
		if !ok {
			return fmt.Errorf("%w: ellps %q", ErrUnsupported, name)
		}
		e = known
	}
	num := func(key string) (float64, bool, error) {
		v, ok := d.Params[key]
		if !ok {
			return 0, false, nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, true, fmt.Errorf("%w: +%s=%q", ErrBadDef, key, v)
		}
		return n, true, nil
	}
	if r, ok, err := num("R"); err != nil {
		return err
	} else if ok {
		e = ellipsoid{a: r}
	}
	if a, ok, err := num("a"); err != nil {
		return err
	} else if ok {
		e.a = a
		e.rf = 0
		if rf, ok, err := num("rf"); err != nil {
			return err
		} else if ok {
			e.rf = rf
		}
		if b, ok, err := num("b"); err != nil {
			return err
		} else if ok && b != a {
			e.rf = a / (a - b)
		}
	}
	d.A = e.a
	d.Rf = e.rf
	return nil
}

// EPSGNumber returns the numeric part of an EPSG:N code.
func EPSGNumber(code string) (int, error) {
	n, ok := strings.CutPrefix(NormalizeCode(code), "EPSG:")
	if !ok {
		return 0, fmt.Errorf("%w: %q is not an EPSG code", ErrBadDef, code)
	}
	return strconv.Atoi(n)
}

var mercatorAliases = map[string]bool{
	"EPSG:3857":   true,
	"EPSG:102100": true,
	"EPSG:102113": true,
	"EPSG:900913": true,
	"EPSG:3785":   true,
}

// NormalizeCode maps the OGC URN and URL spellings of a CRS to EPSG:N,
// and the CRS84 spellings to CRS:84.
// Codes it does not recognise are returned trimmed but otherwise unchanged.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	upper := strings.ToUpper(code)
	switch {
	case upper == "CRS:84" || upper == "OGC:CRS84" || strings.HasSuffix(upper, ":CRS84") || strings.HasSuffix(upper, "/CRS84"):
		return CRS84
	case strings.HasPrefix(upper, "URN:OGC:DEF:CRS:EPSG:"):
		parts := strings.Split(code, ":")
		code = "EPSG:" + parts[len(parts)-1]
	case strings.Contains(upper, "/DEF/CRS/EPSG/"):
		parts := strings.Split(strings.TrimSuffix(code, "/"), "/")
		code = "EPSG:" + parts[len(parts)-1]
	case strings.HasPrefix(upper, "EPSG:"):
		code = "EPSG:" + code[len("EPSG:"):]
	}
	if mercatorAliases[code] {
		return "EPSG:3857"
	}
	return code
}
