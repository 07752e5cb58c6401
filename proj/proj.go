// Package proj is a registry of coordinate reference systems.
// Map coordinates are always (east, north). Axis orientation is kept only to
// read coordinates published in a CRS's own axis order, like WMTS TopLeftCorner.
package proj

import (
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/wroge/wgs84"
	"math"
	"sort"
	"sync"
)

const (
	EPSG4326 = "EPSG:4326"
	EPSG3857 = "EPSG:3857"

	// CRS84 is WGS84 lon/lat published longitude first.
	CRS84 = "CRS:84"
)

// mercatorHalfWidth is half the EPSG:3857 world width in metres.
const mercatorHalfWidth = math.Pi * orb.EarthRadius

type Projection struct {
	Code  string
	Def   string
	Units Units

	axis string
	// sameAs names the CRS this one differs from only in axis order.
	sameAs  string
	extent  *orb.Bound
	forward orb.Projection
	inverse orb.Projection
}

func (p *Projection) MetersPerUnit() float64 {
	return metersPerUnit[p.Units]
}

// AxisOrientation is eg. "enu" or "neu".
func (p *Projection) AxisOrientation() string {
	return p.axis
}

// NorthingFirst reports whether published coordinates in this CRS
// list northing before easting.
func (p *Projection) NorthingFirst() bool {
	return len(p.axis) >= 2 && p.axis[:2] == "ne"
}

// Extent returns the projection validity extent, if one is known.
func (p *Projection) Extent() (orb.Bound, bool) {
	if p.extent == nil {
		return orb.Bound{}, false
	}
	return *p.extent, true
}

// Forward projects a lon/lat point.
func (p *Projection) Forward(lonlat orb.Point) orb.Point {
	return p.forward(lonlat)
}

// Inverse unprojects a point to lon/lat.
func (p *Projection) Inverse(xy orb.Point) orb.Point {
	return p.inverse(xy)
}

func (p *Projection) String() string {
	return p.Code
}

// Equivalent reports whether a and b describe the same CRS.
func Equivalent(a, b *Projection) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b || a.datum() == b.datum() {
		return true
	}
	return a.Def != "" && a.Def == b.Def
}

func (p *Projection) datum() string {
	if p.sameAs != "" {
		return p.sameAs
	}
	return p.Code
}

func identity(p orb.Point) orb.Point { return p }

func newLonLat(code, axis string) *Projection {
	world := orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	return &Projection{
		Code:    code,
		Units:   UnitsDegrees,
		axis:    axis,
		extent:  &world,
		forward: identity,
		inverse: identity,
	}
}

func newWebMercator() *Projection {
	world := orb.Bound{
		Min: orb.Point{-mercatorHalfWidth, -mercatorHalfWidth},
		Max: orb.Point{mercatorHalfWidth, mercatorHalfWidth},
	}
	return &Projection{
		Code:    EPSG3857,
		Units:   UnitsMetres,
		axis:    "enu",
		extent:  &world,
		forward: project.WGS84.ToMercator,
		inverse: project.Mercator.ToWGS84,
	}
}

// spheroid satisfies wgs84's spheroid by semi-major axis and inverse flattening.
type spheroid struct {
	a, fi float64
}

func (s spheroid) A() float64 {
	return s.a
}

func (s spheroid) Fi() float64 {
	return s.fi
}

type transformFunc = func(a, b, c float64) (a2, b2, c2 float64)

func pointFunc(t transformFunc) orb.Projection {
	return func(p orb.Point) orb.Point {
		x, y, _ := t(p[0], p[1], 0)
		return orb.Point{x, y}
	}
}

func fromDefinition(code string, d *Definition) (*Projection, error) {
	p := &Projection{
		Code:  code,
		Units: d.Units,
		axis:  d.Axis,
	}
	switch d.Proj {
	case "longlat":
		p.forward, p.inverse = identity, identity
	case "merc":
		if d.A != orb.EarthRadius || d.Lon0 != 0 || d.X0 != 0 || d.Y0 != 0 {
			return nil, fmt.Errorf("%w: merc is only supported as EPSG:3857", ErrUnsupported)
		}
		p.forward, p.inverse = project.WGS84.ToMercator, project.Mercator.ToWGS84
	case "tmerc", "utm":
		num, err := EPSGNumber(code)
		if err != nil {
			return nil, err
		}
		datum := wgs84.Datum{
			Spheroid: spheroid{a: d.A, fi: d.Rf},
			Area: wgs84.AreaFunc(func(lon, lat float64) bool {
				return true
			}),
		}
		crs := datum.TransverseMercator(d.Lon0, d.Lat0, d.K0, d.X0, d.Y0)
		epsg := wgs84.EPSG()
		epsg.Add(num, crs)
		var fwd, inv transformFunc
		fwd = wgs84.Transform(wgs84.WGS84().LonLat(), epsg.Code(num))
		inv = wgs84.Transform(epsg.Code(num), wgs84.WGS84().LonLat())
		p.forward, p.inverse = pointFunc(fwd), pointFunc(inv)
	default:
		return nil, fmt.Errorf("%w: +proj=%s", ErrUnsupported, d.Proj)
	}
	return p, nil
}

// Registry holds projections by normalized code.
type Registry struct {
	mu     sync.RWMutex
	byCode map[string]*Projection
}

// NewRegistry returns a registry knowing EPSG:4326, CRS:84 and EPSG:3857.
func NewRegistry() *Registry {
	crs84 := newLonLat(CRS84, "enu")
	crs84.sameAs = EPSG4326
	return &Registry{
		byCode: map[string]*Projection{
			EPSG4326: newLonLat(EPSG4326, "neu"),
			CRS84:    crs84,
			EPSG3857: newWebMercator(),
		},
	}
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Register defines code by a proj string, replacing any previous definition.
func (r *Registry) Register(code, def string) (*Projection, error) {
	code = NormalizeCode(code)
	d, err := ParseDef(def)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", code, err)
	}
	p, err := fromDefinition(code, d)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", code, err)
	}
	p.Def = def
	r.mu.Lock()
	r.byCode[code] = p
	r.mu.Unlock()
	return p, nil
}

// SetExtent replaces a registered projection with a copy carrying extent.
// Projections already handed out keep their previous extent.
func (r *Registry) SetExtent(code string, extent orb.Bound) error {
	code = NormalizeCode(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byCode[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, code)
	}
	cp := *p
	cp.extent = &extent
	r.byCode[code] = &cp
	return nil
}

func (r *Registry) Get(code string) (*Projection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byCode[NormalizeCode(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, code)
	}
	return p, nil
}

// Codes lists registered codes in order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.byCode))
	for c := range r.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Definitions returns the proj strings of custom projections by code,
// which is what a browser needs to register them with proj4.
func (r *Registry) Definitions() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := map[string]string{}
	for c, p := range r.byCode {
		if p.Def != "" {
			defs[c] = p.Def
		}
	}
	return defs
}

func (r *Registry) Transform(pt orb.Point, from, to string) (orb.Point, error) {
	src, err := r.Get(from)
	if err != nil {
		return orb.Point{}, err
	}
	dst, err := r.Get(to)
	if err != nil {
		return orb.Point{}, err
	}
	if Equivalent(src, dst) {
		return pt, nil
	}
	return dst.Forward(src.Inverse(pt)), nil
}

// TransformExtent transforms the corners and edge midpoints of b
// and returns their bound.
func (r *Registry) TransformExtent(b orb.Bound, from, to string) (orb.Bound, error) {
	mid := b.Center()
	samples := []orb.Point{
		b.Min, {mid[0], b.Min[1]}, {b.Max[0], b.Min[1]},
		{b.Max[0], mid[1]}, b.Max, {mid[0], b.Max[1]},
		{b.Min[0], b.Max[1]}, {b.Min[0], mid[1]},
	}
	var out orb.Bound
	for i, s := range samples {
		pt, err := r.Transform(s, from, to)
		if err != nil {
			return orb.Bound{}, err
		}
		if i == 0 {
			out = pt.Bound()
			continue
		}
		out = out.Extend(pt)
	}
	return out, nil
}

// FromLonLat projects a lon/lat point into code.
func (r *Registry) FromLonLat(lonlat orb.Point, code string) (orb.Point, error) {
	return r.Transform(lonlat, EPSG4326, code)
}

// ToLonLat unprojects a point in code to lon/lat.
func (r *Registry) ToLonLat(pt orb.Point, code string) (orb.Point, error) {
	return r.Transform(pt, code, EPSG4326)
}

func Register(code, def string) (*Projection, error) {
	return Default.Register(code, def)
}

func Get(code string) (*Projection, error) {
	return Default.Get(code)
}

func FromLonLat(lonlat orb.Point, code string) (orb.Point, error) {
	return Default.FromLonLat(lonlat, code)
}

// TopLeft is the top left corner of an extent.
func TopLeft(b orb.Bound) orb.Point {
	return orb.Point{b.Min[0], b.Max[1]}
}

func Width(b orb.Bound) float64 {
	return b.Max[0] - b.Min[0]
}

func Height(b orb.Bound) float64 {
	return b.Max[1] - b.Min[1]
}
