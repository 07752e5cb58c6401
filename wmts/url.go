package wmts

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CapabilitiesURL returns base with SERVICE=WMTS and REQUEST=GetCapabilities
// appended, unless base already carries them.
func CapabilitiesURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", base)
	}
	return appendParams(base, u.Query(), [][2]string{
		{"SERVICE", "WMTS"},
		{"REQUEST", "GetCapabilities"},
	}), nil
}

// appendParams appends kv to raw in order, skipping keys present in have
// under any letter case.
func appendParams(raw string, have url.Values, kv [][2]string) string {
	present := map[string]bool{}
	for k := range have {
		present[strings.ToUpper(k)] = true
	}
	var sb strings.Builder
	for _, p := range kv {
		if present[strings.ToUpper(p[0])] {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p[0]))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p[1]))
	}
	if sb.Len() == 0 {
		return raw
	}
	// Fragments are not sent; drop one rather than append after it.
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	switch {
	case !strings.Contains(raw, "?"):
		raw += "?"
	case !strings.HasSuffix(raw, "?") && !strings.HasSuffix(raw, "&"):
		raw += "&"
	}
	return raw + sb.String()
}

var templateKey = regexp.MustCompile(`\{(\w+?)\}`)

// TileURL returns the url of tile (z, col, row). Rows count down from the
// grid origin.
func (o *SourceOptions) TileURL(z, col, row int) (string, error) {
	if len(o.URLs) == 0 {
		return "", fmt.Errorf("layer %s has no tile url", o.Layer)
	}
	if o.TileGrid == nil {
		return "", fmt.Errorf("layer %s has no tile grid", o.Layer)
	}
	matrix, err := o.TileGrid.MatrixID(z)
	if err != nil {
		return "", err
	}
	n := (col + row) % len(o.URLs)
	if n < 0 {
		n += len(o.URLs)
	}
	base := o.URLs[n]

	if o.RequestEncoding == EncodingREST {
		ctx := map[string]string{
			"layer":         o.Layer,
			"style":         o.Style,
			"tilematrixset": o.MatrixSet,
			"tilematrix":    matrix,
			"tilerow":       strconv.Itoa(row),
			"tilecol":       strconv.Itoa(col),
		}
		for k, v := range o.Dimensions {
			ctx[strings.ToLower(k)] = v
		}
		return templateKey.ReplaceAllStringFunc(base, func(m string) string {
			if v, ok := ctx[strings.ToLower(m[1:len(m)-1])]; ok {
				return v
			}
			return m
		}), nil
	}

	kv := [][2]string{
		{"SERVICE", "WMTS"},
		{"REQUEST", "GetTile"},
		{"VERSION", "1.0.0"},
		{"LAYER", o.Layer},
		{"STYLE", o.Style},
		{"FORMAT", o.Format},
		{"TILEMATRIXSET", o.MatrixSet},
		{"TILEMATRIX", matrix},
		{"TILEROW", strconv.Itoa(row)},
		{"TILECOL", strconv.Itoa(col)},
	}
	keys := make([]string, 0, len(o.Dimensions))
	for k := range o.Dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, [2]string{k, o.Dimensions[k]})
	}
	var have url.Values
	if u, err := url.Parse(base); err == nil {
		have = u.Query()
	}
	return appendParams(base, have, kv), nil
}
