package testdata

import (
	"os"
	"path/filepath"
	"runtime"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory in the user's GOPATH.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basepath, rel)
}

// Source_OrtoCapabilities is a trimmed copy of the geoportal ORTO
// StandardResolution capabilities: layers ORTOFOTOMAPA and SKOROWIDZE,
// matrix sets EPSG:2180 (14 levels, 512px) and EPSG:3857 (6 levels, 256px,
// limited to levels 0-3 for ORTOFOTOMAPA).
var Source_OrtoCapabilities = "./wmts/orto_capabilities.xml"

// OrtoLayer is the layer id served by Source_OrtoCapabilities.
const OrtoLayer = "ORTOFOTOMAPA"

// EPSG2180Def is the proj string the geoportal documents for EPSG:2180.
const EPSG2180Def = "+proj=tmerc +lat_0=0 +lon_0=19 +k=0.9993 +x_0=500000 +y_0=-5300000 +ellps=GRS80 +units=m +axis=neu +no_defs"

// ReadFile reads a fixture by its path relative to this directory.
func ReadFile(rel string) ([]byte, error) {
	return os.ReadFile(Path(rel))
}

// MustReadFile is ReadFile for tests that cannot proceed without the fixture.
func MustReadFile(rel string) []byte {
	b, err := ReadFile(rel)
	if err != nil {
		panic(err)
	}
	return b
}
