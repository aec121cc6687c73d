package guard

import (
	"bytes"
	_ "embed"
)

//go:embed default_routes.yaml
var defaultRoutes []byte

// DefaultRoutes returns the built-in panel route table.
func DefaultRoutes() (*RouteTable, error) {
	return LoadRoutes(bytes.NewReader(defaultRoutes))
}
