package guard

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Guard names accepted in a route declaration.
const (
	GuardSession    = "session"
	GuardLogin      = "login"
	GuardPermission = "permission"
)

var ErrInvalidRoute = errors.New("invalid route")

// Route is a static route declaration.
type Route struct {
	Path    string   `yaml:"path" json:"path"`
	Section string   `yaml:"section,omitempty" json:"section,omitempty"`
	View    string   `yaml:"view,omitempty" json:"view,omitempty"`
	Guards  []string `yaml:"guards,omitempty" json:"guards,omitempty"`

	segments []string
}

// RouteTable matches navigation URLs against declared routes in order.
type RouteTable struct {
	routes []Route
}

type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadRoutesFile reads a YAML route table from path.
func LoadRoutesFile(path string) (*RouteTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open routes: %w", err)
	}
	defer f.Close()
	return LoadRoutes(f)
}

// LoadRoutes decodes a YAML route table:
//
//	routes:
//	  - path: /admin/dashboard
//	    view: DashboardComponent
//	    guards: [session, permission]
func LoadRoutes(r io.Reader) (*RouteTable, error) {
	var doc routeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	return NewRouteTable(doc.Routes)
}

// NewRouteTable validates routes and fills in their section.
func NewRouteTable(routes []Route) (*RouteTable, error) {
	t := &RouteTable{routes: make([]Route, 0, len(routes))}
	for i, rt := range routes {
		rt.Path = "/" + strings.Trim(strings.TrimSpace(rt.Path), "/")
		rt.segments = splitPath(rt.Path)
		first := ""
		if len(rt.segments) > 0 && !isParam(rt.segments[0]) {
			first = rt.segments[0]
		}
		switch {
		case rt.Section == "":
			rt.Section = first
		case rt.Section != first:
			return nil, fmt.Errorf("%w: route %d (%s): section %q does not match path", ErrInvalidRoute, i, rt.Path, rt.Section)
		}
		for _, g := range rt.Guards {
			switch g {
			case GuardSession, GuardLogin, GuardPermission:
			default:
				return nil, fmt.Errorf("%w: route %d (%s): unknown guard %q", ErrInvalidRoute, i, rt.Path, g)
			}
		}
		t.routes = append(t.routes, rt)
	}
	return t, nil
}

// Routes returns a copy of the declared routes.
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Match returns the first route matching the path of rawURL. A ":name"
// segment matches any single segment and a trailing "**" matches the rest.
func (t *RouteTable) Match(rawURL string) (Route, bool) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	segs := splitPath(p)
	for _, rt := range t.routes {
		if matchSegments(rt.segments, segs) {
			return rt, true
		}
	}
	return Route{}, false
}

func matchSegments(pattern, segs []string) bool {
	for i, p := range pattern {
		if p == "**" {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if !isParam(p) && p != segs[i] {
			return false
		}
	}
	return len(pattern) == len(segs)
}

func isParam(s string) bool { return strings.HasPrefix(s, ":") || s == "**" }

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
