package urlgen

import "strings"

// Params route parameter name → value
type Params map[string]string

// Generator builds URLs for named admin routes. Routes are plain
// patterns with :name placeholders; gin has no reverse routing.
type Generator struct {
	base   string
	routes map[string]string
}

// defaultRoutes the admin UI routes the save workflow redirects to
var defaultRoutes = map[string]string{
	"dashboard":        "/admin",
	"content.overview": "/admin/content/:contenttype",
	"content.new":      "/admin/content/:contenttype/new",
	"content.edit":     "/admin/content/:contenttype/edit/:id",
}

// New creates a generator with the default route table
func New(base string) *Generator {
	return &Generator{
		base:   strings.TrimSuffix(base, "/"),
		routes: defaultRoutes,
	}
}

// Register adds or replaces a named route pattern
func (g *Generator) Register(name, pattern string) {
	routes := make(map[string]string, len(g.routes)+1)
	for k, v := range g.routes {
		routes[k] = v
	}
	routes[name] = pattern
	g.routes = routes
}

// Generate renders the named route with params substituted. Unknown
// route names fall back to the dashboard.
func (g *Generator) Generate(name string, params Params) string {
	pattern, ok := g.routes[name]
	if !ok {
		pattern = g.routes["dashboard"]
	}

	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			if val, ok := params[seg[1:]]; ok {
				segments[i] = val
			}
		}
	}
	return g.base + strings.Join(segments, "/")
}

// GenerateWithAnchor renders the named route and appends a #anchor
func (g *Generator) GenerateWithAnchor(name string, params Params, anchor string) string {
	url := g.Generate(name, params)
	if anchor == "" {
		return url
	}
	return url + "#" + anchor
}
