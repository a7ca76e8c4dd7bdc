package routerhelper

import (
	"net/http"
	"path"

	"github.com/julienschmidt/httprouter"
)

// RouteGroup registers handlers on an httprouter under a common prefix.
type RouteGroup struct {
	router *httprouter.Router
	prefix string
}

func NewRouteGroup(router *httprouter.Router, prefix string) *RouteGroup {
	return &RouteGroup{router: router, prefix: prefix}
}

func (g *RouteGroup) Group(prefix string) *RouteGroup {
	return NewRouteGroup(g.router, g.path(prefix))
}

func (g *RouteGroup) GET(p string, handle httprouter.Handle) {
	g.router.Handle(http.MethodGet, g.path(p), handle)
}

func (g *RouteGroup) POST(p string, handle httprouter.Handle) {
	g.router.Handle(http.MethodPost, g.path(p), handle)
}

func (g *RouteGroup) DELETE(p string, handle httprouter.Handle) {
	g.router.Handle(http.MethodDelete, g.path(p), handle)
}

func (g *RouteGroup) path(p string) string {
	return path.Join(g.prefix, p)
}
