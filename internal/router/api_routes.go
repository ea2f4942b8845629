package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/api-client-manager/internal/handler"
)

// API bundles the handlers and the middleware of the /api/v1 surface.
type API struct {
	Services            *handler.ServiceHandler
	Clients             *handler.ClientHandler
	Customers           *handler.CustomerHandler
	AlertConfigurations *handler.AlertConfigurationHandler

	// ClientCheck guards every route except POST /services and
	// POST /clients.  Nil disables it.
	ClientCheck echo.MiddlewareFunc
	RateLimit   echo.MiddlewareFunc
	Admin       echo.MiddlewareFunc
	User        echo.MiddlewareFunc
	Cache       echo.MiddlewareFunc
}

// chain orders the per-route middleware: client credentials, rate limit,
// identity, then the response cache.
func (a API) chain(clientCheck bool, auth echo.MiddlewareFunc) []echo.MiddlewareFunc {
	var m []echo.MiddlewareFunc
	if clientCheck && a.ClientCheck != nil {
		m = append(m, a.ClientCheck)
	}
	for _, mw := range []echo.MiddlewareFunc{a.RateLimit, auth, a.Cache} {
		if mw != nil {
			m = append(m, mw)
		}
	}
	return m
}

// RegisterAPI registers the /api/v1 routes.  Every route needs an admin
// except the self-service customer update.
func RegisterAPI(e *echo.Echo, a API) {
	g := e.Group("/api/v1")
	admin := a.chain(true, a.Admin)

	s := a.Services
	g.POST("/services", s.Create, a.chain(false, a.Admin)...)
	g.GET("/services", s.List, admin...)
	g.GET("/services/history", s.Histories, admin...)
	g.GET("/services/:id", s.Get, admin...)
	g.PUT("/services/:id", s.Update, admin...)

	cl := a.Clients
	g.POST("/clients", cl.Create, a.chain(false, a.Admin)...)
	g.GET("/clients", cl.List, admin...)
	g.GET("/clients/history", cl.Histories, admin...)
	g.GET("/clients/:id", cl.Get, admin...)
	g.PUT("/clients/:id", cl.Update, admin...)

	cu := a.Customers
	g.GET("/customers", cu.List, admin...)
	g.GET("/customers/:id", cu.Get, admin...)
	g.PUT("/customers/:nellysCoinUserId", cu.Update, a.chain(true, a.User)...)

	ac := a.AlertConfigurations
	g.POST("/alert-configurations", ac.Create, admin...)
	g.GET("/alert-configurations", ac.List, admin...)
	g.GET("/alert-configurations/history", ac.Histories, admin...)
	g.PUT("/alert-configurations/:id", ac.Update, admin...)
}
