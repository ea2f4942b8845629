package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/manager"
    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/validation"
)

// ServiceHandler serves /services.
type ServiceHandler struct {
    Services *manager.ServiceManager
    Out      respond.Writer
}

// NewServiceHandler panics if the manager is nil.
func NewServiceHandler(services *manager.ServiceManager, out respond.Writer) *ServiceHandler {
    if services == nil {
        panic("nil manager passed to NewServiceHandler")
    }
    return &ServiceHandler{Services: services, Out: out}
}

// Create handles POST /services.
func (h *ServiceHandler) Create(c echo.Context) error {
    var in validation.CreateServiceInput
    if ok, err := bind(c, h.Out, &in); !ok {
        return err
    }
    r := h.Services.Create(c.Request().Context(), &in, respond.Actor(c))
    return h.Out.Result(c, r)
}

// List handles GET /services.
func (h *ServiceHandler) List(c echo.Context) error {
    p := validation.ServiceListParams{
        Code:         query(c, "code"),
        FriendlyName: query(c, "friendlyName"),
        CreatedBy:    query(c, "createdBy"),
        Paging:       paging(c),
    }
    return h.Out.Result(c, h.Services.List(c.Request().Context(), p))
}

// Histories handles GET /services/history.
func (h *ServiceHandler) Histories(c echo.Context) error {
    p := validation.ServiceHistoryParams{
        ServiceID: query(c, "serviceId"),
        CreatedBy: query(c, "createdBy"),
        Paging:    paging(c),
    }
    return h.Out.Result(c, h.Services.Histories(c.Request().Context(), p))
}

// Get handles GET /services/:id.
func (h *ServiceHandler) Get(c echo.Context) error {
    return h.Out.Result(c, h.Services.Get(c.Request().Context(), c.Param("id")))
}

// Update handles PUT /services/:id.
func (h *ServiceHandler) Update(c echo.Context) error {
    var in validation.UpdateServiceInput
    if ok, err := bind(c, h.Out, &in); !ok {
        return err
    }
    r := h.Services.Update(c.Request().Context(), c.Param("id"), &in, respond.Actor(c))
    return h.Out.Result(c, r)
}
