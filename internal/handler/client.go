package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/manager"
    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/validation"
)

// ClientHandler serves /clients.
type ClientHandler struct {
    Clients *manager.ClientManager
    Out     respond.Writer
}

// NewClientHandler panics if the manager is nil.
func NewClientHandler(clients *manager.ClientManager, out respond.Writer) *ClientHandler {
    if clients == nil {
        panic("nil manager passed to NewClientHandler")
    }
    return &ClientHandler{Clients: clients, Out: out}
}

// Create handles POST /clients.  The response is the only place the
// plaintext secret is ever returned.
func (h *ClientHandler) Create(c echo.Context) error {
    var in validation.CreateClientInput
    if ok, err := bind(c, h.Out, &in); !ok {
        return err
    }
    r := h.Clients.Create(c.Request().Context(), &in, respond.Actor(c))
    return h.Out.Result(c, r)
}

// List handles GET /clients.
func (h *ClientHandler) List(c echo.Context) error {
    p := validation.ClientListParams{
        Scope:        query(c, "scope"),
        FriendlyName: query(c, "friendlyName"),
        PublicID:     query(c, "publicId"),
        ServiceID:    query(c, "serviceId"),
        Paging:       paging(c),
    }
    return h.Out.Result(c, h.Clients.List(c.Request().Context(), p))
}

// Histories handles GET /clients/history.
func (h *ClientHandler) Histories(c echo.Context) error {
    p := validation.ClientHistoryParams{
        ClientID:  query(c, "clientId"),
        ServiceID: query(c, "serviceId"),
        CreatedBy: query(c, "createdBy"),
        Paging:    paging(c),
    }
    return h.Out.Result(c, h.Clients.Histories(c.Request().Context(), p))
}

// Get handles GET /clients/:id.
func (h *ClientHandler) Get(c echo.Context) error {
    return h.Out.Result(c, h.Clients.Get(c.Request().Context(), c.Param("id")))
}

// Update handles PUT /clients/:id.
func (h *ClientHandler) Update(c echo.Context) error {
    var in validation.UpdateClientInput
    if ok, err := bind(c, h.Out, &in); !ok {
        return err
    }
    r := h.Clients.Update(c.Request().Context(), c.Param("id"), &in, respond.Actor(c))
    return h.Out.Result(c, r)
}
