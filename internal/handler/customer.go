package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/manager"
    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/validation"
)

// CustomerHandler serves /customers.
type CustomerHandler struct {
    Customers *manager.CustomerManager
    Out       respond.Writer
}

// NewCustomerHandler panics if the manager is nil.
func NewCustomerHandler(customers *manager.CustomerManager, out respond.Writer) *CustomerHandler {
    if customers == nil {
        panic("nil manager passed to NewCustomerHandler")
    }
    return &CustomerHandler{Customers: customers, Out: out}
}

func (h *CustomerHandler) List(c echo.Context) error {
    p := validation.CustomerListParams{
        Username:         query(c, "username"),
        EmailAddress:     query(c, "emailAddress"),
        NellysCoinUserID: query(c, "nellysCoinUserId"),
        Paging:           paging(c),
    }
    return h.Out.Result(c, h.Customers.List(c.Request().Context(), p))
}

func (h *CustomerHandler) Get(c echo.Context) error {
    return h.Out.Result(c, h.Customers.Get(c.Request().Context(), c.Param("id")))
}

// Update handles PUT /customers/:nellysCoinUserId.  With ?by=id the path
// value is the customer's own id instead.
func (h *CustomerHandler) Update(c echo.Context) error {
    var in validation.UpdateCustomerInput
    if ok, err := bind(c, h.Out, &in); !ok {
        return err
    }
    target := validation.CustomerTarget{
        Raw:  c.Param("nellysCoinUserId"),
        ByID: query(c, "by") == "id",
    }
    r := h.Customers.Update(c.Request().Context(), target, &in, respond.Actor(c))
    return h.Out.Result(c, r)
}
