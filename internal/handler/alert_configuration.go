package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/manager"
    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/validation"
)

// AlertConfigurationHandler serves /alert-configurations.
type AlertConfigurationHandler struct {
    Configs *manager.AlertConfigurationManager
    Out     respond.Writer
}

// NewAlertConfigurationHandler panics if the manager is nil.
func NewAlertConfigurationHandler(configs *manager.AlertConfigurationManager, out respond.Writer) *AlertConfigurationHandler {
    if configs == nil {
        panic("nil manager passed to NewAlertConfigurationHandler")
    }
    return &AlertConfigurationHandler{Configs: configs, Out: out}
}

func (h *AlertConfigurationHandler) Create(c echo.Context) error {
    var in validation.CreateAlertConfigurationInput
    if ok, err := bind(c, h.Out, &in); !ok {
        return err
    }
    r := h.Configs.Create(c.Request().Context(), &in, respond.Actor(c))
    return h.Out.Result(c, r)
}

func (h *AlertConfigurationHandler) List(c echo.Context) error {
    p := validation.AlertConfigurationListParams{
        ServiceID:      query(c, "serviceId"),
        CreatedBy:      query(c, "createdBy"),
        SendSlackAlert: query(c, "sendSlackAlert"),
        SendEmail:      query(c, "sendEmail"),
        Paging:         paging(c),
    }
    return h.Out.Result(c, h.Configs.List(c.Request().Context(), p))
}

func (h *AlertConfigurationHandler) Histories(c echo.Context) error {
    p := validation.AlertConfigurationHistoryParams{
        AlertConfigurationID: query(c, "alertConfigurationId"),
        ServiceID:            query(c, "serviceId"),
        CreatedBy:            query(c, "createdBy"),
        Paging:               paging(c),
    }
    return h.Out.Result(c, h.Configs.Histories(c.Request().Context(), p))
}

func (h *AlertConfigurationHandler) Update(c echo.Context) error {
    var in validation.UpdateAlertConfigurationInput
    if ok, err := bind(c, h.Out, &in); !ok {
        return err
    }
    r := h.Configs.Update(c.Request().Context(), c.Param("id"), &in, respond.Actor(c))
    return h.Out.Result(c, r)
}
