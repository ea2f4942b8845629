package validation

import (
	"context"
	"strings"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
)

// Alert configuration message keys.
const (
	KeyAlertConfigurationNotFound = "alert-configuration.alertConfigurationNotFound"
	KeyAlertConfigurationExists   = "alert-configuration.alertConfigurationAlreadyExists"
	KeyRecipientsMissing          = "alert-configuration.theListOfEmailAddressRecipientsIsRequired"
	KeyRecipientsEmpty            = "alert-configuration.theListOfEmailAddressRecipientsCanNotBeEmpty"
)

// AlertConfigurationStore is the read side of the alert configuration
// repository.
type AlertConfigurationStore interface {
	Find(ctx context.Context, f model.AlertConfigurationFilter) (*model.AlertConfiguration, error)
}

// CreateAlertConfigurationInput is the body of POST /alert-configurations.
// Without a serviceId the configuration is the default one.
type CreateAlertConfigurationInput struct {
	SendSlackAlert         *bool    `json:"sendSlackAlert" validate:"required"`
	SendEmail              bool     `json:"sendEmail"`
	ServiceID              *uint64  `json:"serviceId" validate:"omitempty,min=1"`
	EmailAddressRecipients []string `json:"emailAddressRecipients" validate:"omitempty,dive,email"`
}

// UpdateAlertConfigurationInput is the body of PUT
// /alert-configurations/:id.  An explicit null serviceId turns the row into
// the default configuration.
type UpdateAlertConfigurationInput struct {
	Reason                 string           `json:"reason" validate:"required"`
	SendSlackAlert         *bool            `json:"sendSlackAlert"`
	SendEmail              *bool            `json:"sendEmail"`
	ServiceID              Nullable[uint64] `json:"serviceId"`
	EmailAddressRecipients []string         `json:"emailAddressRecipients" validate:"omitempty,dive,email"`
}

// AlertConfigurationListParams are the query parameters of
// GET /alert-configurations.
type AlertConfigurationListParams struct {
	ServiceID      string `query:"serviceId" validate:"omitempty,number"`
	CreatedBy      string `query:"createdBy" validate:"omitempty,number"`
	SendSlackAlert string `query:"sendSlackAlert" validate:"omitempty,boolean"`
	SendEmail      string `query:"sendEmail" validate:"omitempty,boolean"`
	Paging
}

// AlertConfigurationHistoryParams are the query parameters of
// GET /alert-configurations/history.
type AlertConfigurationHistoryParams struct {
	AlertConfigurationID string `query:"alertConfigurationId" validate:"omitempty,number"`
	ServiceID            string `query:"serviceId" validate:"omitempty,number"`
	CreatedBy            string `query:"createdBy" validate:"omitempty,number"`
	Paging
}

// AlertConfigurationCreation carries what a validated create resolved.
// Service is nil for the default configuration.
type AlertConfigurationCreation struct {
	Service *model.Service
}

// AlertConfigurationUpdate is a validated update.
type AlertConfigurationUpdate struct {
	Current *model.AlertConfiguration
	Service *model.Service
	Patch   model.AlertConfigurationPatch
}

// AlertConfigurationValidator guards alert configuration operations.  The
// default configuration and the per-service ones are separate uniqueness
// domains: each holds at most one row per key.
type AlertConfigurationValidator struct {
	configs  AlertConfigurationStore
	services ServiceStore
	ceiling  int
}

// NewAlertConfigurationValidator wires the validator to its stores.
func NewAlertConfigurationValidator(configs AlertConfigurationStore, services ServiceStore, ceiling int) *AlertConfigurationValidator {
	if configs == nil || services == nil {
		panic("nil store passed to NewAlertConfigurationValidator")
	}
	return &AlertConfigurationValidator{configs: configs, services: services, ceiling: ceiling}
}

func (v *AlertConfigurationValidator) find(ctx context.Context, f model.AlertConfigurationFilter) (*model.AlertConfiguration, error) {
	a, err := v.configs.Find(ctx, f)
	if missing(err) {
		return nil, nil
	}
	return a, err
}

// holder returns the configuration currently covering serviceID, or the
// default one when serviceID is nil.
func (v *AlertConfigurationValidator) holder(ctx context.Context, serviceID *uint64) (*model.AlertConfiguration, error) {
	if serviceID == nil {
		return v.find(ctx, model.AlertConfigurationFilter{DefaultOnly: true})
	}
	return v.find(ctx, model.AlertConfigurationFilter{ServiceID: serviceID})
}

func (v *AlertConfigurationValidator) service(ctx context.Context, id uint64) (*model.Service, error) {
	s, err := v.services.Find(ctx, model.ServiceFilter{ID: &id})
	if missing(err) {
		return nil, result.NotFound(KeyServiceNotFound)
	}
	return s, err
}

func checkRecipients(sendEmail bool, recipients []string) error {
	if sendEmail && recipients == nil {
		return result.Invalid(KeyRecipientsMissing, nil)
	}
	if recipients != nil && len(recipients) == 0 {
		return result.Invalid(KeyRecipientsEmpty, nil)
	}
	return nil
}

// Create checks shape, the recipients rule, the referenced service and the
// uniqueness domain of the new row.
func (v *AlertConfigurationValidator) Create(ctx context.Context, in *CreateAlertConfigurationInput) (*AlertConfigurationCreation, error) {
	if err := Shape(in); err != nil {
		return nil, err
	}
	if err := checkRecipients(in.SendEmail, in.EmailAddressRecipients); err != nil {
		return nil, err
	}
	var out AlertConfigurationCreation
	if in.ServiceID != nil {
		svc, err := v.service(ctx, *in.ServiceID)
		if err != nil {
			return nil, err
		}
		out.Service = svc
	}
	existing, err := v.holder(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, result.Conflict(KeyAlertConfigurationExists)
	}
	return &out, nil
}

// Update merges the input over the stored configuration.  Moving it to
// another domain requires that domain to be free.
func (v *AlertConfigurationValidator) Update(ctx context.Context, rawID string, in *UpdateAlertConfigurationInput) (*AlertConfigurationUpdate, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := Shape(in); err != nil {
		return nil, err
	}
	if in.ServiceID.Set && !in.ServiceID.Null && in.ServiceID.Value == 0 {
		return nil, result.Invalid("validation.min", result.Args{"field": "serviceId", "param": "1"})
	}
	id, err := ID("alertConfigurationId", rawID)
	if err != nil {
		return nil, err
	}
	current, err := v.find(ctx, model.AlertConfigurationFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, result.NotFound(KeyAlertConfigurationNotFound)
	}

	patch := model.AlertConfigurationPatch{
		SendSlackAlert:         current.SendSlackAlert,
		SendEmail:              current.SendEmail,
		EmailAddressRecipients: current.EmailAddressRecipients,
		ServiceID:              in.ServiceID.Merge(current.ServiceID),
	}
	if in.SendSlackAlert != nil {
		patch.SendSlackAlert = *in.SendSlackAlert
	}
	if in.SendEmail != nil {
		patch.SendEmail = *in.SendEmail
	}
	if in.EmailAddressRecipients != nil {
		patch.EmailAddressRecipients = in.EmailAddressRecipients
	}
	if patch.SendEmail {
		if err := checkRecipients(true, patch.EmailAddressRecipients); err != nil {
			return nil, err
		}
	}

	out := &AlertConfigurationUpdate{Current: current, Patch: patch}
	if patch.ServiceID != nil {
		svc, err := v.service(ctx, *patch.ServiceID)
		if err != nil {
			return nil, err
		}
		out.Service = svc
	}
	holder, err := v.holder(ctx, patch.ServiceID)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.ID != current.ID {
		return nil, result.Conflict(KeyAlertConfigurationExists)
	}
	return out, nil
}

// List resolves the listing filter and window.
func (v *AlertConfigurationValidator) List(p AlertConfigurationListParams) (model.AlertConfigurationFilter, model.Window, error) {
	var f model.AlertConfigurationFilter
	if err := Shape(p); err != nil {
		return f, model.Window{}, err
	}
	serviceID, err := optionalID("serviceId", p.ServiceID)
	if err != nil {
		return f, model.Window{}, err
	}
	createdBy, err := optionalID("createdBy", p.CreatedBy)
	if err != nil {
		return f, model.Window{}, err
	}
	slack, err := optionalBool("sendSlackAlert", p.SendSlackAlert)
	if err != nil {
		return f, model.Window{}, err
	}
	email, err := optionalBool("sendEmail", p.SendEmail)
	if err != nil {
		return f, model.Window{}, err
	}
	f = model.AlertConfigurationFilter{ServiceID: serviceID, CreatedBy: createdBy, SendSlackAlert: slack, SendEmail: email}
	win, err := p.Window(v.ceiling)
	return f, win, err
}

// Histories resolves the history filter and window.
func (v *AlertConfigurationValidator) Histories(p AlertConfigurationHistoryParams) (model.HistoryFilter, model.Window, error) {
	var f model.HistoryFilter
	if err := Shape(p); err != nil {
		return f, model.Window{}, err
	}
	configID, err := optionalID("alertConfigurationId", p.AlertConfigurationID)
	if err != nil {
		return f, model.Window{}, err
	}
	serviceID, err := optionalID("serviceId", p.ServiceID)
	if err != nil {
		return f, model.Window{}, err
	}
	createdBy, err := optionalID("createdBy", p.CreatedBy)
	if err != nil {
		return f, model.Window{}, err
	}
	f = model.HistoryFilter{EntityID: configID, ServiceID: serviceID, CreatedBy: createdBy}
	win, err := p.Window(v.ceiling)
	return f, win, err
}

var _ AlertConfigurationStore = (*repository.AlertConfigurationRepo)(nil)
