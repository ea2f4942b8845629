package manager

import (
	"context"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
	"github.com/iliyamo/api-client-manager/internal/validation"
)

// Alert configuration success keys.
const (
	KeyAlertConfigurationCreated            = "alert-configuration.alertConfigurationCreatedSuccessfully"
	KeyAlertConfigurationsRetrieved         = "alert-configuration.alertConfigurationsRetrievedSuccessfully"
	KeyAlertConfigurationHistoriesRetrieved = "alert-configuration.alertConfigurationHistoriesRetrievedSuccessfully"
	KeyAlertConfigurationUpdated            = "alert-configuration.alertConfigurationUpdatedSuccessfully"
)

// AlertConfigurationStore is the persistence the alert configuration
// manager needs.
type AlertConfigurationStore interface {
	validation.AlertConfigurationStore
	List(ctx context.Context, f model.AlertConfigurationFilter, win model.Window) (model.Page[model.AlertConfiguration], error)
	CreateWithHistory(ctx context.Context, a *model.AlertConfiguration) (*model.AlertConfiguration, error)
	UpdateWithHistory(ctx context.Context, id uint64, p model.AlertConfigurationPatch, actorID uint64, reason string) (*model.AlertConfiguration, error)
	ListHistories(ctx context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error)
}

// AlertConfigurationManager coordinates alert configuration operations.
type AlertConfigurationManager struct {
	base
	store    AlertConfigurationStore
	validate *validation.AlertConfigurationValidator
}

// NewAlertConfigurationManager builds the manager and its validator.
func NewAlertConfigurationManager(store AlertConfigurationStore, services validation.ServiceStore, alerts Alerter, s Settings) *AlertConfigurationManager {
	return &AlertConfigurationManager{
		base: newBase("alert-configuration", alerts,
			known{repository.ErrDuplicate, result.Conflict(validation.KeyAlertConfigurationExists)},
			known{repository.ErrAlertConfigurationNotFound, result.NotFound(validation.KeyAlertConfigurationNotFound)},
		),
		store:    store,
		validate: validation.NewAlertConfigurationValidator(store, services, s.PageCeiling),
	}
}

// Create stores a new configuration, the default one when no service is
// given.
func (m *AlertConfigurationManager) Create(ctx context.Context, in *validation.CreateAlertConfigurationInput, actor *model.Customer) result.Result {
	creation, err := m.validate.Create(ctx, in)
	if err != nil {
		return m.fail("create", in, err)
	}
	a := &model.AlertConfiguration{
		SendSlackAlert:         *in.SendSlackAlert,
		SendEmail:              in.SendEmail,
		EmailAddressRecipients: in.EmailAddressRecipients,
		CreatedBy:              actorID(actor),
	}
	if creation.Service != nil {
		a.ServiceID = &creation.Service.ID
	}
	created, err := m.store.CreateWithHistory(ctx, a)
	if err != nil {
		return m.fail("create", in, err)
	}
	return m.ok("create", result.Created(KeyAlertConfigurationCreated, created))
}

// List returns one page of configurations.
func (m *AlertConfigurationManager) List(ctx context.Context, p validation.AlertConfigurationListParams) result.Result {
	f, win, err := m.validate.List(p)
	if err != nil {
		return m.fail("list", p, err)
	}
	page, err := m.store.List(ctx, f, win)
	if err != nil {
		return m.fail("list", p, err)
	}
	return m.ok("list", result.OK(KeyAlertConfigurationsRetrieved, page))
}

// Histories returns one page of configuration history rows.
func (m *AlertConfigurationManager) Histories(ctx context.Context, p validation.AlertConfigurationHistoryParams) result.Result {
	f, win, err := m.validate.Histories(p)
	if err != nil {
		return m.fail("histories", p, err)
	}
	page, err := m.store.ListHistories(ctx, f, win)
	if err != nil {
		return m.fail("histories", p, err)
	}
	return m.ok("histories", result.OK(KeyAlertConfigurationHistoriesRetrieved, page))
}

// Update merges in over the stored configuration and rolls its history
// forward.
func (m *AlertConfigurationManager) Update(ctx context.Context, rawID string, in *validation.UpdateAlertConfigurationInput, actor *model.Customer) result.Result {
	up, err := m.validate.Update(ctx, rawID, in)
	if err != nil {
		return m.fail("update", in, err)
	}
	updated, err := m.store.UpdateWithHistory(ctx, up.Current.ID, up.Patch, actorID(actor), in.Reason)
	if err != nil {
		return m.fail("update", in, err)
	}
	return m.ok("update", result.OK(KeyAlertConfigurationUpdated, updated))
}
