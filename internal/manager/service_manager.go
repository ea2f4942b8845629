package manager

import (
	"context"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
	"github.com/iliyamo/api-client-manager/internal/utils"
	"github.com/iliyamo/api-client-manager/internal/validation"
)

// Service success keys.
const (
	KeyServiceCreated            = "service.serviceCreatedSuccessfully"
	KeyServicesRetrieved         = "service.servicesRetrievedSuccessfully"
	KeyServiceHistoriesRetrieved = "service.serviceHistoriesRetrievedSuccessfully"
	KeyServiceRetrieved          = "service.serviceRetrievedSuccessfully"
	KeyServiceUpdated            = "service.serviceUpdatedSuccessfully"
)

// ServiceStore is the persistence the service manager needs.
type ServiceStore interface {
	validation.ServiceStore
	List(ctx context.Context, f model.ServiceFilter, win model.Window) (model.Page[model.Service], error)
	CreateWithHistory(ctx context.Context, s *model.Service) (*model.Service, error)
	UpdateWithHistory(ctx context.Context, id uint64, p model.ServicePatch, actorID uint64, reason string) (*model.Service, error)
	ListHistories(ctx context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error)
}

// ServiceManager coordinates service operations.
type ServiceManager struct {
	base
	store    ServiceStore
	validate *validation.ServiceValidator
	now      func() time.Time
}

// NewServiceManager builds the manager and its validator over store.
func NewServiceManager(store ServiceStore, alerts Alerter, s Settings) *ServiceManager {
	return &ServiceManager{
		base: newBase("service", alerts,
			known{repository.ErrDuplicate, result.Conflict(validation.KeyServiceNameTaken)},
			known{repository.ErrServiceNotFound, result.NotFound(validation.KeyServiceNotFound)},
		),
		store:    store,
		validate: validation.NewServiceValidator(store, s.PageCeiling),
		now:      time.Now,
	}
}

// Create validates in and stores a new service with a generated code.
func (m *ServiceManager) Create(ctx context.Context, in *validation.CreateServiceInput, actor *model.Customer) result.Result {
	if err := m.validate.Create(ctx, in); err != nil {
		return m.fail("create", in, err)
	}
	code, err := utils.ServiceCode(m.now())
	if err != nil {
		return m.fail("create", in, err)
	}
	created, err := m.store.CreateWithHistory(ctx, &model.Service{
		Code:           code,
		FriendlyName:   in.FriendlyName,
		Description:    in.Description,
		MaxClientCount: in.MaxClientCount,
		CreatedBy:      actorID(actor),
	})
	if err != nil {
		return m.fail("create", in, err)
	}
	return m.ok("create", result.Created(KeyServiceCreated, created))
}

// List returns one page of services.
func (m *ServiceManager) List(ctx context.Context, p validation.ServiceListParams) result.Result {
	f, win, err := m.validate.List(p)
	if err != nil {
		return m.fail("list", p, err)
	}
	page, err := m.store.List(ctx, f, win)
	if err != nil {
		return m.fail("list", p, err)
	}
	return m.ok("list", result.OK(KeyServicesRetrieved, page))
}

// Histories returns one page of service history rows, newest first.
func (m *ServiceManager) Histories(ctx context.Context, p validation.ServiceHistoryParams) result.Result {
	f, win, err := m.validate.Histories(p)
	if err != nil {
		return m.fail("histories", p, err)
	}
	page, err := m.store.ListHistories(ctx, f, win)
	if err != nil {
		return m.fail("histories", p, err)
	}
	return m.ok("histories", result.OK(KeyServiceHistoriesRetrieved, page))
}

// Get returns one service.
func (m *ServiceManager) Get(ctx context.Context, rawID string) result.Result {
	s, err := m.validate.Get(ctx, rawID)
	if err != nil {
		return m.fail("get", rawID, err)
	}
	return m.ok("get", result.OK(KeyServiceRetrieved, s))
}

// Update merges in over the stored service and rolls its history forward.
func (m *ServiceManager) Update(ctx context.Context, rawID string, in *validation.UpdateServiceInput, actor *model.Customer) result.Result {
	up, err := m.validate.Update(ctx, rawID, in)
	if err != nil {
		return m.fail("update", in, err)
	}
	updated, err := m.store.UpdateWithHistory(ctx, up.Current.ID, up.Patch, actorID(actor), in.Reason)
	if err != nil {
		return m.fail("update", in, err)
	}
	return m.ok("update", result.OK(KeyServiceUpdated, updated))
}
