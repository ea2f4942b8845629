package validation

import (
	"context"
	"strings"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
)

// Service message keys.
const (
	KeyServiceNotFound          = "service.serviceNotFound"
	KeyServiceNameTaken         = "service.serviceWithFriendlyNameAlreadyExists"
	KeyServiceMaxClientsReached = "service.serviceReachedItsMaximumNumberOfClients"
)

// ServiceStore is the read side of the service repository.
type ServiceStore interface {
	Find(ctx context.Context, f model.ServiceFilter) (*model.Service, error)
}

// CreateServiceInput is the body of POST /services.
type CreateServiceInput struct {
	FriendlyName   string `json:"friendlyName" validate:"required"`
	Description    string `json:"description" validate:"required"`
	MaxClientCount *int   `json:"maxClientCount" validate:"omitempty,gt=0"`
}

// UpdateServiceInput is the body of PUT /services/:id.  An explicit null
// maxClientCount removes the cap.
type UpdateServiceInput struct {
	Reason         string        `json:"reason" validate:"required"`
	FriendlyName   *string       `json:"friendlyName" validate:"omitempty,min=1"`
	Description    *string       `json:"description"`
	MaxClientCount Nullable[int] `json:"maxClientCount"`
}

// ServiceListParams are the query parameters of GET /services.
type ServiceListParams struct {
	Code         string `query:"code"`
	FriendlyName string `query:"friendlyName"`
	CreatedBy    string `query:"createdBy" validate:"omitempty,number"`
	Paging
}

// ServiceHistoryParams are the query parameters of GET /services/history.
type ServiceHistoryParams struct {
	ServiceID string `query:"serviceId" validate:"omitempty,number"`
	CreatedBy string `query:"createdBy" validate:"omitempty,number"`
	Paging
}

// ServiceUpdate is a validated update: the stored row and the merged
// values to write.
type ServiceUpdate struct {
	Current *model.Service
	Patch   model.ServicePatch
}

// ServiceValidator guards every service operation.
type ServiceValidator struct {
	services ServiceStore
	ceiling  int
}

// NewServiceValidator wires the validator to its store.
func NewServiceValidator(services ServiceStore, ceiling int) *ServiceValidator {
	if services == nil {
		panic("nil service store")
	}
	return &ServiceValidator{services: services, ceiling: ceiling}
}

func (v *ServiceValidator) find(ctx context.Context, f model.ServiceFilter) (*model.Service, error) {
	s, err := v.services.Find(ctx, f)
	if missing(err) {
		return nil, nil
	}
	return s, err
}

// Create checks shape and friendly name uniqueness.
func (v *ServiceValidator) Create(ctx context.Context, in *CreateServiceInput) error {
	in.FriendlyName = strings.TrimSpace(in.FriendlyName)
	if err := Shape(in); err != nil {
		return err
	}
	existing, err := v.find(ctx, model.ServiceFilter{FriendlyName: &in.FriendlyName})
	if err != nil {
		return err
	}
	if existing != nil {
		return result.Conflict(KeyServiceNameTaken)
	}
	return nil
}

// Get loads one service by its raw id.
func (v *ServiceValidator) Get(ctx context.Context, rawID string) (*model.Service, error) {
	id, err := ID("serviceId", rawID)
	if err != nil {
		return nil, err
	}
	s, err := v.find(ctx, model.ServiceFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, result.NotFound(KeyServiceNotFound)
	}
	return s, nil
}

// Update loads the target, checks that a new friendly name belongs to no
// other service, and merges absent fields from the stored row.
func (v *ServiceValidator) Update(ctx context.Context, rawID string, in *UpdateServiceInput) (*ServiceUpdate, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	trim(in.FriendlyName)
	if err := Shape(in); err != nil {
		return nil, err
	}
	if in.MaxClientCount.Set && !in.MaxClientCount.Null && in.MaxClientCount.Value <= 0 {
		return nil, result.Invalid("validation.gt", result.Args{"field": "maxClientCount", "param": "0"})
	}
	current, err := v.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	patch := model.ServicePatch{
		FriendlyName:   current.FriendlyName,
		Description:    current.Description,
		MaxClientCount: in.MaxClientCount.Merge(current.MaxClientCount),
	}
	if in.FriendlyName != nil {
		existing, err := v.find(ctx, model.ServiceFilter{FriendlyName: in.FriendlyName})
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != current.ID {
			return nil, result.Conflict(KeyServiceNameTaken)
		}
		patch.FriendlyName = *in.FriendlyName
	}
	if in.Description != nil {
		patch.Description = *in.Description
	}
	return &ServiceUpdate{Current: current, Patch: patch}, nil
}

// List resolves the listing filter and window.
func (v *ServiceValidator) List(p ServiceListParams) (model.ServiceFilter, model.Window, error) {
	var f model.ServiceFilter
	if err := Shape(p); err != nil {
		return f, model.Window{}, err
	}
	createdBy, err := optionalID("createdBy", p.CreatedBy)
	if err != nil {
		return f, model.Window{}, err
	}
	f = model.ServiceFilter{Code: optionalString(p.Code), FriendlyName: optionalString(p.FriendlyName), CreatedBy: createdBy}
	win, err := p.Window(v.ceiling)
	return f, win, err
}

// Histories resolves the history filter and window.
func (v *ServiceValidator) Histories(p ServiceHistoryParams) (model.HistoryFilter, model.Window, error) {
	var f model.HistoryFilter
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
	f = model.HistoryFilter{EntityID: serviceID, CreatedBy: createdBy}
	win, err := p.Window(v.ceiling)
	return f, win, err
}

var _ ServiceStore = (*repository.ServiceRepo)(nil)
