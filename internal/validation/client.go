package validation

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
)

// Client message keys.
const (
	KeyClientNotFound         = "client.clientNotFound"
	KeyClientNameTaken        = "client.clientWithFriendlyNameAlreadyExists"
	KeyClientInvalidScope     = "client.invalidClientScope"
	KeyClientInvalidStatus    = "client.invalidClientStatus"
	KeyClientWhitelistMissing = "client.theIpWhitelistIsRequired"
	KeyClientWhitelistEmpty   = "client.theIPWhiteListCanNotBeEmpty"
	KeyClientExpiryMissing    = "client.theExpiringDateIsRequired"
)

// ClientStore is the read side of the client repository.
type ClientStore interface {
	Find(ctx context.Context, f model.ClientFilter) (*model.Client, error)
	CountByService(ctx context.Context, serviceID uint64) (int, error)
}

// CreateClientInput is the body of POST /clients.
type CreateClientInput struct {
	Scope              string     `json:"scope" validate:"required"`
	FriendlyName       string     `json:"friendlyName" validate:"required"`
	ServiceID          uint64     `json:"serviceId" validate:"required"`
	ShouldExpire       bool       `json:"shouldExpire"`
	ExpiresAt          *time.Time `json:"expiresAt"`
	ShouldApplyIPCheck bool       `json:"shouldApplyIPCheck"`
	IPWhitelist        []string   `json:"ipWhitelist" validate:"omitempty,dive,ip"`
}

// UpdateClientInput is the body of PUT /clients/:id.  An explicit null
// expiresAt clears the expiry date.
type UpdateClientInput struct {
	Reason             string              `json:"reason" validate:"required"`
	FriendlyName       *string             `json:"friendlyName" validate:"omitempty,min=1"`
	Scope              *string             `json:"scope"`
	ServiceID          *uint64             `json:"serviceId" validate:"omitempty,min=1"`
	Status             *string             `json:"status"`
	ShouldExpire       *bool               `json:"shouldExpire"`
	ExpiresAt          Nullable[time.Time] `json:"expiresAt"`
	ShouldApplyIPCheck *bool               `json:"shouldApplyIPCheck"`
	IPWhitelist        []string            `json:"ipWhitelist" validate:"omitempty,dive,ip"`
}

// ClientListParams are the query parameters of GET /clients.
type ClientListParams struct {
	Scope        string `query:"scope"`
	FriendlyName string `query:"friendlyName"`
	PublicID     string `query:"publicId"`
	ServiceID    string `query:"serviceId" validate:"omitempty,number"`
	Paging
}

// ClientHistoryParams are the query parameters of GET /clients/history.
type ClientHistoryParams struct {
	ClientID  string `query:"clientId" validate:"omitempty,number"`
	ServiceID string `query:"serviceId" validate:"omitempty,number"`
	CreatedBy string `query:"createdBy" validate:"omitempty,number"`
	Paging
}

// ClientCreation carries what a validated create resolved.
type ClientCreation struct {
	Service *model.Service
	Scope   model.ClientScope
}

// ClientUpdate is a validated update: the stored row and the merged values.
type ClientUpdate struct {
	Current *model.Client
	Patch   model.ClientPatch
}

// ClientValidator guards every client operation.
type ClientValidator struct {
	clients  ClientStore
	services ServiceStore
	ceiling  int
}

// NewClientValidator wires the validator to its stores.
func NewClientValidator(clients ClientStore, services ServiceStore, ceiling int) *ClientValidator {
	if clients == nil || services == nil {
		panic("nil store passed to NewClientValidator")
	}
	return &ClientValidator{clients: clients, services: services, ceiling: ceiling}
}

func (v *ClientValidator) find(ctx context.Context, f model.ClientFilter) (*model.Client, error) {
	c, err := v.clients.Find(ctx, f)
	if missing(err) {
		return nil, nil
	}
	return c, err
}

func (v *ClientValidator) service(ctx context.Context, id uint64) (*model.Service, error) {
	s, err := v.services.Find(ctx, model.ServiceFilter{ID: &id})
	if missing(err) {
		return nil, result.NotFound(KeyServiceNotFound)
	}
	return s, err
}

// hasRoom applies the inclusive quota: a capped service accepts clients
// while it owns fewer than its cap.
func (v *ClientValidator) hasRoom(ctx context.Context, s *model.Service) error {
	if s.MaxClientCount == nil {
		return nil
	}
	n, err := v.clients.CountByService(ctx, s.ID)
	if err != nil {
		return err
	}
	if n >= *s.MaxClientCount {
		return result.Conflict(KeyServiceMaxClientsReached)
	}
	return nil
}

func checkIPRule(apply bool, whitelist []string) error {
	if !apply {
		return nil
	}
	if whitelist == nil {
		return result.Invalid(KeyClientWhitelistMissing, nil)
	}
	if len(whitelist) == 0 {
		return result.Invalid(KeyClientWhitelistEmpty, nil)
	}
	return nil
}

func checkExpiryRule(shouldExpire bool, expiresAt *time.Time) error {
	if shouldExpire && expiresAt == nil {
		return result.Invalid(KeyClientExpiryMissing, nil)
	}
	return nil
}

// Create checks, in order: shape, owning service, friendly name, scope,
// IP and expiry rules, then the service quota.
func (v *ClientValidator) Create(ctx context.Context, in *CreateClientInput) (*ClientCreation, error) {
	in.FriendlyName = strings.TrimSpace(in.FriendlyName)
	in.Scope = strings.TrimSpace(in.Scope)
	if err := Shape(in); err != nil {
		return nil, err
	}
	svc, err := v.service(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	existing, err := v.find(ctx, model.ClientFilter{FriendlyName: &in.FriendlyName})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, result.Conflict(KeyClientNameTaken)
	}
	scope, ok := model.ParseClientScope(in.Scope)
	if !ok {
		return nil, result.Invalid(KeyClientInvalidScope, nil)
	}
	if err := checkIPRule(in.ShouldApplyIPCheck, in.IPWhitelist); err != nil {
		return nil, err
	}
	if err := checkExpiryRule(in.ShouldExpire, in.ExpiresAt); err != nil {
		return nil, err
	}
	if err := v.hasRoom(ctx, svc); err != nil {
		return nil, err
	}
	return &ClientCreation{Service: svc, Scope: scope}, nil
}

// Get loads one client by its raw id.
func (v *ClientValidator) Get(ctx context.Context, rawID string) (*model.Client, error) {
	id, err := ID("clientId", rawID)
	if err != nil {
		return nil, err
	}
	c, err := v.find(ctx, model.ClientFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, result.NotFound(KeyClientNotFound)
	}
	return c, nil
}

// Update merges the input over the stored client and checks the merged
// view.  A client may keep its own friendly name; moving it to another
// service requires that service to exist and have room.
func (v *ClientValidator) Update(ctx context.Context, rawID string, in *UpdateClientInput) (*ClientUpdate, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	trim(in.FriendlyName)
	if err := Shape(in); err != nil {
		return nil, err
	}
	current, err := v.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	patch := model.ClientPatch{
		FriendlyName:       current.FriendlyName,
		Scope:              current.Scope,
		ServiceID:          current.ServiceID,
		Status:             current.Status,
		ShouldExpire:       current.ShouldExpire,
		ExpiresAt:          in.ExpiresAt.Merge(current.ExpiresAt),
		ShouldApplyIPCheck: current.ShouldApplyIPCheck,
		IPWhitelist:        current.IPWhitelist,
	}
	if in.FriendlyName != nil {
		existing, err := v.find(ctx, model.ClientFilter{FriendlyName: in.FriendlyName})
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != current.ID {
			return nil, result.Conflict(KeyClientNameTaken)
		}
		patch.FriendlyName = *in.FriendlyName
	}
	if in.Scope != nil {
		scope, ok := model.ParseClientScope(*in.Scope)
		if !ok {
			return nil, result.Invalid(KeyClientInvalidScope, nil)
		}
		patch.Scope = scope
	}
	if in.Status != nil {
		status, ok := model.ParseClientStatus(*in.Status)
		if !ok {
			return nil, result.Invalid(KeyClientInvalidStatus, nil)
		}
		patch.Status = status
	}
	if in.ShouldExpire != nil {
		patch.ShouldExpire = *in.ShouldExpire
	}
	if in.ShouldApplyIPCheck != nil {
		patch.ShouldApplyIPCheck = *in.ShouldApplyIPCheck
	}
	if in.IPWhitelist != nil {
		patch.IPWhitelist = in.IPWhitelist
	}
	if err := checkIPRule(patch.ShouldApplyIPCheck, patch.IPWhitelist); err != nil {
		return nil, err
	}
	if err := checkExpiryRule(patch.ShouldExpire, patch.ExpiresAt); err != nil {
		return nil, err
	}
	if in.ServiceID != nil && *in.ServiceID != current.ServiceID {
		svc, err := v.service(ctx, *in.ServiceID)
		if err != nil {
			return nil, err
		}
		if err := v.hasRoom(ctx, svc); err != nil {
			return nil, err
		}
		patch.ServiceID = svc.ID
	}
	return &ClientUpdate{Current: current, Patch: patch}, nil
}

// List resolves the listing filter and window.
func (v *ClientValidator) List(p ClientListParams) (model.ClientFilter, model.Window, error) {
	var f model.ClientFilter
	if err := Shape(p); err != nil {
		return f, model.Window{}, err
	}
	serviceID, err := optionalID("serviceId", p.ServiceID)
	if err != nil {
		return f, model.Window{}, err
	}
	f = model.ClientFilter{PublicID: optionalString(p.PublicID), FriendlyName: optionalString(p.FriendlyName), ServiceID: serviceID}
	if s := optionalString(p.Scope); s != nil {
		scope, ok := model.ParseClientScope(*s)
		if !ok {
			return f, model.Window{}, result.Invalid(KeyClientInvalidScope, nil)
		}
		f.Scope = &scope
	}
	win, err := p.Window(v.ceiling)
	return f, win, err
}

// Histories resolves the history filter and window.
func (v *ClientValidator) Histories(p ClientHistoryParams) (model.HistoryFilter, model.Window, error) {
	var f model.HistoryFilter
	if err := Shape(p); err != nil {
		return f, model.Window{}, err
	}
	clientID, err := optionalID("clientId", p.ClientID)
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
	f = model.HistoryFilter{EntityID: clientID, ServiceID: serviceID, CreatedBy: createdBy}
	win, err := p.Window(v.ceiling)
	return f, win, err
}

var _ ClientStore = (*repository.ClientRepo)(nil)
