package validation

import (
	"context"
	"strings"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
)

// Customer message keys.
const (
	KeyCustomerNotFound      = "customer.customerNotFound"
	KeyCustomerUsernameTaken = "customer.customerWithUsernameAlreadyExists"
)

// CustomerStore is the read side of the customer repository.
type CustomerStore interface {
	Find(ctx context.Context, f model.CustomerFilter) (*model.Customer, error)
}

// UpdateCustomerInput is the body of PUT /customers/:nellysCoinUserId.
// OldUsername must name the customer being updated.
type UpdateCustomerInput struct {
	OldUsername  string  `json:"oldUsername" validate:"required"`
	NewUsername  string  `json:"newUsername" validate:"required"`
	EmailAddress *string `json:"emailAddress" validate:"omitempty,email"`
	Status       *string `json:"status" validate:"omitempty,min=1"`
	Type         *string `json:"type" validate:"omitempty,oneof=admin client"`
	Language     *string `json:"language" validate:"omitempty,oneof=en fr"`
}

// CustomerListParams are the query parameters of GET /customers.
type CustomerListParams struct {
	Username         string `query:"username"`
	EmailAddress     string `query:"emailAddress"`
	NellysCoinUserID string `query:"nellysCoinUserId" validate:"omitempty,number"`
	Paging
}

// CustomerTarget addresses the customer of an update.  By default Raw is
// the identity provider's user id; ByID switches to the surrogate id.
type CustomerTarget struct {
	Raw  string
	ByID bool
}

// CustomerUpdate is a validated update: the stored row and merged values.
type CustomerUpdate struct {
	Current *model.Customer
	Patch   model.CustomerPatch
}

// CustomerValidator guards customer reads and updates.
type CustomerValidator struct {
	customers CustomerStore
	ceiling   int
}

// NewCustomerValidator wires the validator to its store.
func NewCustomerValidator(customers CustomerStore, ceiling int) *CustomerValidator {
	if customers == nil {
		panic("nil customer store")
	}
	return &CustomerValidator{customers: customers, ceiling: ceiling}
}

func (v *CustomerValidator) find(ctx context.Context, f model.CustomerFilter) (*model.Customer, error) {
	c, err := v.customers.Find(ctx, f)
	if missing(err) {
		return nil, nil
	}
	return c, err
}

func (v *CustomerValidator) mustFind(ctx context.Context, f model.CustomerFilter) (*model.Customer, error) {
	c, err := v.find(ctx, f)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, result.NotFound(KeyCustomerNotFound)
	}
	return c, nil
}

// Get loads one customer by its raw id.
func (v *CustomerValidator) Get(ctx context.Context, rawID string) (*model.Customer, error) {
	id, err := ID("customerId", rawID)
	if err != nil {
		return nil, err
	}
	return v.mustFind(ctx, model.CustomerFilter{ID: &id})
}

// Update checks, in order: shape, target, oldUsername ownership, actor
// rights, then newUsername uniqueness.
func (v *CustomerValidator) Update(ctx context.Context, target CustomerTarget, in *UpdateCustomerInput, actor *model.Customer) (*CustomerUpdate, error) {
	in.OldUsername = strings.TrimSpace(in.OldUsername)
	in.NewUsername = strings.TrimSpace(in.NewUsername)
	trim(in.EmailAddress)
	trim(in.Status)
	if err := Shape(in); err != nil {
		return nil, err
	}
	if target.ByID && !actor.IsAdmin() {
		return nil, result.Unauthorized(result.KeyUnauthorizedAction)
	}

	field, f := "nellysCoinUserId", model.CustomerFilter{}
	if target.ByID {
		field = "customerId"
	}
	id, err := ID(field, target.Raw)
	if err != nil {
		return nil, err
	}
	if target.ByID {
		f.ID = &id
	} else {
		f.NellysCoinUserID = &id
	}
	current, err := v.mustFind(ctx, f)
	if err != nil {
		return nil, err
	}

	owner, err := v.mustFind(ctx, model.CustomerFilter{Username: &in.OldUsername})
	if err != nil {
		return nil, err
	}
	if owner.ID != current.ID {
		return nil, result.Unauthorized(result.KeyUnauthorizedAction)
	}
	if !actor.IsAdmin() && (actor == nil || actor.ID != current.ID || in.Type != nil) {
		return nil, result.Unauthorized(result.KeyUnauthorizedAction)
	}

	taken, err := v.find(ctx, model.CustomerFilter{Username: &in.NewUsername})
	if err != nil {
		return nil, err
	}
	if taken != nil && taken.ID != current.ID {
		return nil, result.Conflict(KeyCustomerUsernameTaken)
	}

	patch := model.CustomerPatch{
		Username:     in.NewUsername,
		EmailAddress: current.EmailAddress,
		Status:       current.Status,
		Type:         current.Type,
		Language:     current.Language,
	}
	if in.EmailAddress != nil {
		patch.EmailAddress = *in.EmailAddress
	}
	if in.Status != nil {
		patch.Status = *in.Status
	}
	if in.Type != nil {
		patch.Type = *in.Type
	}
	if in.Language != nil {
		patch.Language = *in.Language
	}
	return &CustomerUpdate{Current: current, Patch: patch}, nil
}

// List resolves the listing filter and window.
func (v *CustomerValidator) List(p CustomerListParams) (model.CustomerFilter, model.Window, error) {
	var f model.CustomerFilter
	if err := Shape(p); err != nil {
		return f, model.Window{}, err
	}
	ncID, err := optionalID("nellysCoinUserId", p.NellysCoinUserID)
	if err != nil {
		return f, model.Window{}, err
	}
	f = model.CustomerFilter{Username: optionalString(p.Username), EmailAddress: optionalString(p.EmailAddress), NellysCoinUserID: ncID}
	win, err := p.Window(v.ceiling)
	return f, win, err
}

var _ CustomerStore = (*repository.CustomerRepo)(nil)
