package manager

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
	"github.com/iliyamo/api-client-manager/internal/validation"
)

// Customer success keys.
const (
	KeyCustomersRetrieved = "customer.customersRetrievedSuccessfully"
	KeyCustomerRetrieved  = "customer.customerRetrievedSuccessfully"
	KeyCustomerUpdated    = "customer.customerUpdatedSuccessfully"
)

// CustomerStore is the persistence the customer manager needs.
type CustomerStore interface {
	validation.CustomerStore
	List(ctx context.Context, f model.CustomerFilter, win model.Window) (model.Page[model.Customer], error)
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	Update(ctx context.Context, id uint64, p model.CustomerPatch) (*model.Customer, error)
}

// CustomerManager coordinates customer reads, updates and the refresh of
// customers from identity assertions.
type CustomerManager struct {
	base
	store    CustomerStore
	validate *validation.CustomerValidator
}

// NewCustomerManager builds the manager and its validator.
func NewCustomerManager(store CustomerStore, alerts Alerter, s Settings) *CustomerManager {
	return &CustomerManager{
		base: newBase("customer", alerts,
			known{repository.ErrDuplicate, result.Conflict(validation.KeyCustomerUsernameTaken)},
			known{repository.ErrCustomerNotFound, result.NotFound(validation.KeyCustomerNotFound)},
		),
		store:    store,
		validate: validation.NewCustomerValidator(store, s.PageCeiling),
	}
}

// List returns one page of customers.
func (m *CustomerManager) List(ctx context.Context, p validation.CustomerListParams) result.Result {
	f, win, err := m.validate.List(p)
	if err != nil {
		return m.fail("list", p, err)
	}
	page, err := m.store.List(ctx, f, win)
	if err != nil {
		return m.fail("list", p, err)
	}
	return m.ok("list", result.OK(KeyCustomersRetrieved, page))
}

// Get returns one customer.
func (m *CustomerManager) Get(ctx context.Context, rawID string) result.Result {
	c, err := m.validate.Get(ctx, rawID)
	if err != nil {
		return m.fail("get", rawID, err)
	}
	return m.ok("get", result.OK(KeyCustomerRetrieved, c))
}

// Update applies in to the customer addressed by target on behalf of actor.
func (m *CustomerManager) Update(ctx context.Context, target validation.CustomerTarget, in *validation.UpdateCustomerInput, actor *model.Customer) result.Result {
	up, err := m.validate.Update(ctx, target, in, actor)
	if err != nil {
		return m.fail("update", in, err)
	}
	updated, err := m.store.Update(ctx, up.Current.ID, up.Patch)
	if err != nil {
		return m.fail("update", in, err)
	}
	return m.ok("update", result.OK(KeyCustomerUpdated, updated))
}

// Sync upserts the customer an identity assertion describes and returns
// the stored row.  The row is matched by username, then by provider id,
// then by email address.
func (m *CustomerManager) Sync(ctx context.Context, a model.IdentityAssertion) (*model.Customer, error) {
	current, err := m.match(ctx, a)
	if err != nil {
		return nil, err
	}
	typ := model.CustomerClient
	if a.IsAdmin() {
		typ = model.CustomerAdmin
	}
	lang := strings.ToLower(strings.TrimSpace(a.PreferredLanguage))
	if lang == "" {
		lang = "en"
	}
	if current == nil {
		return m.store.Create(ctx, &model.Customer{
			Username:         a.Username,
			EmailAddress:     a.EmailAddress,
			NellysCoinUserID: a.CustomerID,
			Status:           a.AccountStatus,
			Type:             typ,
			Language:         lang,
		})
	}
	if current.Username == a.Username && current.EmailAddress == a.EmailAddress &&
		current.Status == a.AccountStatus && current.Type == typ && current.Language == lang {
		return current, nil
	}
	return m.store.Update(ctx, current.ID, model.CustomerPatch{
		Username:     a.Username,
		EmailAddress: a.EmailAddress,
		Status:       a.AccountStatus,
		Type:         typ,
		Language:     lang,
	})
}

func (m *CustomerManager) match(ctx context.Context, a model.IdentityAssertion) (*model.Customer, error) {
	var filters []model.CustomerFilter
	if a.Username != "" {
		filters = append(filters, model.CustomerFilter{Username: &a.Username})
	}
	if a.CustomerID != 0 {
		filters = append(filters, model.CustomerFilter{NellysCoinUserID: &a.CustomerID})
	}
	if a.EmailAddress != "" {
		filters = append(filters, model.CustomerFilter{EmailAddress: &a.EmailAddress})
	}
	for _, f := range filters {
		c, err := m.store.Find(ctx, f)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
