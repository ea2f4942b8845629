package manager

import (
	"context"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
	"github.com/iliyamo/api-client-manager/internal/utils"
	"github.com/iliyamo/api-client-manager/internal/validation"
)

// Client success keys.
const (
	KeyClientCreated            = "client.clientCreatedSuccessfully"
	KeyClientsRetrieved         = "client.clientsRetrievedSuccessfully"
	KeyClientHistoriesRetrieved = "client.clientHistoriesRetrievedSuccessfully"
	KeyClientRetrieved          = "client.clientRetrievedSuccessfully"
	KeyClientUpdated            = "client.clientUpdatedSuccessfully"
)

// ClientStore is the persistence the client manager needs.
type ClientStore interface {
	validation.ClientStore
	List(ctx context.Context, f model.ClientFilter, win model.Window) (model.Page[model.Client], error)
	CreateWithHistory(ctx context.Context, c *model.Client) (*model.Client, error)
	UpdateWithHistory(ctx context.Context, id uint64, p model.ClientPatch, actorID uint64, reason string) (*model.Client, error)
	ListHistories(ctx context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error)
}

// ClientManager coordinates client operations.
type ClientManager struct {
	base
	store    ClientStore
	validate *validation.ClientValidator
	settings Settings
}

// NewClientManager builds the manager and its validator.
func NewClientManager(store ClientStore, services validation.ServiceStore, alerts Alerter, s Settings) *ClientManager {
	return &ClientManager{
		base: newBase("client", alerts,
			known{repository.ErrDuplicate, result.Conflict(validation.KeyClientNameTaken)},
			known{repository.ErrQuotaExceeded, result.Conflict(validation.KeyServiceMaxClientsReached)},
			known{repository.ErrServiceNotFound, result.NotFound(validation.KeyServiceNotFound)},
			known{repository.ErrClientNotFound, result.NotFound(validation.KeyClientNotFound)},
		),
		store:    store,
		validate: validation.NewClientValidator(store, services, s.PageCeiling),
		settings: s,
	}
}

// Create issues a new credential.  The plaintext secret appears only in
// this response; the store keeps its bcrypt hash.
func (m *ClientManager) Create(ctx context.Context, in *validation.CreateClientInput, actor *model.Customer) result.Result {
	creation, err := m.validate.Create(ctx, in)
	if err != nil {
		return m.fail("create", in, err)
	}
	creds, err := utils.NewClientCredentials(m.settings.PublicIDLength, m.settings.SecretLength)
	if err != nil {
		return m.fail("create", in, err)
	}
	hash, err := utils.HashSecret(creds.Secret, m.settings.SecretCost)
	if err != nil {
		return m.fail("create", in, err)
	}
	created, err := m.store.CreateWithHistory(ctx, &model.Client{
		PublicID:           creds.PublicID,
		SecretKey:          hash,
		FriendlyName:       in.FriendlyName,
		Scope:              creation.Scope,
		ServiceID:          creation.Service.ID,
		Status:             model.ClientActive,
		ShouldExpire:       in.ShouldExpire,
		ExpiresAt:          in.ExpiresAt,
		ShouldApplyIPCheck: in.ShouldApplyIPCheck,
		IPWhitelist:        in.IPWhitelist,
		CreatedBy:          actorID(actor),
	})
	if err != nil {
		return m.fail("create", in, err)
	}
	return m.ok("create", result.Created(KeyClientCreated, model.IssuedClient{Client: created, SecretKey: creds.Secret}))
}

// List returns one page of clients.
func (m *ClientManager) List(ctx context.Context, p validation.ClientListParams) result.Result {
	f, win, err := m.validate.List(p)
	if err != nil {
		return m.fail("list", p, err)
	}
	page, err := m.store.List(ctx, f, win)
	if err != nil {
		return m.fail("list", p, err)
	}
	return m.ok("list", result.OK(KeyClientsRetrieved, page))
}

// Histories returns one page of client history rows.
func (m *ClientManager) Histories(ctx context.Context, p validation.ClientHistoryParams) result.Result {
	f, win, err := m.validate.Histories(p)
	if err != nil {
		return m.fail("histories", p, err)
	}
	page, err := m.store.ListHistories(ctx, f, win)
	if err != nil {
		return m.fail("histories", p, err)
	}
	return m.ok("histories", result.OK(KeyClientHistoriesRetrieved, page))
}

// Get returns one client.
func (m *ClientManager) Get(ctx context.Context, rawID string) result.Result {
	c, err := m.validate.Get(ctx, rawID)
	if err != nil {
		return m.fail("get", rawID, err)
	}
	return m.ok("get", result.OK(KeyClientRetrieved, c))
}

// Update merges in over the stored client and rolls its history forward.
func (m *ClientManager) Update(ctx context.Context, rawID string, in *validation.UpdateClientInput, actor *model.Customer) result.Result {
	up, err := m.validate.Update(ctx, rawID, in)
	if err != nil {
		return m.fail("update", in, err)
	}
	updated, err := m.store.UpdateWithHistory(ctx, up.Current.ID, up.Patch, actorID(actor), in.Reason)
	if err != nil {
		return m.fail("update", in, err)
	}
	return m.ok("update", result.OK(KeyClientUpdated, updated))
}
