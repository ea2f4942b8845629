package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/api-client-manager/internal/i18n"
	"github.com/iliyamo/api-client-manager/internal/manager"
	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/respond"
)

type fakeServices struct{ rows []model.Service }

func (s *fakeServices) Find(_ context.Context, f model.ServiceFilter) (*model.Service, error) {
	for i := range s.rows {
		r := &s.rows[i]
		if (f.ID == nil || *f.ID == r.ID) && (f.FriendlyName == nil || *f.FriendlyName == r.FriendlyName) {
			return r, nil
		}
	}
	return nil, repository.ErrServiceNotFound
}

func (s *fakeServices) List(_ context.Context, _ model.ServiceFilter, _ model.Window) (model.Page[model.Service], error) {
	return model.NewPage(s.rows, len(s.rows)), nil
}

func (s *fakeServices) CreateWithHistory(_ context.Context, in *model.Service) (*model.Service, error) {
	in.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, *in)
	return in, nil
}

func (s *fakeServices) UpdateWithHistory(_ context.Context, id uint64, p model.ServicePatch, _ uint64, _ string) (*model.Service, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].FriendlyName, s.rows[i].Description, s.rows[i].MaxClientCount = p.FriendlyName, p.Description, p.MaxClientCount
			return &s.rows[i], nil
		}
	}
	return nil, repository.ErrServiceNotFound
}

func (s *fakeServices) ListHistories(context.Context, model.HistoryFilter, model.Window) (model.Page[model.History], error) {
	return model.Page[model.History]{}, errors.New("connection reset")
}

type fakeCustomers struct{ rows []model.Customer }

func (s *fakeCustomers) Find(_ context.Context, f model.CustomerFilter) (*model.Customer, error) {
	for i := range s.rows {
		r := &s.rows[i]
		if (f.ID == nil || *f.ID == r.ID) &&
			(f.Username == nil || *f.Username == r.Username) &&
			(f.NellysCoinUserID == nil || *f.NellysCoinUserID == r.NellysCoinUserID) {
			return r, nil
		}
	}
	return nil, repository.ErrCustomerNotFound
}

func (s *fakeCustomers) List(_ context.Context, _ model.CustomerFilter, _ model.Window) (model.Page[model.Customer], error) {
	return model.NewPage(s.rows, len(s.rows)), nil
}

func (s *fakeCustomers) Create(_ context.Context, c *model.Customer) (*model.Customer, error) {
	s.rows = append(s.rows, *c)
	return c, nil
}

func (s *fakeCustomers) Update(_ context.Context, id uint64, p model.CustomerPatch) (*model.Customer, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			r := &s.rows[i]
			r.Username, r.EmailAddress, r.Status, r.Type, r.Language = p.Username, p.EmailAddress, p.Status, p.Type, p.Language
			return r, nil
		}
	}
	return nil, repository.ErrCustomerNotFound
}

type nopAlerts struct{}

func (nopAlerts) Notify(string) {}

var out = respond.NewWriter(i18n.MustLoad())

func call(t *testing.T, method, target, body string, actor *model.Customer, lang string, h echo.HandlerFunc, params ...string) (int, respond.Envelope, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	respond.SetActor(c, actor)
	if lang != "" {
		respond.SetLanguage(c, lang)
	}
	require.NoError(t, h(c))

	var env respond.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	data, _ := env.Data.(map[string]any)
	return rec.Code, env, data
}

func serviceHandler() (*ServiceHandler, *fakeServices) {
	store := &fakeServices{}
	return NewServiceHandler(manager.NewServiceManager(store, nopAlerts{}, manager.DefaultSettings()), out), store
}

func TestServiceHandler_Create(t *testing.T) {
	h, store := serviceHandler()
	admin := &model.Customer{ID: 9, Type: model.CustomerAdmin}

	code, env, data := call(t, http.MethodPost, "/services", `{"friendlyName":"Payments","description":"money"}`, admin, "", h.Create)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Service created successfully", env.Message)
	assert.Equal(t, "Payments", data["friendlyName"])
	assert.True(t, strings.HasPrefix(data["code"].(string), "service-"))
	assert.Equal(t, uint64(9), store.rows[0].CreatedBy)

	code, env, _ = call(t, http.MethodPost, "/services", `{"friendlyName":"Payments","description":"again"}`, admin, "", h.Create)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "A service with this friendly name already exists", env.Message)
}

func TestServiceHandler_BadPayload(t *testing.T) {
	h, _ := serviceHandler()
	code, env, _ := call(t, http.MethodPost, "/services", `{"friendlyName":`, nil, "fr", h.Create)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Le corps de la requête n'est pas un JSON valide", env.Message)
}

func TestServiceHandler_ListValidatesQuery(t *testing.T) {
	h, _ := serviceHandler()
	code, env, _ := call(t, http.MethodGet, "/services?limit=abc", "", nil, "", h.List)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "The field limit must be a non-negative integer", env.Message)

	code, env, data := call(t, http.MethodGet, "/services?limit=5", "", nil, "", h.List)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Services retrieved successfully", env.Message)
	assert.EqualValues(t, 0, data["totalCount"])
}

func TestServiceHandler_GetAndUpdate(t *testing.T) {
	h, store := serviceHandler()
	store.rows = []model.Service{{ID: 1, FriendlyName: "Payments", Description: "money"}}

	code, env, _ := call(t, http.MethodGet, "/services/2", "", nil, "", h.Get, "id", "2")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Service not found", env.Message)

	code, env, _ = call(t, http.MethodPut, "/services/1", `{"description":"x"}`, nil, "", h.Update, "id", "1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "The field reason is required", env.Message)

	code, _, data := call(t, http.MethodPut, "/services/1", `{"reason":"cap","maxClientCount":3}`, nil, "", h.Update, "id", "1")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, data["maxClientCount"])
}

func TestServiceHandler_StorageFailureHidesDetail(t *testing.T) {
	h, _ := serviceHandler()
	code, env, _ := call(t, http.MethodGet, "/services/history", "", nil, "", h.Histories)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "An internal server error occurred. Please try again later.", env.Message)
	assert.Nil(t, env.Data)
}

func TestCustomerHandler_Update(t *testing.T) {
	jean := model.Customer{ID: 1, Username: "jean", NellysCoinUserID: 101, Type: model.CustomerClient, Language: "fr"}
	store := &fakeCustomers{rows: []model.Customer{jean}}
	h := NewCustomerHandler(manager.NewCustomerManager(store, nopAlerts{}, manager.DefaultSettings()), out)

	code, env, _ := call(t, http.MethodPut, "/customers/1?by=id", `{"oldUsername":"jean","newUsername":"j"}`, &jean, "", h.Update, "nellysCoinUserId", "1")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "You are not authorized to perform this action", env.Message)

	code, env, data := call(t, http.MethodPut, "/customers/101", `{"oldUsername":"jean","newUsername":"jeanne"}`, &jean, "", h.Update, "nellysCoinUserId", "101")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Customer updated successfully", env.Message)
	assert.Equal(t, "jeanne", data["username"])

	code, _, _ = call(t, http.MethodGet, "/customers/1", "", &jean, "", h.Get, "id", "1")
	assert.Equal(t, http.StatusOK, code)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealthAndReady(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)))
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, Ready(pinger{errors.New("down")})(e.NewContext(httptest.NewRequest(http.MethodGet, "/readyz", nil), rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, Ready(pinger{})(e.NewContext(httptest.NewRequest(http.MethodGet, "/readyz", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
