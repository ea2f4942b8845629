package manager

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
	"github.com/iliyamo/api-client-manager/internal/utils"
	"github.com/iliyamo/api-client-manager/internal/validation"
)

var admin = &model.Customer{ID: 1, Username: "root", Type: model.CustomerAdmin}

func testSettings() Settings {
	s := DefaultSettings()
	s.SecretCost = bcrypt.MinCost
	return s
}

type fixture struct {
	services *memServices
	clients  *memClients
	alerts   *memAlerts
	sink     *recordingAlerter

	serviceMgr *ServiceManager
	clientMgr  *ClientManager
	alertMgr   *AlertConfigurationManager
}

func newFixture() *fixture {
	f := &fixture{services: &memServices{}, alerts: &memAlerts{}, sink: &recordingAlerter{}}
	f.clients = &memClients{services: f.services}
	f.serviceMgr = NewServiceManager(f.services, f.sink, testSettings())
	f.clientMgr = NewClientManager(f.clients, f.services, f.sink, testSettings())
	f.alertMgr = NewAlertConfigurationManager(f.alerts, f.services, f.sink, testSettings())
	return f
}

func (f *fixture) service(t *testing.T, name string, max *int) *model.Service {
	t.Helper()
	res := f.serviceMgr.Create(context.Background(), &validation.CreateServiceInput{FriendlyName: name, Description: "d", MaxClientCount: max}, admin)
	require.False(t, res.Failed(), "%+v", res)
	return res.Data.(*model.Service)
}

func intp(v int) *int { return &v }
func u64p(v uint64) *uint64 { return &v }
func strp(v string) *string { return &v }
func boolp(v bool) *bool { return &v }

func clientInput(name string, serviceID uint64) *validation.CreateClientInput {
	return &validation.CreateClientInput{Scope: "web", FriendlyName: name, ServiceID: serviceID}
}

func TestServiceCreate(t *testing.T) {
	f := newFixture()
	res := f.serviceMgr.Create(context.Background(), &validation.CreateServiceInput{FriendlyName: "Test", Description: "d", MaxClientCount: intp(2)}, admin)
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, KeyServiceCreated, res.Key)

	svc := res.Data.(*model.Service)
	assert.Equal(t, intp(2), svc.MaxClientCount)
	assert.Equal(t, uint64(1), svc.CreatedBy)
	assert.Regexp(t, `^service-[a-z0-9]+-\d+$`, svc.Code)

	res = f.serviceMgr.Create(context.Background(), &validation.CreateServiceInput{FriendlyName: "Test", Description: "again"}, admin)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, result.KindConflict, res.Kind)
	assert.Equal(t, validation.KeyServiceNameTaken, res.Key)
}

func TestClientQuotaScenario(t *testing.T) {
	f := newFixture()
	svc := f.service(t, "Test", intp(2))

	for _, name := range []string{"one", "two"} {
		res := f.clientMgr.Create(context.Background(), clientInput(name, svc.ID), admin)
		require.Equal(t, http.StatusCreated, res.Status, "%+v", res)
	}
	res := f.clientMgr.Create(context.Background(), clientInput("three", svc.ID), admin)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, result.KindConflict, res.Kind)
	assert.Equal(t, validation.KeyServiceMaxClientsReached, res.Key)
	assert.Len(t, f.clients.rows, 2)
}

func TestClientCreate_ReturnsPlaintextSecretOnce(t *testing.T) {
	f := newFixture()
	svc := f.service(t, "Test", nil)

	res := f.clientMgr.Create(context.Background(), clientInput("web", svc.ID), admin)
	require.Equal(t, http.StatusCreated, res.Status)
	issued := res.Data.(model.IssuedClient)
	assert.Len(t, issued.PublicID, 15)
	assert.Len(t, issued.SecretKey, 25)
	assert.Equal(t, model.ScopeWeb, issued.Scope)
	assert.Equal(t, model.ClientActive, issued.Status)

	stored := f.clients.rows[0]
	assert.NotEqual(t, issued.SecretKey, stored.SecretKey)
	assert.True(t, utils.VerifySecret(stored.SecretKey, issued.SecretKey))

	// the fetched row never carries a secret in JSON
	got := f.clientMgr.Get(context.Background(), "1")
	body, err := json.Marshal(got.Data)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret")
}

func TestClientCreate_MissingService(t *testing.T) {
	f := newFixture()
	res := f.clientMgr.Create(context.Background(), clientInput("web", 42), admin)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, validation.KeyServiceNotFound, res.Key)
}

func TestClientUpdate_SelfRenameAndHistory(t *testing.T) {
	f := newFixture()
	svc := f.service(t, "Test", nil)
	require.False(t, f.clientMgr.Create(context.Background(), clientInput("web", svc.ID), admin).Failed())

	res := f.clientMgr.Update(context.Background(), "1", &validation.UpdateClientInput{Reason: "same", FriendlyName: strp("web")}, admin)
	require.Equal(t, http.StatusOK, res.Status, "%+v", res)

	res = f.clientMgr.Update(context.Background(), "1", &validation.UpdateClientInput{Reason: "block", Status: strp("blocked")}, admin)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, model.ClientBlocked, res.Data.(*model.Client).Status)

	hist := f.clientMgr.Histories(context.Background(), validation.ClientHistoryParams{ClientID: "1"})
	page := hist.Data.(model.Page[model.History])
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, "block", page.Data[0].Reason)
	assert.Equal(t, model.ReasonClientCreated, page.Data[2].Reason)
}

func TestServiceUpdate_HistoryScenario(t *testing.T) {
	f := newFixture()
	svc := f.service(t, "Old", nil)

	res := f.serviceMgr.Update(context.Background(), "1", &validation.UpdateServiceInput{Reason: "fix", FriendlyName: strp("New")}, admin)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, KeyServiceUpdated, res.Key)

	hist := f.serviceMgr.Histories(context.Background(), validation.ServiceHistoryParams{ServiceID: "1"})
	require.Equal(t, http.StatusOK, hist.Status)
	page := hist.Data.(model.Page[model.History])
	require.Equal(t, 2, page.TotalCount)

	newer, older := page.Data[0], page.Data[1]
	assert.Nil(t, newer.EndDate)
	assert.Equal(t, "fix", newer.Reason)
	assert.NotNil(t, older.EndDate)
	assert.Equal(t, svc.ID, older.EntityID)

	var snap model.Service
	require.NoError(t, json.Unmarshal(newer.Data, &snap))
	assert.Equal(t, "New", snap.FriendlyName)
}

func TestServiceUpdate_OneOpenIntervalAfterManyUpdates(t *testing.T) {
	f := newFixture()
	f.service(t, "svc", nil)

	const n = 6
	for i := 0; i < n; i++ {
		res := f.serviceMgr.Update(context.Background(), "1", &validation.UpdateServiceInput{Reason: "tweak", Description: strp("v")}, admin)
		require.False(t, res.Failed())
	}

	open, closed := 0, 0
	for _, h := range f.services.history.rows {
		if h.Open() {
			open++
		} else {
			closed++
		}
	}
	assert.Equal(t, 1, open)
	assert.Equal(t, n, closed)
}

func TestList_IsIdempotent(t *testing.T) {
	f := newFixture()
	f.service(t, "a", nil)
	f.service(t, "b", nil)

	first := f.serviceMgr.List(context.Background(), validation.ServiceListParams{Paging: validation.Paging{Limit: "1"}})
	second := f.serviceMgr.List(context.Background(), validation.ServiceListParams{Paging: validation.Paging{Limit: "1"}})
	p1, p2 := first.Data.(model.Page[model.Service]), second.Data.(model.Page[model.Service])
	assert.Equal(t, 2, p1.TotalCount)
	assert.Equal(t, 1, p1.Count)
	assert.Equal(t, p1.TotalCount, p2.TotalCount)

	bad := f.serviceMgr.List(context.Background(), validation.ServiceListParams{Paging: validation.Paging{Offset: "-1"}})
	assert.Equal(t, result.KindValidation, bad.Kind)
}

func TestStorageFailure_IsInternalAndAlerted(t *testing.T) {
	f := newFixture()
	f.services.err = errors.New("connection refused")

	res := f.serviceMgr.Create(context.Background(), &validation.CreateServiceInput{FriendlyName: "x", Description: "d"}, admin)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, result.KeyServerError, res.Key)
	assert.Nil(t, res.Data)

	require.Len(t, f.sink.messages, 1)
	assert.Contains(t, f.sink.messages[0], "An error occurred in service.create")
	assert.Contains(t, f.sink.messages[0], "connection refused")
	assert.Empty(t, f.services.rows)
}

func TestDuplicateRace_IsConflict(t *testing.T) {
	f := newFixture()
	f.services.err = repository.ErrDuplicate

	res := f.serviceMgr.Create(context.Background(), &validation.CreateServiceInput{FriendlyName: "x", Description: "d"}, admin)
	assert.Equal(t, result.KindConflict, res.Kind)
	assert.Equal(t, validation.KeyServiceNameTaken, res.Key)
	assert.Empty(t, f.sink.messages)
}

func TestAlertConfigurationScenario(t *testing.T) {
	f := newFixture()
	for i := 0; i < 7; i++ {
		f.service(t, string(rune('a'+i)), nil)
	}

	res := f.alertMgr.Create(context.Background(), &validation.CreateAlertConfigurationInput{SendSlackAlert: boolp(true), ServiceID: u64p(7)}, admin)
	require.Equal(t, http.StatusCreated, res.Status, "%+v", res)
	assert.Equal(t, u64p(7), res.Data.(*model.AlertConfiguration).ServiceID)

	res = f.alertMgr.Create(context.Background(), &validation.CreateAlertConfigurationInput{SendSlackAlert: boolp(true), ServiceID: u64p(7)}, admin)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, validation.KeyAlertConfigurationExists, res.Key)

	res = f.alertMgr.Create(context.Background(), &validation.CreateAlertConfigurationInput{SendSlackAlert: boolp(false)}, admin)
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Nil(t, res.Data.(*model.AlertConfiguration).ServiceID)

	res = f.alertMgr.Update(context.Background(), "2", &validation.UpdateAlertConfigurationInput{
		Reason: "email ops", SendEmail: boolp(true), EmailAddressRecipients: []string{"ops@example.com"},
	}, admin)
	require.Equal(t, http.StatusOK, res.Status, "%+v", res)

	hist := f.alertMgr.Histories(context.Background(), validation.AlertConfigurationHistoryParams{AlertConfigurationID: "2"})
	assert.Equal(t, 2, hist.Data.(model.Page[model.History]).TotalCount)
}

func TestCustomerScenario(t *testing.T) {
	store := &memCustomers{rows: []model.Customer{
		{ID: 1, Username: "jean", NellysCoinUserID: 101, Type: model.CustomerClient, Language: "fr"},
	}}
	m := NewCustomerManager(store, nil, testSettings())
	jean := store.rows[0]

	res := m.Update(context.Background(), validation.CustomerTarget{Raw: "101"},
		&validation.UpdateCustomerInput{OldUsername: "someone", NewUsername: "x"}, &jean)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, validation.KeyCustomerNotFound, res.Key)

	res = m.Update(context.Background(), validation.CustomerTarget{Raw: "101"},
		&validation.UpdateCustomerInput{OldUsername: "jean", NewUsername: "jeanne"}, &jean)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "jeanne", res.Data.(*model.Customer).Username)
}

func TestCustomerSync(t *testing.T) {
	store := &memCustomers{}
	m := NewCustomerManager(store, nil, testSettings())
	a := model.IdentityAssertion{CustomerID: 55, Username: "ana", EmailAddress: "ana@example.com", AccountStatus: "confirmed", CustomerType: "admin", PreferredLanguage: "FR"}

	c, err := m.Sync(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.ID)
	assert.True(t, c.IsAdmin())
	assert.Equal(t, "fr", c.Language)

	// renamed upstream: matched by provider id and refreshed
	a.Username, a.CustomerType = "ana2", "client"
	c, err = m.Sync(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.ID)
	assert.Equal(t, "ana2", c.Username)
	assert.False(t, c.IsAdmin())
	assert.Len(t, store.rows, 1)
}
