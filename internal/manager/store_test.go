package manager

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
)

// In-memory stores that honour the same contracts as the MySQL
// repositories, including the history ledger.

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type ledger struct {
	rows []model.History
	tick int
}

func (l *ledger) now() time.Time {
	l.tick++
	return epoch.Add(time.Duration(l.tick) * time.Minute)
}

func (l *ledger) open(entityID, actor uint64, snapshot any, reason string) {
	data, _ := json.Marshal(snapshot)
	now := l.now()
	l.rows = append(l.rows, model.History{
		ID: uint64(len(l.rows) + 1), EntityID: entityID, CreatedBy: actor,
		Data: data, Reason: reason, StartDate: now, CreatedAt: now, UpdatedAt: now,
	})
}

func (l *ledger) close(entityID, actor uint64) {
	now := l.now()
	for i := range l.rows {
		h := &l.rows[i]
		if h.EntityID == entityID && h.EndDate == nil {
			h.EndDate = &now
			h.UpdatedBy = &actor
		}
	}
}

func (l *ledger) list(f model.HistoryFilter, win model.Window) model.Page[model.History] {
	var out []model.History
	for _, h := range l.rows {
		if (f.EntityID == nil || *f.EntityID == h.EntityID) && (f.CreatedBy == nil || *f.CreatedBy == h.CreatedBy) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, win)
}

func window[T any](rows []T, win model.Window) model.Page[T] {
	total := len(rows)
	if win.Offset >= total {
		return model.NewPage[T](nil, total)
	}
	rows = rows[win.Offset:]
	if win.Limit < len(rows) {
		rows = rows[:win.Limit]
	}
	return model.NewPage(rows, total)
}

type memServices struct {
	mu      sync.Mutex
	rows    []model.Service
	history ledger
	err     error
}

func (s *memServices) Find(_ context.Context, f model.ServiceFilter) (*model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := s.rows[i]
		if (f.ID == nil || *f.ID == r.ID) && (f.Code == nil || *f.Code == r.Code) &&
			(f.FriendlyName == nil || *f.FriendlyName == r.FriendlyName) && (f.CreatedBy == nil || *f.CreatedBy == r.CreatedBy) {
			return &r, nil
		}
	}
	return nil, repository.ErrServiceNotFound
}

func (s *memServices) List(_ context.Context, f model.ServiceFilter, win model.Window) (model.Page[model.Service], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Service
	for _, r := range s.rows {
		if f.FriendlyName == nil || *f.FriendlyName == r.FriendlyName {
			out = append(out, r)
		}
	}
	return window(out, win), nil
}

func (s *memServices) CreateWithHistory(_ context.Context, in *model.Service) (*model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.rows {
		if r.FriendlyName == in.FriendlyName || r.Code == in.Code {
			return nil, repository.ErrDuplicate
		}
	}
	row := *in
	row.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, row)
	s.history.open(row.ID, row.CreatedBy, row, model.ReasonServiceCreated)
	return &row, nil
}

func (s *memServices) UpdateWithHistory(_ context.Context, id uint64, p model.ServicePatch, actor uint64, reason string) (*model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.rows {
		if s.rows[i].ID != id {
			continue
		}
		s.history.close(id, actor)
		s.rows[i].FriendlyName, s.rows[i].Description, s.rows[i].MaxClientCount = p.FriendlyName, p.Description, p.MaxClientCount
		row := s.rows[i]
		s.history.open(id, actor, row, reason)
		return &row, nil
	}
	return nil, repository.ErrServiceNotFound
}

func (s *memServices) ListHistories(_ context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.list(f, win), nil
}

type memClients struct {
	mu       sync.Mutex
	services *memServices
	rows     []model.Client
	history  ledger
}

func (s *memClients) Find(_ context.Context, f model.ClientFilter) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := s.rows[i]
		if (f.ID == nil || *f.ID == r.ID) && (f.PublicID == nil || *f.PublicID == r.PublicID) &&
			(f.FriendlyName == nil || *f.FriendlyName == r.FriendlyName) && (f.ServiceID == nil || *f.ServiceID == r.ServiceID) &&
			(f.Scope == nil || *f.Scope == r.Scope) {
			return &r, nil
		}
	}
	return nil, repository.ErrClientNotFound
}

func (s *memClients) count(serviceID uint64) int {
	n := 0
	for _, r := range s.rows {
		if r.ServiceID == serviceID {
			n++
		}
	}
	return n
}

func (s *memClients) CountByService(_ context.Context, serviceID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count(serviceID), nil
}

func (s *memClients) List(_ context.Context, f model.ClientFilter, win model.Window) (model.Page[model.Client], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Client
	for _, r := range s.rows {
		if f.ServiceID == nil || *f.ServiceID == r.ServiceID {
			out = append(out, r)
		}
	}
	return window(out, win), nil
}

func (s *memClients) reserve(ctx context.Context, serviceID uint64) error {
	svc, err := s.services.Find(ctx, model.ServiceFilter{ID: &serviceID})
	if err != nil {
		return err
	}
	if svc.MaxClientCount != nil && s.count(serviceID) >= *svc.MaxClientCount {
		return repository.ErrQuotaExceeded
	}
	return nil
}

func (s *memClients) CreateWithHistory(ctx context.Context, in *model.Client) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reserve(ctx, in.ServiceID); err != nil {
		return nil, err
	}
	row := *in
	row.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, row)
	s.history.open(row.ID, row.CreatedBy, row, model.ReasonClientCreated)
	return &row, nil
}

func (s *memClients) UpdateWithHistory(ctx context.Context, id uint64, p model.ClientPatch, actor uint64, reason string) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := &s.rows[i]
		if r.ID != id {
			continue
		}
		if r.ServiceID != p.ServiceID {
			if err := s.reserve(ctx, p.ServiceID); err != nil {
				return nil, err
			}
		}
		s.history.close(id, actor)
		r.FriendlyName, r.Scope, r.ServiceID, r.Status = p.FriendlyName, p.Scope, p.ServiceID, p.Status
		r.ShouldExpire, r.ExpiresAt, r.ShouldApplyIPCheck, r.IPWhitelist = p.ShouldExpire, p.ExpiresAt, p.ShouldApplyIPCheck, p.IPWhitelist
		row := *r
		s.history.open(id, actor, row, reason)
		return &row, nil
	}
	return nil, repository.ErrClientNotFound
}

func (s *memClients) ListHistories(_ context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.list(f, win), nil
}

type memAlerts struct {
	mu      sync.Mutex
	rows    []model.AlertConfiguration
	history ledger
}

func (s *memAlerts) Find(_ context.Context, f model.AlertConfigurationFilter) (*model.AlertConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := s.rows[i]
		switch {
		case f.ID != nil && *f.ID != r.ID:
		case f.DefaultOnly && r.ServiceID != nil:
		case f.ServiceID != nil && (r.ServiceID == nil || *r.ServiceID != *f.ServiceID):
		default:
			return &r, nil
		}
	}
	return nil, repository.ErrAlertConfigurationNotFound
}

func (s *memAlerts) List(_ context.Context, _ model.AlertConfigurationFilter, win model.Window) (model.Page[model.AlertConfiguration], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return window(s.rows, win), nil
}

func sameService(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *memAlerts) CreateWithHistory(_ context.Context, in *model.AlertConfiguration) (*model.AlertConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if sameService(r.ServiceID, in.ServiceID) {
			return nil, repository.ErrDuplicate
		}
	}
	row := *in
	row.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, row)
	s.history.open(row.ID, row.CreatedBy, row, model.ReasonAlertConfigurationCreated)
	return &row, nil
}

func (s *memAlerts) UpdateWithHistory(_ context.Context, id uint64, p model.AlertConfigurationPatch, actor uint64, reason string) (*model.AlertConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := &s.rows[i]
		if r.ID != id {
			continue
		}
		s.history.close(id, actor)
		r.SendSlackAlert, r.SendEmail, r.EmailAddressRecipients, r.ServiceID = p.SendSlackAlert, p.SendEmail, p.EmailAddressRecipients, p.ServiceID
		row := *r
		s.history.open(id, actor, row, reason)
		return &row, nil
	}
	return nil, repository.ErrAlertConfigurationNotFound
}

func (s *memAlerts) ListHistories(_ context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.list(f, win), nil
}

type memCustomers struct {
	mu   sync.Mutex
	rows []model.Customer
}

func (s *memCustomers) Find(_ context.Context, f model.CustomerFilter) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := s.rows[i]
		if (f.ID == nil || *f.ID == r.ID) && (f.Username == nil || *f.Username == r.Username) &&
			(f.EmailAddress == nil || *f.EmailAddress == r.EmailAddress) &&
			(f.NellysCoinUserID == nil || *f.NellysCoinUserID == r.NellysCoinUserID) {
			return &r, nil
		}
	}
	return nil, repository.ErrCustomerNotFound
}

func (s *memCustomers) List(_ context.Context, _ model.CustomerFilter, win model.Window) (model.Page[model.Customer], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return window(s.rows, win), nil
}

func (s *memCustomers) Create(_ context.Context, c *model.Customer) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Username == c.Username || r.NellysCoinUserID == c.NellysCoinUserID {
			return nil, repository.ErrDuplicate
		}
	}
	row := *c
	row.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, row)
	return &row, nil
}

func (s *memCustomers) Update(_ context.Context, id uint64, p model.CustomerPatch) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := &s.rows[i]
		if r.ID != id {
			continue
		}
		r.Username, r.EmailAddress, r.Status, r.Type, r.Language = p.Username, p.EmailAddress, p.Status, p.Type, p.Language
		row := *r
		return &row, nil
	}
	return nil, repository.ErrCustomerNotFound
}

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) Notify(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
}

var (
	_ ServiceStore            = (*memServices)(nil)
	_ ClientStore             = (*memClients)(nil)
	_ AlertConfigurationStore = (*memAlerts)(nil)
	_ CustomerStore           = (*memCustomers)(nil)
)
