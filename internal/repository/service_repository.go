package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// ErrServiceNotFound is returned when a service lookup fails.
var ErrServiceNotFound = errors.New("service not found")

const serviceColumns = `id, code, friendly_name, description, max_client_count, created_by, created_at, updated_at`

// ServiceRepo persists services and their history ledger.
type ServiceRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewServiceRepo constructs a ServiceRepo with the given DB handle.
func NewServiceRepo(db *sql.DB) *ServiceRepo {
	return &ServiceRepo{db: db, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func serviceWhere(f model.ServiceFilter) *where {
	w := &where{}
	eq(w, "id", f.ID)
	eq(w, "code", f.Code)
	eq(w, "friendly_name", f.FriendlyName)
	eq(w, "created_by", f.CreatedBy)
	return w
}

func scanService(s rowScanner) (*model.Service, error) {
	var (
		svc model.Service
		max sql.NullInt64
	)
	if err := s.Scan(&svc.ID, &svc.Code, &svc.FriendlyName, &svc.Description, &max, &svc.CreatedBy, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return nil, err
	}
	if max.Valid {
		m := int(max.Int64)
		svc.MaxClientCount = &m
	}
	return &svc, nil
}

// Find returns the first service matching f or ErrServiceNotFound.
func (r *ServiceRepo) Find(ctx context.Context, f model.ServiceFilter) (*model.Service, error) {
	return findService(ctx, r.db, f)
}

func findService(ctx context.Context, q queryer, f model.ServiceFilter) (*model.Service, error) {
	w := serviceWhere(f)
	svc, err := scanService(q.QueryRowContext(ctx, "SELECT "+serviceColumns+" FROM services"+w.String()+" ORDER BY id LIMIT 1", w.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

// List returns one window of services matching f, newest first.
func (r *ServiceRepo) List(ctx context.Context, f model.ServiceFilter, win model.Window) (model.Page[model.Service], error) {
	w := serviceWhere(f)
	total, err := countRows(ctx, r.db, "SELECT COUNT(*) FROM services"+w.String(), w.args...)
	if err != nil {
		return model.Page[model.Service]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+serviceColumns+" FROM services"+w.String()+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		w.with(win.Limit, win.Offset)...)
	if err != nil {
		return model.Page[model.Service]{}, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return model.Page[model.Service]{}, err
		}
		out = append(out, *svc)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Service]{}, err
	}
	return model.NewPage(out, total), nil
}

// CreateWithHistory inserts the service and its first history interval in
// one transaction.  A unique index violation returns ErrDuplicate.
func (r *ServiceRepo) CreateWithHistory(ctx context.Context, s *model.Service) (*model.Service, error) {
	now := r.now()
	var created *model.Service
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO services (code, friendly_name, description, max_client_count, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.Code, s.FriendlyName, s.Description, s.MaxClientCount, s.CreatedBy, now, now)
		if err != nil {
			return mapWriteError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = findService(ctx, tx, model.ServiceFilter{ID: ptr(uint64(id))})
		if err != nil {
			return err
		}
		return serviceLedger.open(ctx, tx, created.ID, s.CreatedBy, created, model.ReasonServiceCreated, now)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateWithHistory applies p to service id, closes the open history
// interval and opens a new one with the post-update snapshot.  The service
// row is locked for the duration of the transaction so concurrent updates
// of the same service serialise.
func (r *ServiceRepo) UpdateWithHistory(ctx context.Context, id uint64, p model.ServicePatch, actorID uint64, reason string) (*model.Service, error) {
	now := r.now()
	var updated *model.Service
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := lockRow(ctx, tx, "services", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrServiceNotFound
		}
		if err := serviceLedger.close(ctx, tx, id, actorID, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE services SET friendly_name = ?, description = ?, max_client_count = ?, updated_at = ? WHERE id = ?`,
			p.FriendlyName, p.Description, p.MaxClientCount, now, id); err != nil {
			return mapWriteError(err)
		}
		updated, err = findService(ctx, tx, model.ServiceFilter{ID: &id})
		if err != nil {
			return err
		}
		return serviceLedger.open(ctx, tx, id, actorID, updated, reason, now)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListHistories returns service history rows matching f.
func (r *ServiceRepo) ListHistories(ctx context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error) {
	return serviceLedger.list(ctx, r.db, f, win)
}

func ptr[T any](v T) *T { return &v }
