package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// ErrClientNotFound is returned when a client lookup fails.
var ErrClientNotFound = errors.New("client not found")

const clientColumns = `id, public_id, secret_key, friendly_name, scope, service_id, status, should_expire, expires_at,
	should_apply_ip_check, ip_whitelist, was_regenerated, created_by, created_at, updated_at`

// ClientRepo persists API clients and their history ledger.
type ClientRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewClientRepo constructs a ClientRepo with the given DB handle.
func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{db: db, now: utcNow}
}

func clientWhere(f model.ClientFilter) *where {
	w := &where{}
	eq(w, "id", f.ID)
	eq(w, "public_id", f.PublicID)
	eq(w, "friendly_name", f.FriendlyName)
	eq(w, "service_id", f.ServiceID)
	eq(w, "scope", f.Scope)
	return w
}

func scanClient(s rowScanner) (*model.Client, error) {
	var (
		c         model.Client
		expiresAt sql.NullTime
		whitelist []byte
	)
	if err := s.Scan(&c.ID, &c.PublicID, &c.SecretKey, &c.FriendlyName, &c.Scope, &c.ServiceID, &c.Status,
		&c.ShouldExpire, &expiresAt, &c.ShouldApplyIPCheck, &whitelist, &c.WasRegenerated, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	if len(whitelist) > 0 {
		if err := json.Unmarshal(whitelist, &c.IPWhitelist); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// encodeList stores a string list as a JSON array; nil stays NULL.
func encodeList(v []string) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Find returns the first client matching f or ErrClientNotFound.
func (r *ClientRepo) Find(ctx context.Context, f model.ClientFilter) (*model.Client, error) {
	return findClient(ctx, r.db, f)
}

func findClient(ctx context.Context, q queryer, f model.ClientFilter) (*model.Client, error) {
	w := clientWhere(f)
	c, err := scanClient(q.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM clients"+w.String()+" ORDER BY id LIMIT 1", w.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return c, nil
}

// CountByService returns how many clients the service owns.
func (r *ClientRepo) CountByService(ctx context.Context, serviceID uint64) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM clients WHERE service_id = ?", serviceID)
}

// List returns one window of clients matching f, newest first.
func (r *ClientRepo) List(ctx context.Context, f model.ClientFilter, win model.Window) (model.Page[model.Client], error) {
	w := clientWhere(f)
	total, err := countRows(ctx, r.db, "SELECT COUNT(*) FROM clients"+w.String(), w.args...)
	if err != nil {
		return model.Page[model.Client]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients"+w.String()+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		w.with(win.Limit, win.Offset)...)
	if err != nil {
		return model.Page[model.Client]{}, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return model.Page[model.Client]{}, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Client]{}, err
	}
	return model.NewPage(out, total), nil
}

// reserveSlot locks the service row and checks its client quota.  Locking
// the parent serialises concurrent creates against the same service.
func reserveSlot(ctx context.Context, tx *sql.Tx, serviceID uint64) error {
	var max sql.NullInt64
	err := tx.QueryRowContext(ctx, "SELECT max_client_count FROM services WHERE id = ? FOR UPDATE", serviceID).Scan(&max)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrServiceNotFound
	}
	if err != nil {
		return err
	}
	if !max.Valid {
		return nil
	}
	n, err := countRows(ctx, tx, "SELECT COUNT(*) FROM clients WHERE service_id = ?", serviceID)
	if err != nil {
		return err
	}
	if int64(n) >= max.Int64 {
		return ErrQuotaExceeded
	}
	return nil
}

// CreateWithHistory inserts the client and its first history interval in
// one transaction.  SecretKey must already be hashed.
func (r *ClientRepo) CreateWithHistory(ctx context.Context, c *model.Client) (*model.Client, error) {
	now := r.now()
	whitelist, err := encodeList(c.IPWhitelist)
	if err != nil {
		return nil, err
	}
	var created *model.Client
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := reserveSlot(ctx, tx, c.ServiceID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO clients (public_id, secret_key, friendly_name, scope, service_id, status, should_expire, expires_at,
			     should_apply_ip_check, ip_whitelist, was_regenerated, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.PublicID, c.SecretKey, c.FriendlyName, c.Scope, c.ServiceID, c.Status, c.ShouldExpire, c.ExpiresAt,
			c.ShouldApplyIPCheck, whitelist, c.WasRegenerated, c.CreatedBy, now, now)
		if err != nil {
			return mapWriteError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = findClient(ctx, tx, model.ClientFilter{ID: ptr(uint64(id))})
		if err != nil {
			return err
		}
		return clientLedger.open(ctx, tx, created.ID, c.CreatedBy, created, model.ReasonClientCreated, now)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateWithHistory applies p to client id and rolls the history ledger
// forward.  Moving a client to another service reserves a slot there.
func (r *ClientRepo) UpdateWithHistory(ctx context.Context, id uint64, p model.ClientPatch, actorID uint64, reason string) (*model.Client, error) {
	now := r.now()
	whitelist, err := encodeList(p.IPWhitelist)
	if err != nil {
		return nil, err
	}
	var updated *model.Client
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := lockRow(ctx, tx, "clients", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClientNotFound
		}
		current, err := findClient(ctx, tx, model.ClientFilter{ID: &id})
		if err != nil {
			return err
		}
		if current.ServiceID != p.ServiceID {
			if err := reserveSlot(ctx, tx, p.ServiceID); err != nil {
				return err
			}
		}
		if err := clientLedger.close(ctx, tx, id, actorID, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE clients SET friendly_name = ?, scope = ?, service_id = ?, status = ?, should_expire = ?, expires_at = ?,
			     should_apply_ip_check = ?, ip_whitelist = ?, updated_at = ?
			 WHERE id = ?`,
			p.FriendlyName, p.Scope, p.ServiceID, p.Status, p.ShouldExpire, p.ExpiresAt,
			p.ShouldApplyIPCheck, whitelist, now, id); err != nil {
			return mapWriteError(err)
		}
		updated, err = findClient(ctx, tx, model.ClientFilter{ID: &id})
		if err != nil {
			return err
		}
		return clientLedger.open(ctx, tx, id, actorID, updated, reason, now)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListHistories returns client history rows matching f.
func (r *ClientRepo) ListHistories(ctx context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error) {
	return clientLedger.list(ctx, r.db, f, win)
}
