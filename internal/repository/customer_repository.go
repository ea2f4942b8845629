package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// ErrCustomerNotFound is returned when a customer lookup fails.
var ErrCustomerNotFound = errors.New("customer not found")

const customerColumns = `id, username, email_address, nellys_coin_user_id, status, type, language, created_at, updated_at`

// CustomerRepo persists customers.  Customers have no history ledger.
type CustomerRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewCustomerRepo constructs a CustomerRepo with the given DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db, now: utcNow}
}

func customerWhere(f model.CustomerFilter) *where {
	w := &where{}
	eq(w, "id", f.ID)
	eq(w, "username", f.Username)
	eq(w, "email_address", f.EmailAddress)
	eq(w, "nellys_coin_user_id", f.NellysCoinUserID)
	return w
}

func scanCustomer(s rowScanner) (*model.Customer, error) {
	var c model.Customer
	if err := s.Scan(&c.ID, &c.Username, &c.EmailAddress, &c.NellysCoinUserID, &c.Status, &c.Type, &c.Language,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Find returns the first customer matching f or ErrCustomerNotFound.
func (r *CustomerRepo) Find(ctx context.Context, f model.CustomerFilter) (*model.Customer, error) {
	w := customerWhere(f)
	c, err := scanCustomer(r.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customers"+w.String()+" ORDER BY id LIMIT 1", w.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns one window of customers matching f, newest first.
func (r *CustomerRepo) List(ctx context.Context, f model.CustomerFilter, win model.Window) (model.Page[model.Customer], error) {
	w := customerWhere(f)
	total, err := countRows(ctx, r.db, "SELECT COUNT(*) FROM customers"+w.String(), w.args...)
	if err != nil {
		return model.Page[model.Customer]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+customerColumns+" FROM customers"+w.String()+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		w.with(win.Limit, win.Offset)...)
	if err != nil {
		return model.Page[model.Customer]{}, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return model.Page[model.Customer]{}, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Customer]{}, err
	}
	return model.NewPage(out, total), nil
}

// Create inserts a customer and returns the stored row.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (username, email_address, nellys_coin_user_id, status, type, language, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Username, c.EmailAddress, c.NellysCoinUserID, c.Status, c.Type, c.Language, now, now)
	if err != nil {
		return nil, mapWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, model.CustomerFilter{ID: ptr(uint64(id))})
}

// Update overwrites the mutable columns of customer id.
func (r *CustomerRepo) Update(ctx context.Context, id uint64, p model.CustomerPatch) (*model.Customer, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE customers SET username = ?, email_address = ?, status = ?, type = ?, language = ?, updated_at = ?
		 WHERE id = ?`,
		p.Username, p.EmailAddress, p.Status, p.Type, p.Language, r.now(), id); err != nil {
		return nil, mapWriteError(err)
	}
	// read back; a missing id surfaces as ErrCustomerNotFound
	return r.Find(ctx, model.CustomerFilter{ID: &id})
}
