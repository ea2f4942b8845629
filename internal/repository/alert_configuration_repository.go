package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// ErrAlertConfigurationNotFound is returned when an alert configuration
// lookup fails.
var ErrAlertConfigurationNotFound = errors.New("alert configuration not found")

const alertConfigurationColumns = `id, send_slack_alert, send_email, email_address_recipients, service_id, created_by, created_at, updated_at`

// AlertConfigurationRepo persists alert configurations and their history.
// The table carries a unique generated column over IFNULL(service_id, 0),
// so MySQL itself allows one default row and one row per service.
type AlertConfigurationRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewAlertConfigurationRepo constructs an AlertConfigurationRepo.
func NewAlertConfigurationRepo(db *sql.DB) *AlertConfigurationRepo {
	return &AlertConfigurationRepo{db: db, now: utcNow}
}

func alertConfigurationWhere(f model.AlertConfigurationFilter) *where {
	w := &where{}
	eq(w, "id", f.ID)
	if f.DefaultOnly {
		w.raw("service_id IS NULL")
	} else {
		eq(w, "service_id", f.ServiceID)
	}
	eq(w, "created_by", f.CreatedBy)
	eq(w, "send_slack_alert", f.SendSlackAlert)
	eq(w, "send_email", f.SendEmail)
	return w
}

func scanAlertConfiguration(s rowScanner) (*model.AlertConfiguration, error) {
	var (
		a          model.AlertConfiguration
		recipients []byte
		serviceID  sql.NullInt64
	)
	if err := s.Scan(&a.ID, &a.SendSlackAlert, &a.SendEmail, &recipients, &serviceID, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if len(recipients) > 0 {
		if err := json.Unmarshal(recipients, &a.EmailAddressRecipients); err != nil {
			return nil, err
		}
	}
	if serviceID.Valid {
		v := uint64(serviceID.Int64)
		a.ServiceID = &v
	}
	return &a, nil
}

// Find returns the first configuration matching f or
// ErrAlertConfigurationNotFound.
func (r *AlertConfigurationRepo) Find(ctx context.Context, f model.AlertConfigurationFilter) (*model.AlertConfiguration, error) {
	return findAlertConfiguration(ctx, r.db, f)
}

func findAlertConfiguration(ctx context.Context, q queryer, f model.AlertConfigurationFilter) (*model.AlertConfiguration, error) {
	w := alertConfigurationWhere(f)
	a, err := scanAlertConfiguration(q.QueryRowContext(ctx,
		"SELECT "+alertConfigurationColumns+" FROM alert_configurations"+w.String()+" ORDER BY id LIMIT 1", w.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlertConfigurationNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns one window of configurations matching f, newest first.
func (r *AlertConfigurationRepo) List(ctx context.Context, f model.AlertConfigurationFilter, win model.Window) (model.Page[model.AlertConfiguration], error) {
	w := alertConfigurationWhere(f)
	total, err := countRows(ctx, r.db, "SELECT COUNT(*) FROM alert_configurations"+w.String(), w.args...)
	if err != nil {
		return model.Page[model.AlertConfiguration]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+alertConfigurationColumns+" FROM alert_configurations"+w.String()+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		w.with(win.Limit, win.Offset)...)
	if err != nil {
		return model.Page[model.AlertConfiguration]{}, err
	}
	defer rows.Close()

	var out []model.AlertConfiguration
	for rows.Next() {
		a, err := scanAlertConfiguration(rows)
		if err != nil {
			return model.Page[model.AlertConfiguration]{}, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.AlertConfiguration]{}, err
	}
	return model.NewPage(out, total), nil
}

// CreateWithHistory inserts the configuration and its first history
// interval in one transaction.
func (r *AlertConfigurationRepo) CreateWithHistory(ctx context.Context, a *model.AlertConfiguration) (*model.AlertConfiguration, error) {
	now := r.now()
	recipients, err := encodeList(a.EmailAddressRecipients)
	if err != nil {
		return nil, err
	}
	var created *model.AlertConfiguration
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO alert_configurations (send_slack_alert, send_email, email_address_recipients, service_id, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.SendSlackAlert, a.SendEmail, recipients, a.ServiceID, a.CreatedBy, now, now)
		if err != nil {
			return mapWriteError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = findAlertConfiguration(ctx, tx, model.AlertConfigurationFilter{ID: ptr(uint64(id))})
		if err != nil {
			return err
		}
		return alertConfigurationLedger.open(ctx, tx, created.ID, a.CreatedBy, created, model.ReasonAlertConfigurationCreated, now)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateWithHistory applies p to configuration id and rolls the history
// ledger forward under a row lock.
func (r *AlertConfigurationRepo) UpdateWithHistory(ctx context.Context, id uint64, p model.AlertConfigurationPatch, actorID uint64, reason string) (*model.AlertConfiguration, error) {
	now := r.now()
	recipients, err := encodeList(p.EmailAddressRecipients)
	if err != nil {
		return nil, err
	}
	var updated *model.AlertConfiguration
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := lockRow(ctx, tx, "alert_configurations", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlertConfigurationNotFound
		}
		if err := alertConfigurationLedger.close(ctx, tx, id, actorID, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE alert_configurations SET send_slack_alert = ?, send_email = ?, email_address_recipients = ?, service_id = ?, updated_at = ?
			 WHERE id = ?`,
			p.SendSlackAlert, p.SendEmail, recipients, p.ServiceID, now, id); err != nil {
			return mapWriteError(err)
		}
		updated, err = findAlertConfiguration(ctx, tx, model.AlertConfigurationFilter{ID: &id})
		if err != nil {
			return err
		}
		return alertConfigurationLedger.open(ctx, tx, id, actorID, updated, reason, now)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListHistories returns alert configuration history rows matching f.
func (r *AlertConfigurationRepo) ListHistories(ctx context.Context, f model.HistoryFilter, win model.Window) (model.Page[model.History], error) {
	return alertConfigurationLedger.list(ctx, r.db, f, win)
}
