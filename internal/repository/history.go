package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// ledger is the shadow history table of one entity type.  Each entity has
// at most one open row (end_date IS NULL); open and close are only called
// inside the transaction that mutates the entity.
type ledger struct {
	table      string // history table, e.g. service_histories
	fk         string // column referencing the entity, e.g. service_id
	parent     string // entity table
	serviceCol string // parent column holding a service id; empty when the parent is services
}

var (
	serviceLedger            = ledger{table: "service_histories", fk: "service_id", parent: "services"}
	clientLedger             = ledger{table: "client_histories", fk: "client_id", parent: "clients", serviceCol: "service_id"}
	alertConfigurationLedger = ledger{table: "alert_configuration_histories", fk: "alert_configuration_id", parent: "alert_configurations", serviceCol: "service_id"}
)

// open inserts a new current interval holding a snapshot of the entity.
func (l ledger) open(ctx context.Context, tx *sql.Tx, entityID, createdBy uint64, snapshot any, reason string, now time.Time) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", l.parent, err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s, created_by, data, reason, start_date, created_at, updated_at)
	                  VALUES (?, ?, ?, ?, ?, ?, ?)`, l.table, l.fk)
	_, err = tx.ExecContext(ctx, q, entityID, createdBy, data, reason, now, now, now)
	return err
}

// close ends the current interval of entityID, if any.
func (l ledger) close(ctx context.Context, tx *sql.Tx, entityID, updatedBy uint64, now time.Time) error {
	q := fmt.Sprintf(`UPDATE %s SET end_date = ?, updated_by = ?, updated_at = ?
	                  WHERE %s = ? AND end_date IS NULL`, l.table, l.fk)
	_, err := tx.ExecContext(ctx, q, now, updatedBy, now, entityID)
	return err
}

// list returns history rows joined with the creating and closing
// customers, newest interval first.
func (l ledger) list(ctx context.Context, db queryer, f model.HistoryFilter, win model.Window) (model.Page[model.History], error) {
	from := fmt.Sprintf(` FROM %s h
	    INNER JOIN customers c1 ON c1.id = h.created_by
	    LEFT JOIN customers c2 ON c2.id = h.updated_by`, l.table)

	var w where
	eq(&w, "h.id", f.ID)
	eq(&w, "h."+l.fk, f.EntityID)
	eq(&w, "h.created_by", f.CreatedBy)
	if f.ServiceID != nil {
		if l.serviceCol == "" {
			eq(&w, "h."+l.fk, f.ServiceID)
		} else {
			from += fmt.Sprintf(" INNER JOIN %s p ON p.id = h.%s", l.parent, l.fk)
			eq(&w, "p."+l.serviceCol, f.ServiceID)
		}
	}

	total, err := countRows(ctx, db, "SELECT COUNT(*)"+from+w.String(), w.args...)
	if err != nil {
		return model.Page[model.History]{}, err
	}

	q := fmt.Sprintf(`SELECT h.id, h.%s, h.created_by, h.updated_by, h.data, h.reason, h.start_date, h.end_date,
	        h.created_at, h.updated_at, c1.username, c2.username`, l.fk) +
		from + w.String() + " ORDER BY h.start_date DESC, h.id DESC LIMIT ? OFFSET ?"
	rows, err := db.QueryContext(ctx, q, w.with(win.Limit, win.Offset)...)
	if err != nil {
		return model.Page[model.History]{}, err
	}
	defer rows.Close()

	var out []model.History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return model.Page[model.History]{}, err
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.History]{}, err
	}
	return model.NewPage(out, total), nil
}

func scanHistory(s rowScanner) (*model.History, error) {
	var (
		h         model.History
		updatedBy sql.NullInt64
		endDate   sql.NullTime
		updater   sql.NullString
		data      []byte
	)
	if err := s.Scan(&h.ID, &h.EntityID, &h.CreatedBy, &updatedBy, &data, &h.Reason, &h.StartDate, &endDate,
		&h.CreatedAt, &h.UpdatedAt, &h.CreatedByUsername, &updater); err != nil {
		return nil, err
	}
	if updatedBy.Valid {
		v := uint64(updatedBy.Int64)
		h.UpdatedBy = &v
	}
	if endDate.Valid {
		t := endDate.Time
		h.EndDate = &t
	}
	if updater.Valid {
		u := updater.String
		h.UpdatedByUsername = &u
	}
	h.Data = json.RawMessage(data)
	return &h, nil
}
