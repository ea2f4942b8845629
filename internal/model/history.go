package model

import (
    "encoding/json"
    "time"
)

// History is one configuration interval of an entity.  EndDate stays nil
// while the interval is open; each entity has at most one open interval.
// The username fields come from the customers join and are read-only.
type History struct {
    ID                uint64          `json:"id"`
    EntityID          uint64          `json:"entityId"`
    CreatedBy         uint64          `json:"createdBy"`
    UpdatedBy         *uint64         `json:"updatedBy"`
    Data              json.RawMessage `json:"data"`
    Reason            string          `json:"reason"`
    StartDate         time.Time       `json:"startDate"`
    EndDate           *time.Time      `json:"endDate"`
    CreatedAt         time.Time       `json:"createdAt"`
    UpdatedAt         time.Time       `json:"updatedAt"`
    CreatedByUsername string          `json:"createdByUsername"`
    UpdatedByUsername *string         `json:"updatedByUsername"`
}

// Open reports whether the interval is still current.
func (h *History) Open() bool { return h.EndDate == nil }

// HistoryFilter selects history rows.  Filters combine with AND and a nil
// field matches every row.  ServiceID is only honoured by ledgers whose
// entity carries a service reference.
type HistoryFilter struct {
    ID        *uint64
    EntityID  *uint64
    ServiceID *uint64
    CreatedBy *uint64
}

// Default reasons recorded on the first interval of each entity.
const (
    ReasonServiceCreated            = "New service created"
    ReasonClientCreated             = "New client created"
    ReasonAlertConfigurationCreated = "New alert configuration created"
)
