package model

import "time"

// AlertConfiguration holds alerting preferences.  A nil ServiceID marks the
// default configuration; every other row is scoped to one service.
type AlertConfiguration struct {
    ID                     uint64    `json:"id"`                     // alert_configurations.id
    SendSlackAlert         bool      `json:"sendSlackAlert"`         // alert_configurations.send_slack_alert
    SendEmail              bool      `json:"sendEmail"`              // alert_configurations.send_email
    EmailAddressRecipients []string  `json:"emailAddressRecipients"` // alert_configurations.email_address_recipients (JSON array)
    ServiceID              *uint64   `json:"serviceId"`              // alert_configurations.service_id (nullable)
    CreatedBy              uint64    `json:"createdBy"`              // alert_configurations.created_by
    CreatedAt              time.Time `json:"createdAt"`              // alert_configurations.created_at
    UpdatedAt              time.Time `json:"updatedAt"`              // alert_configurations.updated_at
}

// AlertConfigurationFilter selects alert configurations.  Nil fields match
// every row; DefaultOnly restricts the match to rows without a service.
type AlertConfigurationFilter struct {
    ID             *uint64
    ServiceID      *uint64
    DefaultOnly    bool
    CreatedBy      *uint64
    SendSlackAlert *bool
    SendEmail      *bool
}

// AlertConfigurationPatch carries the post-merge values written by an update.
type AlertConfigurationPatch struct {
    SendSlackAlert         bool
    SendEmail              bool
    EmailAddressRecipients []string
    ServiceID              *uint64
}
