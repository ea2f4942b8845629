package model

import (
    "net"
    "strings"
    "time"
)

// ClientScope is the channel a credential is issued for.
type ClientScope string

const (
    ScopeWeb          ClientScope = "WEB"
    ScopeMobile       ClientScope = "MOBILE"
    ScopeMicroservice ClientScope = "MICROSERVICE"
)

// ParseClientScope matches s case-insensitively against the known scopes.
func ParseClientScope(s string) (ClientScope, bool) {
    switch ClientScope(strings.ToUpper(strings.TrimSpace(s))) {
    case ScopeWeb:
        return ScopeWeb, true
    case ScopeMobile:
        return ScopeMobile, true
    case ScopeMicroservice:
        return ScopeMicroservice, true
    }
    return "", false
}

// ClientStatus is the administrative state of a client credential.
type ClientStatus string

const (
    ClientActive  ClientStatus = "ACTIVE"
    ClientBlocked ClientStatus = "BLOCKED"
    ClientExpired ClientStatus = "EXPIRED"
)

// ParseClientStatus matches s case-insensitively against the known statuses.
func ParseClientStatus(s string) (ClientStatus, bool) {
    switch ClientStatus(strings.ToUpper(strings.TrimSpace(s))) {
    case ClientActive:
        return ClientActive, true
    case ClientBlocked:
        return ClientBlocked, true
    case ClientExpired:
        return ClientExpired, true
    }
    return "", false
}

// Client is an API credential bound to a service.  SecretKey holds the
// bcrypt hash and is never serialized.
type Client struct {
    ID                 uint64       `json:"id"`                 // clients.id
    PublicID           string       `json:"publicId"`           // clients.public_id
    SecretKey          string       `json:"-"`                  // clients.secret_key (bcrypt hash)
    FriendlyName       string       `json:"friendlyName"`       // clients.friendly_name
    Scope              ClientScope  `json:"scope"`              // clients.scope
    ServiceID          uint64       `json:"serviceId"`          // clients.service_id
    Status             ClientStatus `json:"status"`             // clients.status
    ShouldExpire       bool         `json:"shouldExpire"`       // clients.should_expire
    ExpiresAt          *time.Time   `json:"expiresAt"`          // clients.expires_at (nullable)
    ShouldApplyIPCheck bool         `json:"shouldApplyIPCheck"` // clients.should_apply_ip_check
    IPWhitelist        []string     `json:"ipWhitelist"`        // clients.ip_whitelist (JSON array)
    WasRegenerated     bool         `json:"wasRegenerated"`     // clients.was_regenerated
    CreatedBy          uint64       `json:"createdBy"`          // clients.created_by
    CreatedAt          time.Time    `json:"createdAt"`          // clients.created_at
    UpdatedAt          time.Time    `json:"updatedAt"`          // clients.updated_at
}

// Expired reports whether the credential has an expiry in the past.
func (c *Client) Expired(now time.Time) bool {
    if c.Status == ClientExpired {
        return true
    }
    return c.ShouldExpire && c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// AllowsIP reports whether ip passes the whitelist.  Clients without the
// IP check accept every address.
func (c *Client) AllowsIP(ip string) bool {
    if !c.ShouldApplyIPCheck {
        return true
    }
    parsed := net.ParseIP(strings.TrimSpace(ip))
    if parsed == nil {
        return false
    }
    for _, allowed := range c.IPWhitelist {
        if a := net.ParseIP(allowed); a != nil && a.Equal(parsed) {
            return true
        }
    }
    return false
}

// IssuedClient is returned once, at creation, with the plaintext secret.
type IssuedClient struct {
    *Client
    SecretKey string `json:"secretKey"`
}

// ClientFilter selects clients.  Nil fields match every row.
type ClientFilter struct {
    ID           *uint64
    PublicID     *string
    FriendlyName *string
    ServiceID    *uint64
    Scope        *ClientScope
}

// ClientPatch carries the post-merge values written by an update.
type ClientPatch struct {
    FriendlyName       string
    Scope              ClientScope
    ServiceID          uint64
    Status             ClientStatus
    ShouldExpire       bool
    ExpiresAt          *time.Time
    ShouldApplyIPCheck bool
    IPWhitelist        []string
}
