package model

import "time"

// Customer types asserted by the identity provider.
const (
    CustomerAdmin  = "admin"
    CustomerClient = "client"
)

// Customer is an operator or administrator known to the service.  Rows are
// created from identity assertions and refreshed on every authenticated
// request.
//
// Fields:
//  ID               – primary key identifier.
//  Username         – unique login name.
//  EmailAddress     – contact email.
//  NellysCoinUserID – unique id assigned by the identity provider.
//  Status           – account status reported by the identity provider.
//  Type             – admin or client.
//  Language         – preferred language (en, fr).
type Customer struct {
    ID               uint64    `json:"id"`               // customers.id
    Username         string    `json:"username"`         // customers.username
    EmailAddress     string    `json:"emailAddress"`     // customers.email_address
    NellysCoinUserID uint64    `json:"nellysCoinUserId"` // customers.nellys_coin_user_id
    Status           string    `json:"status"`           // customers.status
    Type             string    `json:"type"`             // customers.type
    Language         string    `json:"language"`         // customers.language
    CreatedAt        time.Time `json:"createdAt"`        // customers.created_at
    UpdatedAt        time.Time `json:"updatedAt"`        // customers.updated_at
}

// IsAdmin reports whether the customer carries the admin type.
func (c *Customer) IsAdmin() bool { return c != nil && c.Type == CustomerAdmin }

// CustomerFilter selects customers.  Nil fields match every row.
type CustomerFilter struct {
    ID               *uint64
    Username         *string
    EmailAddress     *string
    NellysCoinUserID *uint64
}

// CustomerPatch carries the post-merge values written by an update.
type CustomerPatch struct {
    Username     string
    EmailAddress string
    Status       string
    Type         string
    Language     string
}

// IdentityAssertion is what the identity provider vouches for about the
// bearer of a token.  CustomerID is the provider's user id.
type IdentityAssertion struct {
    CustomerID        uint64 `json:"customer_id"`
    Username          string `json:"username"`
    EmailAddress      string `json:"email_address"`
    AccountStatus     string `json:"account_status"`
    CustomerType      string `json:"customer_type"`
    PreferredLanguage string `json:"preferred_language"`
}

// IsAdmin reports whether the provider asserted the admin type.
func (a IdentityAssertion) IsAdmin() bool { return a.CustomerType == CustomerAdmin }
