package model

import "time"

// Service is a logical backend that owns API clients.  Code is generated
// by the system and FriendlyName is the unique human label.
//
// Fields:
//  ID             – primary key identifier.
//  Code           – generated slug (service-<id>-<millis>).
//  FriendlyName   – unique display name.
//  Description    – free text.
//  MaxClientCount – optional cap on owned clients (nil means unlimited).
//  CreatedBy      – customer id of the creator.
type Service struct {
    ID             uint64    `json:"id"`             // services.id
    Code           string    `json:"code"`           // services.code
    FriendlyName   string    `json:"friendlyName"`   // services.friendly_name
    Description    string    `json:"description"`    // services.description
    MaxClientCount *int      `json:"maxClientCount"` // services.max_client_count (nullable)
    CreatedBy      uint64    `json:"createdBy"`      // services.created_by
    CreatedAt      time.Time `json:"createdAt"`      // services.created_at
    UpdatedAt      time.Time `json:"updatedAt"`      // services.updated_at
}

// ServiceFilter selects services.  Nil fields match every row.
type ServiceFilter struct {
    ID           *uint64
    Code         *string
    FriendlyName *string
    CreatedBy    *uint64
}

// ServicePatch carries the post-merge values written by an update.
type ServicePatch struct {
    FriendlyName   string
    Description    string
    MaxClientCount *int
}
