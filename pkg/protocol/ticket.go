package protocol

import (
	"fmt"
	"time"
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "OPEN"
	TicketResolved TicketStatus = "RESOLVED"
	TicketClosed   TicketStatus = "CLOSED"
)

// Valid reports whether s is one of the declared statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// Ticket is a support ticket record.
type Ticket struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Created     time.Time    `json:"created"`
	Status      TicketStatus `json:"status"`
	Resolution  *string      `json:"resolution,omitempty"`
}

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxResolutionLen  = 2000
)

// TicketCreate is the payload for creating a ticket.
type TicketCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks field length constraints.
func (c TicketCreate) Validate() error {
	if len(c.Title) < 1 || len(c.Title) > maxTitleLen {
		return fmt.Errorf("title must be 1-%d characters", maxTitleLen)
	}
	if len(c.Description) < 1 || len(c.Description) > maxDescriptionLen {
		return fmt.Errorf("description must be 1-%d characters", maxDescriptionLen)
	}
	return nil
}

// TicketUpdate is a partial-update payload. Nil fields are left unchanged.
type TicketUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *TicketStatus `json:"status,omitempty"`
	Resolution  *string       `json:"resolution,omitempty"`
}

// Validate checks field constraints on the provided fields only.
func (u TicketUpdate) Validate() error {
	if u.Title != nil && (len(*u.Title) < 1 || len(*u.Title) > maxTitleLen) {
		return fmt.Errorf("title must be 1-%d characters", maxTitleLen)
	}
	if u.Description != nil && (len(*u.Description) < 1 || len(*u.Description) > maxDescriptionLen) {
		return fmt.Errorf("description must be 1-%d characters", maxDescriptionLen)
	}
	if u.Resolution != nil && len(*u.Resolution) > maxResolutionLen {
		return fmt.Errorf("resolution must be at most %d characters", maxResolutionLen)
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("status must be one of OPEN, RESOLVED, CLOSED")
	}
	return nil
}
