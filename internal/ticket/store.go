// Package ticket provides the ticket stores backing the REST API.
package ticket

import (
	"errors"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// ErrNotFound is returned when no ticket exists with the requested ID.
var ErrNotFound = errors.New("ticket not found")

// ErrResolutionRequired is returned when an update moves a ticket to
// RESOLVED without a resolution note, new or already stored.
var ErrResolutionRequired = errors.New("resolution is required when setting status to RESOLVED")

// Store is the persistence interface for tickets.
type Store interface {
	// Create stores a new ticket with a generated ID, OPEN status, and
	// the current timestamp.
	Create(data protocol.TicketCreate) (*protocol.Ticket, error)
	// Get retrieves a ticket by ID.
	Get(id string) (*protocol.Ticket, error)
	// List returns tickets newest-created first, optionally filtered by status.
	List(status *protocol.TicketStatus) ([]*protocol.Ticket, error)
	// Update applies the non-nil fields of upd to an existing ticket.
	Update(id string, upd protocol.TicketUpdate) (*protocol.Ticket, error)
	// Delete removes a ticket by ID.
	Delete(id string) error
}

// checkResolution enforces the single cross-field invariant: a transition
// to RESOLVED needs a resolution note on the update or on the stored ticket.
func checkResolution(existing *protocol.Ticket, upd protocol.TicketUpdate) error {
	if upd.Status == nil || *upd.Status != protocol.TicketResolved {
		return nil
	}
	if upd.Resolution == nil && existing.Resolution == nil {
		return ErrResolutionRequired
	}
	return nil
}

// applyUpdate returns a copy of existing with the non-nil fields of upd applied.
func applyUpdate(existing *protocol.Ticket, upd protocol.TicketUpdate) *protocol.Ticket {
	t := *existing
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Resolution != nil {
		resolution := *upd.Resolution
		t.Resolution = &resolution
	}
	return &t
}
