package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ticketd-io/ticketd/internal/client"
	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// TicketAPI abstracts the ticketing client so tools can be tested without
// a live service.
type TicketAPI interface {
	CreateTicket(ctx context.Context, title, description string) client.Result
	ListTickets(ctx context.Context, status string) client.Result
	GetTicket(ctx context.Context, ticketID string) client.Result
	UpdateTicket(ctx context.Context, ticketID string, upd protocol.TicketUpdate) client.Result
	DeleteTicket(ctx context.Context, ticketID string) client.Result
}

// RegisterTicketTools registers the five ticket tools against api.
func RegisterTicketTools(reg *Registry, api TicketAPI) {
	reg.Register(&CreateTicketTool{API: api})
	reg.Register(&ListTicketsTool{API: api})
	reg.Register(&GetTicketTool{API: api})
	reg.Register(&UpdateTicketTool{API: api})
	reg.Register(&DeleteTicketTool{API: api})
}

var statusEnum = []string{"OPEN", "RESOLVED", "CLOSED"}

// decodeArgs converts the model-supplied argument map into a typed struct.
// A mistyped value surfaces as a decode error.
func decodeArgs(params map[string]any, v any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("invalid arguments: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %v", err)
	}
	return nil
}

// argFailure folds an argument problem into the same uniform failure shape
// as any other tool error.
func argFailure(toolName, msg string) string {
	return client.Fail(nil, fmt.Sprintf("%s: %s", toolName, msg)).String()
}

// --- create_ticket ---

// CreateTicketTool creates a new support ticket.
type CreateTicketTool struct {
	API TicketAPI
}

type createTicketArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (t *CreateTicketTool) Name() string { return "create_ticket" }

func (t *CreateTicketTool) Description() string {
	return "Create a new support ticket in the system"
}

func (t *CreateTicketTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Brief summary of the issue (max 200 characters)",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Detailed explanation of the problem",
			},
		},
		"required": []string{"title", "description"},
	}
}

func (t *CreateTicketTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	var args createTicketArgs
	if err := decodeArgs(params, &args); err != nil {
		return argFailure(t.Name(), err.Error()), nil
	}
	if args.Title == "" {
		return argFailure(t.Name(), `missing required parameter "title"`), nil
	}
	if args.Description == "" {
		return argFailure(t.Name(), `missing required parameter "description"`), nil
	}
	return t.API.CreateTicket(ctx, args.Title, args.Description).String(), nil
}

// --- list_tickets ---

// ListTicketsTool lists tickets, optionally filtered by status.
type ListTicketsTool struct {
	API TicketAPI
}

type listTicketsArgs struct {
	Status string `json:"status"`
}

func (t *ListTicketsTool) Name() string { return "list_tickets" }

func (t *ListTicketsTool) Description() string {
	return "List all tickets, optionally filtered by status"
}

func (t *ListTicketsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type":        "string",
				"enum":        statusEnum,
				"description": "Filter tickets by status (optional)",
			},
		},
		"required": []string{},
	}
}

func (t *ListTicketsTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	var args listTicketsArgs
	if err := decodeArgs(params, &args); err != nil {
		return argFailure(t.Name(), err.Error()), nil
	}
	return t.API.ListTickets(ctx, args.Status).String(), nil
}

// --- get_ticket ---

// GetTicketTool fetches one ticket by ID.
type GetTicketTool struct {
	API TicketAPI
}

type getTicketArgs struct {
	TicketID string `json:"ticket_id"`
}

func (t *GetTicketTool) Name() string { return "get_ticket" }

func (t *GetTicketTool) Description() string {
	return "Get details of a specific ticket by its ID"
}

func (t *GetTicketTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticket_id": map[string]any{
				"type":        "string",
				"description": "The unique identifier (UUID) of the ticket",
			},
		},
		"required": []string{"ticket_id"},
	}
}

func (t *GetTicketTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	var args getTicketArgs
	if err := decodeArgs(params, &args); err != nil {
		return argFailure(t.Name(), err.Error()), nil
	}
	if args.TicketID == "" {
		return argFailure(t.Name(), `missing required parameter "ticket_id"`), nil
	}
	return t.API.GetTicket(ctx, args.TicketID).String(), nil
}

// --- update_ticket ---

// UpdateTicketTool applies a partial update to a ticket.
type UpdateTicketTool struct {
	API TicketAPI
}

type updateTicketArgs struct {
	TicketID    string  `json:"ticket_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Resolution  *string `json:"resolution"`
}

func (t *UpdateTicketTool) Name() string { return "update_ticket" }

func (t *UpdateTicketTool) Description() string {
	return "Update an existing ticket's title, description, status, or resolution."
}

func (t *UpdateTicketTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticket_id": map[string]any{
				"type":        "string",
				"description": "The unique identifier (UUID) of the ticket to update",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "New title for the ticket (optional)",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "New description for the ticket (optional)",
			},
			"status": map[string]any{
				"type":        "string",
				"enum":        statusEnum,
				"description": "New status: OPEN, RESOLVED, or CLOSED",
			},
			"resolution": map[string]any{
				"type":        "string",
				"description": "Resolution notes (required when status is RESOLVED)",
			},
		},
		"required": []string{"ticket_id"},
	}
}

func (t *UpdateTicketTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	var args updateTicketArgs
	if err := decodeArgs(params, &args); err != nil {
		return argFailure(t.Name(), err.Error()), nil
	}
	if args.TicketID == "" {
		return argFailure(t.Name(), `missing required parameter "ticket_id"`), nil
	}

	upd := protocol.TicketUpdate{
		Title:       args.Title,
		Description: args.Description,
		Resolution:  args.Resolution,
	}
	if args.Status != nil {
		status := protocol.TicketStatus(*args.Status)
		upd.Status = &status
	}
	return t.API.UpdateTicket(ctx, args.TicketID, upd).String(), nil
}

// --- delete_ticket ---

// DeleteTicketTool deletes a ticket.
type DeleteTicketTool struct {
	API TicketAPI
}

type deleteTicketArgs struct {
	TicketID string `json:"ticket_id"`
}

func (t *DeleteTicketTool) Name() string { return "delete_ticket" }

func (t *DeleteTicketTool) Description() string {
	return "Delete a ticket from the system"
}

func (t *DeleteTicketTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticket_id": map[string]any{
				"type":        "string",
				"description": "The unique identifier (UUID) of the ticket to delete",
			},
		},
		"required": []string{"ticket_id"},
	}
}

func (t *DeleteTicketTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	var args deleteTicketArgs
	if err := decodeArgs(params, &args); err != nil {
		return argFailure(t.Name(), err.Error()), nil
	}
	if args.TicketID == "" {
		return argFailure(t.Name(), `missing required parameter "ticket_id"`), nil
	}
	return t.API.DeleteTicket(ctx, args.TicketID).String(), nil
}
