package ticket

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// MemoryStore is a mutex-guarded in-memory ticket store. Data is lost when
// the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*memoryEntry
	nextSeq uint64
}

// memoryEntry pairs a ticket with an insertion sequence so listing stays
// newest-first even when creation timestamps collide.
type memoryEntry struct {
	ticket *protocol.Ticket
	seq    uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Create(data protocol.TicketCreate) (*protocol.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &protocol.Ticket{
		ID:          uuid.NewString(),
		Title:       data.Title,
		Description: data.Description,
		Created:     time.Now().UTC(),
		Status:      protocol.TicketOpen,
	}
	s.nextSeq++
	s.tickets[t.ID] = &memoryEntry{ticket: t, seq: s.nextSeq}
	return copyTicket(t), nil
}

func (s *MemoryStore) Get(id string) (*protocol.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTicket(entry.ticket), nil
}

func (s *MemoryStore) List(status *protocol.TicketStatus) ([]*protocol.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*memoryEntry, 0, len(s.tickets))
	for _, entry := range s.tickets {
		if status != nil && entry.ticket.Status != *status {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	tickets := make([]*protocol.Ticket, len(entries))
	for i, entry := range entries {
		tickets[i] = copyTicket(entry.ticket)
	}
	return tickets, nil
}

func (s *MemoryStore) Update(id string, upd protocol.TicketUpdate) (*protocol.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := checkResolution(entry.ticket, upd); err != nil {
		return nil, err
	}
	entry.ticket = applyUpdate(entry.ticket, upd)
	return copyTicket(entry.ticket), nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(s.tickets, id)
	return nil
}

func copyTicket(t *protocol.Ticket) *protocol.Ticket {
	c := *t
	if t.Resolution != nil {
		resolution := *t.Resolution
		c.Resolution = &resolution
	}
	return &c
}
