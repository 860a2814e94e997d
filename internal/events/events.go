package events

import (
	"sync"
	"time"
)

// Type names a change event
type Type string

const (
	SaleCompleted    Type = "sale.completed"
	SaleCanceled     Type = "sale.canceled"
	ShiftStarted     Type = "shift.started"
	ShiftClosed      Type = "shift.closed"
	ExpenseAdded     Type = "expense.added"
	StockChanged     Type = "stock.changed"
	CustomerChanged  Type = "customer.changed"
	SupplierChanged  Type = "supplier.changed"
	PaymentAdded     Type = "payment.added"
	PurchaseAdded    Type = "purchase.added"
	CatalogChanged   Type = "catalog.changed"
	ShopInfoChanged  Type = "shop.changed"
	BackupExported   Type = "backup.exported"
	BackupRestored   Type = "backup.restored"
	ConnectionOpened Type = "connection.opened"
)

// Event carries the entity that changed so subscribers do not re-list tables
type Event struct {
	Type      Type        `json:"type"`
	Entity    string      `json:"entity,omitempty"`
	ID        int64       `json:"id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// New creates an event stamped now
func New(t Type, entity string, id int64, data interface{}) Event {
	return Event{
		Type:      t,
		Entity:    entity,
		ID:        id,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Publisher accepts change events. Publish must not block the caller.
type Publisher interface {
	Publish(event Event)
}

// Nop discards every event
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(Event) {}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher
func (r *Recorder) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order
func (r *Recorder) Types() []Type {
	events := r.Events()
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
