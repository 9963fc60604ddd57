package session

import (
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in the conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LineItem is a named, priced unit appended to the cart.
type LineItem struct {
	Name      string    `json:"name"`
	Price     int       `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderRecord captures a transactional turn for the order history.
type OrderRecord struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
}

// MemoryEntry is a single preference note remembered about the user.
type MemoryEntry struct {
	Info      string    `json:"info"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the per-conversation record owned exclusively by the turn
// pipeline for the duration of a turn. History, cart, order history and
// user memory are append-only; Location is set at most once by the
// normal flow. CartTotal must always equal the sum of Cart item prices.
type State struct {
	ID            string                 `json:"id"`
	History       []Turn                 `json:"history"`
	Location      string                 `json:"location,omitempty"`
	LocationAsked bool                   `json:"location_asked"`
	Welcomed      bool                   `json:"welcomed"`
	GreetingCount int                    `json:"greeting_count"`
	Cart          []LineItem             `json:"cart"`
	CartTotal     int                    `json:"cart_total"`
	OrderHistory  []OrderRecord          `json:"order_history"`
	UserMemory    map[string]MemoryEntry `json:"user_memory"`
	MemorySeq     int                    `json:"memory_seq"`
}

// New returns an empty session state for the given conversation.
func New(id string) *State {
	return &State{
		ID:         id,
		History:    []Turn{},
		Cart:       []LineItem{},
		UserMemory: map[string]MemoryEntry{},
	}
}

// AppendTurn appends one turn to the conversation history.
func (s *State) AppendTurn(role Role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
}

// PrecedingAssistantTurn returns the turn immediately before the current
// user utterance (already appended), but only when the assistant authored
// it. Earlier history is deliberately not searched.
func (s *State) PrecedingAssistantTurn() (Turn, bool) {
	if n := len(s.History); n >= 2 && s.History[n-2].Role == RoleAssistant {
		return s.History[n-2], true
	}
	return Turn{}, false
}

// AddItem appends a line item and updates the running total in the same
// step so the total can never drift from the item list.
func (s *State) AddItem(name string, price int, ts time.Time) {
	s.Cart = append(s.Cart, LineItem{Name: name, Price: price, Timestamp: ts})
	s.CartTotal += price
}

// SumCart recomputes the cart total from the item list.
func (s *State) SumCart() int {
	total := 0
	for _, it := range s.Cart {
		total += it.Price
	}
	return total
}

// RepairTotal recomputes CartTotal from the item list and reports whether
// the stored value had drifted. The item list is the source of truth.
func (s *State) RepairTotal() bool {
	total := s.SumCart()
	drifted := total != s.CartTotal
	s.CartTotal = total
	return drifted
}

// Clone returns a deep copy. Turns operate on a clone and persist it only
// on commit, so a cancelled or failed turn leaves the stored state untouched.
func (s *State) Clone() *State {
	c := &State{
		ID:            s.ID,
		History:       make([]Turn, len(s.History)),
		Location:      s.Location,
		LocationAsked: s.LocationAsked,
		Welcomed:      s.Welcomed,
		GreetingCount: s.GreetingCount,
		Cart:          make([]LineItem, len(s.Cart)),
		CartTotal:     s.CartTotal,
		OrderHistory:  make([]OrderRecord, len(s.OrderHistory)),
		UserMemory:    make(map[string]MemoryEntry, len(s.UserMemory)),
		MemorySeq:     s.MemorySeq,
	}
	copy(c.History, s.History)
	copy(c.Cart, s.Cart)
	copy(c.OrderHistory, s.OrderHistory)
	for k, v := range s.UserMemory {
		c.UserMemory[k] = v
	}
	return c
}
