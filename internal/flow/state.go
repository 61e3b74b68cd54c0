// Package flow drives the marketplace conversations: the per-user state
// machine behind the sell, buy, admin and support dialogues.
package flow

import "sync"

// FlowState is one user's position in a conversation. Exactly one of the
// concrete state types is active per user at a time.
type FlowState interface {
	flowState()
}

// SellStep enumerates the seller dialogue positions.
type SellStep int

const (
	SellChooseCategory SellStep = iota
	SellChooseSub
	SellDescription
	SellPhotos
	SellPrice
	SellPayments
	SellAwaitPayDetail
	SellContact
)

// SellState accumulates a listing draft across the seller dialogue.
type SellState struct {
	Step          SellStep
	Category      string
	Subcategory   string
	Description   string
	Images        []string
	Price         string
	Methods       []string
	Details       map[string]string
	PendingMethod string // method awaiting its detail answer
}

func (*SellState) flowState() {}

// BuyStep enumerates the buyer dialogue positions.
type BuyStep int

const (
	BuyChooseCategory BuyStep = iota
	BuyChooseSub
	BuyChoosePayment
	BuyAwaitProof
	BuyAwaitContact
)

// BuyState accumulates an order draft across the buyer dialogue.
type BuyState struct {
	Step        BuyStep
	Category    string
	Subcategory string
	ListingID   uint
	Method      string
	ProofID     string
}

func (*BuyState) flowState() {}

// AdminStep enumerates the operator dialogue positions.
type AdminStep int

const (
	AdminMenu AdminStep = iota
	AdminFindListing
	AdminFindOrder
)

// AdminState tracks the operator's position in the admin menu.
type AdminState struct {
	Step AdminStep
}

func (*AdminState) flowState() {}

// SupportState marks a user composing a support message.
type SupportState struct{}

func (*SupportState) flowState() {}

// ConversationStore holds the active conversation state per user. Safe for
// concurrent use.
type ConversationStore struct {
	mu     sync.Mutex
	states map[int64]FlowState
}

// NewConversationStore creates an empty ConversationStore.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{states: make(map[int64]FlowState)}
}

// Get returns the user's active state, or nil if the user is idle.
func (c *ConversationStore) Get(actorID int64) FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[actorID]
}

// Put replaces the user's active state.
func (c *ConversationStore) Put(actorID int64, state FlowState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[actorID] = state
}

// Reset clears the user's state, returning them to idle.
func (c *ConversationStore) Reset(actorID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, actorID)
}

// Active returns the number of users mid-conversation.
func (c *ConversationStore) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}
