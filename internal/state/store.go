package state

import (
	"time"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// DefaultTTL is how long any entry survives before a sweep may remove it.
const DefaultTTL = time.Hour

// Index names, also used as metric labels.
const (
	IndexPending   = "pending"
	IndexMappings  = "mappings"
	IndexThreads   = "threads"
	IndexOriginals = "originals"
	IndexChoices   = "choices"
	IndexMarkers   = "markers"
)

// MarkerKey identifies a (message, user) comment marker.
type MarkerKey struct {
	MessageID string
	UserID    string
}

// Store groups the workflow indexes and sweeps them together.
type Store struct {
	Pending   *Index[string, domain.PendingCompose]  // cache id
	Mappings  *Index[string, domain.DispatchMapping] // published message id
	Threads   *Index[string, []domain.Comment]       // published message id
	Originals *Index[string, string]                 // published message id
	Choices   *Index[string, domain.MessageType]     // sender id
	Markers   *Index[MarkerKey, struct{}]

	clock Clock
	ttl   time.Duration
}

// NewStore builds an empty Store. A ttl <= 0 selects DefaultTTL.
func NewStore(clock Clock, ttl time.Duration) *Store {
	if clock == nil {
		clock = SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		Pending:   NewIndex[string, domain.PendingCompose](IndexPending, clock),
		Mappings:  NewIndex[string, domain.DispatchMapping](IndexMappings, clock),
		Threads:   NewIndex[string, []domain.Comment](IndexThreads, clock),
		Originals: NewIndex[string, string](IndexOriginals, clock),
		Choices:   NewIndex[string, domain.MessageType](IndexChoices, clock),
		Markers:   NewIndex[MarkerKey, struct{}](IndexMarkers, clock),
		clock:     clock,
		ttl:       ttl,
	}
}

// Clock returns the clock entries are stamped with.
func (s *Store) Clock() Clock { return s.clock }

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// HasCommented reports whether userID already commented on messageID.
func (s *Store) HasCommented(messageID, userID string) bool {
	return s.Markers.Has(MarkerKey{MessageID: messageID, UserID: userID})
}

// MarkCommented writes the marker for (messageID, userID) unless one
// exists. It returns false when the user had already commented.
func (s *Store) MarkCommented(messageID, userID string) bool {
	return s.Markers.PutIfAbsent(MarkerKey{MessageID: messageID, UserID: userID}, struct{}{})
}

// AppendComment adds c to the thread of messageID. The thread keeps the
// creation time of its first comment. The returned slice is a fresh copy.
func (s *Store) AppendComment(messageID string, c domain.Comment) []domain.Comment {
	return s.Threads.Update(messageID, func(cur []domain.Comment, _ bool) []domain.Comment {
		next := make([]domain.Comment, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, c)
	})
}

// Comments returns the thread for messageID, oldest first.
func (s *Store) Comments(messageID string) []domain.Comment {
	cs, _ := s.Threads.Get(messageID)
	return cs
}

// SweepResult counts removed entries per index.
type SweepResult map[string]int

// Total sums the removals across indexes.
func (r SweepResult) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// SweepExpired removes every entry older than the store TTL as of now.
func (s *Store) SweepExpired(now time.Time) SweepResult {
	return SweepResult{
		IndexPending:   s.Pending.Sweep(now, s.ttl),
		IndexMappings:  s.Mappings.Sweep(now, s.ttl),
		IndexThreads:   s.Threads.Sweep(now, s.ttl),
		IndexOriginals: s.Originals.Sweep(now, s.ttl),
		IndexChoices:   s.Choices.Sweep(now, s.ttl),
		IndexMarkers:   s.Markers.Sweep(now, s.ttl),
	}
}

// Sizes reports the current entry count of each index.
func (s *Store) Sizes() map[string]int {
	return map[string]int{
		IndexPending:   s.Pending.Len(),
		IndexMappings:  s.Mappings.Len(),
		IndexThreads:   s.Threads.Len(),
		IndexOriginals: s.Originals.Len(),
		IndexChoices:   s.Choices.Len(),
		IndexMarkers:   s.Markers.Len(),
	}
}
