package chat

// Store is the merged, ordered, duplicate-free message sequence for one
// target activation. It is owned by the reducer state and only ever touched
// on the actor loop, so it carries no locks. Switching targets drops the
// whole Store and creates a fresh one; old generations are never garbage
// collected entry by entry.
//
// Ordering: history seeds arrive oldest to newest and live messages are
// applied in delivery order, so entries keep their arrival order. When a seed
// lands after live messages were already applied (history fetch and channel
// dial run concurrently), the seed replaces the sequence and the prior
// entries not contained in the snapshot are re-appended in their original
// order.
type Store struct {
	entries []Message
	index   map[string]int
	version uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Version increments on every visible mutation. The client facade uses it to
// detect changes cheaply.
func (s *Store) Version() uint64 { return s.version }

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Current returns the ordered message sequence as a copy.
func (s *Store) Current() []Message {
	out := make([]Message, len(s.entries))
	copy(out, s.entries)
	return out
}

// Seed replaces the sequence with the history snapshot. Entries already
// present (live messages or optimistic inserts that raced the fetch) are
// retained: snapshot ids win, unseen prior entries are re-appended in their
// original order.
func (s *Store) Seed(history []Message) {
	prior := s.entries
	s.entries = nil
	s.index = make(map[string]int, len(history)+len(prior))

	for _, msg := range history {
		if msg.Delivery == "" {
			msg.Delivery = DeliverySent
		}
		s.add(msg)
	}
	for _, msg := range prior {
		s.add(msg)
	}
	s.version++
}

// Append adds one live inbound message at the tail. A message whose id is
// already present is dropped (idempotent re-delivery) and Append reports
// false.
func (s *Store) Append(msg Message) bool {
	if msg.Delivery == "" {
		msg.Delivery = DeliverySent
	}
	if !s.add(msg) {
		return false
	}
	s.version++
	return true
}

// InsertOptimistic adds a locally-originated message at the tail in the
// pending state.
func (s *Store) InsertOptimistic(msg Message) {
	msg.Delivery = DeliveryPending
	msg.Local = true
	if s.add(msg) {
		s.version++
	}
}

// Reconcile replaces the optimistic entry identified by localID with its
// server-confirmed counterpart, keeping its display position. It reports
// false when no entry with localID exists (already reconciled or foreign
// echo); callers then fall back to Append, whose id dedup silently drops
// idempotent re-deliveries.
func (s *Store) Reconcile(localID string, server Message) bool {
	idx, ok := s.index[localID]
	if !ok {
		return false
	}
	if server.ID == "" {
		server.ID = localID
	}
	if server.Timestamp.IsZero() {
		server.Timestamp = s.entries[idx].Timestamp
	}
	server.Delivery = DeliverySent
	server.Local = true

	delete(s.index, localID)
	if prev, exists := s.index[server.ID]; exists && prev != idx {
		// The server copy was already applied through Append; collapse the
		// optimistic duplicate instead of keeping both.
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		s.reindex()
		s.version++
		return true
	}
	s.entries[idx] = server
	s.index[server.ID] = idx
	s.version++
	return true
}

// ReconcileEcho matches a server echo that carries no local id against the
// oldest pending entry with the same sender and text. It returns the matched
// local id.
func (s *Store) ReconcileEcho(server Message) (string, bool) {
	for _, entry := range s.entries {
		if entry.Delivery == DeliveryPending && entry.SenderID == server.SenderID && entry.Text == server.Text {
			localID := entry.ID
			return localID, s.Reconcile(localID, server)
		}
	}
	return "", false
}

// MarkFailed transitions a pending entry to failed. Entries that were already
// reconciled or failed are left alone.
func (s *Store) MarkFailed(localID string) bool {
	idx, ok := s.index[localID]
	if !ok || s.entries[idx].Delivery != DeliveryPending {
		return false
	}
	s.entries[idx].Delivery = DeliveryFailed
	s.version++
	return true
}

// HasPending reports whether localID names a pending optimistic entry.
func (s *Store) HasPending(localID string) bool {
	idx, ok := s.index[localID]
	return ok && s.entries[idx].Delivery == DeliveryPending
}

// add appends msg unless its id is already present.
func (s *Store) add(msg Message) bool {
	if msg.ID == "" {
		return false
	}
	if _, exists := s.index[msg.ID]; exists {
		return false
	}
	s.index[msg.ID] = len(s.entries)
	s.entries = append(s.entries, msg)
	return true
}

// reindex rebuilds the id index after a removal.
func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.entries))
	for i, entry := range s.entries {
		s.index[entry.ID] = i
	}
}
