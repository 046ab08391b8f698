package wallet

import "sync"

// Sequencer issues strictly increasing nonces for a single account. It's a
// lock around transaction creation and submission: while it's held nobody
// else can obtain a nonce for the same account, so overlapping sends never
// reuse one. Next, Commit and Reset must only be called with the lock held.
type Sequencer struct {
	mu    sync.Mutex
	next  uint64
	known bool
}

// Lock acquires exclusive right to issue the next nonce.
func (s *Sequencer) Lock() {
	s.mu.Lock()
}

// Unlock releases the sequencer.
func (s *Sequencer) Unlock() {
	s.mu.Unlock()
}

// Next returns the nonce to be used for the next transaction given the
// transaction count reported by the node. Locally issued nonces take
// precedence if the node hasn't seen them yet.
func (s *Sequencer) Next(fromNode uint64) uint64 {
	if s.known && s.next > fromNode {
		return s.next
	}
	return fromNode
}

// Commit records that nonce n was accepted by the node.
func (s *Sequencer) Commit(n uint64) {
	s.next = n + 1
	s.known = true
}

// Reset drops local state, the next nonce will be taken from the node.
func (s *Sequencer) Reset() {
	s.next = 0
	s.known = false
}
