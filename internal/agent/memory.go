package agent

import "math/rand"

// Memory is a fixed capacity replay buffer; once full the oldest
// transition is overwritten.
type Memory struct {
	items []Transition
	next  int
}

func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{items: make([]Transition, 0, capacity)}
}

func (m *Memory) Push(t Transition) {
	if len(m.items) < cap(m.items) {
		m.items = append(m.items, t)
		return
	}
	m.items[m.next] = t
	m.next = (m.next + 1) % len(m.items)
}

func (m *Memory) Len() int { return len(m.items) }

// Sample draws n distinct transitions.
func (m *Memory) Sample(n int, rng *rand.Rand) []Transition {
	n = min(n, len(m.items))
	out := make([]Transition, n)
	for i, j := range rng.Perm(len(m.items))[:n] {
		out[i] = m.items[j]
	}
	return out
}
