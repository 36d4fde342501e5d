package combat

import "math/rand"

// Initiative is the round-robin turn order. The front entity acts next;
// after acting it goes to the back.
type Initiative struct {
	order []Handle
}

// Shuffle replaces the rotation with a random permutation of handles.
func (q *Initiative) Shuffle(handles []Handle, rng *rand.Rand) {
	q.order = append(q.order[:0], handles...)
	rng.Shuffle(len(q.order), func(i, j int) {
		q.order[i], q.order[j] = q.order[j], q.order[i]
	})
}

// Advance pops the front entity, pushes it to the back and returns it.
func (q *Initiative) Advance() Handle {
	if len(q.order) == 0 {
		violate("initiative.advance", "rotation is empty")
	}
	h := q.order[0]
	copy(q.order, q.order[1:])
	q.order[len(q.order)-1] = h
	return h
}

// Drop takes h out of the rotation for good.
func (q *Initiative) Drop(h Handle) {
	for i, x := range q.order {
		if x == h {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return
		}
	}
	violate("initiative.drop", "entity %d not in rotation", h)
}

// Head is the entity that will be returned by the next Advance.
func (q *Initiative) Head() Handle {
	if len(q.order) == 0 {
		return NoHandle
	}
	return q.order[0]
}

func (q *Initiative) Len() int { return len(q.order) }

// Handles returns a copy of the current rotation, front first.
func (q *Initiative) Handles() []Handle {
	return append([]Handle(nil), q.order...)
}
