package agent

import (
	"math"

	"skirmish/internal/combat"
	"skirmish/internal/config"
)

// Learner is an epsilon-greedy Q-learner with a linear value function over
// the flattened observation, a replay memory and a periodically refreshed
// target copy of the weights.
type Learner struct {
	seat Seat
	cfg  config.LearnerConfig

	actions int
	width   int // state dim + bias

	policy []float64 // actions × width
	target []float64
	memory *Memory

	steps  int // optimize calls that trained
	Greedy bool
}

func NewLearner(seat Seat) *Learner {
	cfg := seat.Learner
	if cfg.BatchSize == 0 {
		cfg = config.DefaultLearner()
	}
	l := &Learner{
		seat:    seat,
		cfg:     cfg,
		actions: seat.actionDim(),
		width:   seat.StateDim + 1,
		memory:  NewMemory(cfg.MemorySize),
	}
	l.policy = make([]float64, l.actions*l.width)
	for i := range l.policy {
		l.policy[i] = (seat.Rng.Float64()*2 - 1) * 0.01
	}
	l.target = append([]float64(nil), l.policy...)
	return l
}

func (l *Learner) q(w []float64, x []float32, a int) float64 {
	row := w[a*l.width : (a+1)*l.width]
	v := row[l.width-1]
	for i, xi := range x {
		if xi != 0 {
			v += row[i] * float64(xi)
		}
	}
	return v
}

func (l *Learner) best(w []float64, x []float32) (int, float64) {
	bestA, bestQ := 0, math.Inf(-1)
	for a := 0; a < l.actions; a++ {
		if v := l.q(w, x, a); v > bestQ {
			bestA, bestQ = a, v
		}
	}
	return bestA, bestQ
}

// Epsilon is the current exploration rate.
func (l *Learner) Epsilon() float64 {
	c := l.cfg
	return c.EpsEnd + (c.EpsStart-c.EpsEnd)*math.Exp(-float64(l.steps)/c.EpsDecay)
}

func (l *Learner) GetAction(obs *combat.Observation) int {
	greedy, _ := l.best(l.policy, obs.Flat())
	if l.Greedy || l.seat.Rng.Float64() >= l.Epsilon() {
		return greedy
	}
	return l.seat.Rng.Intn(l.actions)
}

func (l *Learner) Update(t Transition) { l.memory.Push(t) }

// Optimize takes one gradient step on a sampled batch once the memory holds
// enough transitions.
func (l *Learner) Optimize() {
	if l.memory.Len() < l.cfg.BatchSize {
		return
	}
	l.steps++

	grad := make([]float64, len(l.policy))
	batch := l.memory.Sample(l.cfg.BatchSize, l.seat.Rng)
	for _, t := range batch {
		x := t.State.Flat()
		y := t.Reward
		if !t.Done {
			_, next := l.best(l.target, t.Outcome.Flat())
			y += l.cfg.Gamma * next
		}
		// Huber loss gradient, already clamped to [-1, 1]
		g := math.Max(-1, math.Min(1, l.q(l.policy, x, t.Action)-y))
		row := grad[t.Action*l.width : (t.Action+1)*l.width]
		for i, xi := range x {
			if xi != 0 {
				row[i] += g * float64(xi)
			}
		}
		row[l.width-1] += g
	}
	scale := l.cfg.LearningRate / float64(len(batch))
	for i, g := range grad {
		l.policy[i] -= scale * g
	}

	if l.steps%l.cfg.UpdateEvery == 0 {
		l.Refresh()
	}
}

// Refresh copies the policy weights into the target weights.
func (l *Learner) Refresh() {
	copy(l.target, l.policy)
}

func (l *Learner) Steps() int { return l.steps }
