package combat

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"

	"skirmish/internal/util"
)

type phase int

const (
	phaseIdle phase = iota
	phaseActive
	phaseTerminal
)

// StepResult is what a single action hands back to the caller.
type StepResult struct {
	Outcome   *Observation // board after the action, seen by the actor
	Reward    float64
	Done      bool
	Next      *Observation // board seen by NextAgent; nil once nobody is left
	NextAgent Handle
}

// Engine owns the board, the registry and the initiative for one encounter.
// It is not safe for concurrent use; the turn-based contract already
// serializes callers.
type Engine struct {
	rows, cols int

	entities []*Entity
	start    []Pos
	labels   map[string]Handle

	board *Board
	order Initiative
	dead  map[Handle]bool

	rng  *rand.Rand
	dice *util.Dice
	log  *slog.Logger
	Emit func(Event)

	carryVitals bool
	phase       phase
	started     bool
	current     Handle
	turn        int
}

type Option func(*Engine)

// WithSeed draws initiative and dice from a source seeded with seed.
func WithSeed(seed int64) Option {
	return func(g *Engine) {
		g.rng = util.New(seed)
		g.dice = util.NewDice(g.rng)
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(g *Engine) {
		g.rng = rng
		g.dice = util.NewDice(rng)
	}
}

// WithDice overrides only the dice, leaving the initiative shuffle alone.
func WithDice(r util.Roller) Option {
	return func(g *Engine) { g.dice = util.NewDice(r) }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Engine) {
		if l != nil {
			g.log = l
		}
	}
}

func WithEmit(emit func(Event)) Option {
	return func(g *Engine) { g.Emit = emit }
}

// WithCarryVitals keeps hit points and potions across resets instead of
// restoring the values captured at registration.
func WithCarryVitals(on bool) Option {
	return func(g *Engine) { g.carryVitals = on }
}

func NewEngine(rows, cols int, opts ...Option) *Engine {
	g := &Engine{
		rows:    rows,
		cols:    cols,
		labels:  map[string]Handle{},
		board:   NewBoard(rows, cols),
		dead:    map[Handle]bool{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		current: NoHandle,
	}
	WithSeed(1)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds e at (row, col) and assigns its fixed slot. Registration is
// closed once the first episode starts.
func (g *Engine) Register(e *Entity, row, col int) (Handle, error) {
	if g.started {
		return NoHandle, contractErr("register", "episode already started")
	}
	if e == nil {
		return NoHandle, contractErr("register", "nil entity")
	}
	if len(e.Label) != 2 {
		return NoHandle, contractErr("register", "label %q must be two characters", e.Label)
	}
	if _, dup := g.labels[e.Label]; dup {
		return NoHandle, contractErr("register", "label %q already registered", e.Label)
	}
	if e.HP <= 0 || e.MaxHP < e.HP {
		return NoHandle, contractErr("register", "%s: hit points %d/%d", e.Label, e.HP, e.MaxHP)
	}
	p := Pos{Row: row, Col: col}
	if !g.board.InBounds(p) {
		return NoHandle, contractErr("register", "%s: cell (%d,%d) outside %dx%d board", e.Label, row, col, g.rows, g.cols)
	}
	if g.board.Used(p) {
		return NoHandle, contractErr("register", "%s: cell (%d,%d) occupied", e.Label, row, col)
	}

	h := Handle(len(g.entities))
	g.board.Add(h, p)
	g.entities = append(g.entities, e)
	g.start = append(g.start, p)
	g.labels[e.Label] = h
	e.snapshotBaseline()
	g.log.Debug("registered", "label", e.Label, "faction", e.Faction, "slot", int(h), "row", row, "col", col)
	return h, nil
}

// Reset starts a new episode and returns the first actor with its view.
func (g *Engine) Reset() (*Observation, Handle) {
	if len(g.entities) == 0 {
		violate("reset", "no entities registered")
	}
	g.started = true
	g.board = NewBoard(g.rows, g.cols)
	g.dead = map[Handle]bool{}

	living := make([]Handle, 0, len(g.entities))
	for i, e := range g.entities {
		h := Handle(i)
		if !g.carryVitals {
			e.restoreBaseline()
		}
		if !e.Alive() {
			g.dead[h] = true
			continue
		}
		g.board.Add(h, g.start[i])
		living = append(living, h)
	}
	g.order.Shuffle(living, g.rng)
	g.turn = 0
	g.phase = phaseActive
	g.current = g.order.Advance()

	g.emit("Reset", map[string]any{"order": g.labelsOf(g.order.Handles()), "first": g.entities[g.current].Label})
	g.log.Debug("episode reset", "first", g.entities[g.current].Label)
	return g.Encode(g.current), g.current
}

// Step resolves action for agent, who must be the entity Reset or the
// previous Step handed out.
func (g *Engine) Step(agent Handle, action int) StepResult {
	switch g.phase {
	case phaseIdle:
		violate("step", "no active episode, call Reset")
	case phaseTerminal:
		violate("step", "episode is over, call Reset")
	}
	if agent != g.current {
		violate("step", "entity %d acted out of turn, expected %d", agent, g.current)
	}

	reward := g.resolve(agent, action)
	res := StepResult{
		Outcome:   g.Encode(agent),
		Reward:    reward,
		Done:      g.settled(),
		NextAgent: NoHandle,
	}
	g.turn++
	if res.Done {
		g.phase = phaseTerminal
		g.emit("Done", map[string]any{"survivors": g.labelsOf(g.order.Handles())})
		g.log.Debug("episode done", "turn", g.turn)
	}
	if g.order.Len() > 0 {
		res.NextAgent = g.order.Advance()
		res.Next = g.Encode(res.NextAgent)
	}
	g.current = res.NextAgent
	return res
}

// settled reports whether everyone still in the rotation is on one side.
func (g *Engine) settled() bool {
	handles := g.order.Handles()
	for _, h := range handles[min(1, len(handles)):] {
		if !Allied(g.entities[h], g.entities[handles[0]]) {
			return false
		}
	}
	return true
}

func (g *Engine) emit(typ string, payload map[string]any) {
	if g.Emit == nil {
		return
	}
	g.Emit(Event{Turn: g.turn, Type: typ, Payload: payload})
}

func (g *Engine) entity(op string, h Handle) *Entity {
	if h < 0 || int(h) >= len(g.entities) {
		violate(op, "unknown entity %d", h)
	}
	return g.entities[h]
}

func (g *Engine) labelsOf(hs []Handle) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = g.entities[h].Label
	}
	return out
}

// Entity returns the registered entity behind h.
func (g *Engine) Entity(h Handle) *Entity { return g.entity("entity", h) }

// Lookup finds a handle by board label.
func (g *Engine) Lookup(label string) (Handle, bool) {
	h, ok := g.labels[label]
	return h, ok
}

func (g *Engine) NumAgents() int { return len(g.entities) }
func (g *Engine) ActionDim() int { return ActionDim(len(g.entities)) }
func (g *Engine) StateDim() int  { return g.rows * g.cols * len(g.entities) * CellDim }
func (g *Engine) Rows() int      { return g.rows }
func (g *Engine) Cols() int      { return g.cols }
func (g *Engine) Turn() int      { return g.turn }
func (g *Engine) Done() bool     { return g.phase == phaseTerminal }
func (g *Engine) Current() Handle {
	return g.current
}

// Handles lists every registered entity in slot order.
func (g *Engine) Handles() []Handle {
	out := make([]Handle, len(g.entities))
	for i := range out {
		out[i] = Handle(i)
	}
	return out
}

// Order is the current rotation, next actor first.
func (g *Engine) Order() []Handle { return g.order.Handles() }

func (g *Engine) Dead(h Handle) bool { return g.dead[h] }

// Position reports where h stands, if it is on the board.
func (g *Engine) Position(h Handle) (Pos, bool) {
	p, ok := g.board.location[h]
	return p, ok
}

// String draws the board with two-character labels and a slot legend.
func (g *Engine) String() string {
	var sb strings.Builder
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			p := Pos{Row: r, Col: c}
			if g.board.Free(p) {
				sb.WriteString("__ ")
				continue
			}
			sb.WriteString(g.entities[g.board.Locate(p)].Label)
			sb.WriteByte(' ')
		}
		sb.WriteString("\n\n")
	}
	for i, e := range g.entities {
		fmt.Fprintf(&sb, "%d: %s\n", i, e.Label)
	}
	return sb.String()
}
