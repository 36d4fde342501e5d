package combat

import (
	"errors"
	"strings"
	"testing"

	"skirmish/internal/util"
)

type placed struct {
	e        *Entity
	row, col int
}

func newTestEngine(t *testing.T, rows, cols int, rolls []int, ents ...placed) *Engine {
	t.Helper()
	g := NewEngine(rows, cols, WithSeed(5), WithDice(&util.Seq{Values: rolls}))
	for _, p := range ents {
		if _, err := g.Register(p.e, p.row, p.col); err != nil {
			t.Fatalf("Register %s: %v", p.e.Label, err)
		}
	}
	return g
}

// blockedDir finds a move for h that bumps into a wall or a neighbour.
func blockedDir(t *testing.T, g *Engine, h Handle) Direction {
	t.Helper()
	p, _ := g.Position(h)
	for d := Up; d <= Right; d++ {
		to := p.Add(d.Delta())
		if !g.board.InBounds(to) || g.board.Used(to) {
			return d
		}
	}
	t.Fatalf("entity %d has no blocked direction", h)
	return Up
}

// turnTo resets and burns blocked moves until want is the actor.
func turnTo(t *testing.T, g *Engine, want Handle) {
	t.Helper()
	_, cur := g.Reset()
	for i := 0; cur != want; i++ {
		if i > g.NumAgents() {
			t.Fatalf("entity %d never got a turn", want)
		}
		res := g.Step(cur, Action{Kind: ActMove, Dir: blockedDir(t, g, cur)}.Encode(g.NumAgents()))
		if res.Reward != penalty {
			t.Fatalf("bump move by %d was not blocked", cur)
		}
		cur = res.NextAgent
	}
}

func TestRangedAttackHitsDistantEnemy(t *testing.T) {
	a := NewEntity("A1", "x", 20, 10, 0, 0, 0, true)
	b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
	// d20 -> 10, 2d6 -> 3+4
	g := newTestEngine(t, 3, 3, []int{9, 2, 3}, placed{a, 0, 0}, placed{b, 0, 2})
	turnTo(t, g, 0)

	res := g.Step(0, 1)
	if res.Reward != 7 {
		t.Fatalf("reward = %v, want 7", res.Reward)
	}
	if b.HP != 13 {
		t.Fatalf("target hp = %d, want 13", b.HP)
	}
	if res.Done {
		t.Fatal("episode ended with both factions alive")
	}
	if res.NextAgent != 1 {
		t.Fatalf("next agent = %d, want 1", res.NextAgent)
	}
}

func TestKillDoublesRewardAndEndsEpisode(t *testing.T) {
	a := NewEntity("A1", "x", 20, 10, 0, 0, 0, true)
	b := NewEntity("B1", "y", 5, 10, 0, 0, 0, false)
	g := newTestEngine(t, 3, 3, []int{9, 2, 3}, placed{a, 0, 0}, placed{b, 0, 2})
	turnTo(t, g, 0)

	res := g.Step(0, 1)
	if res.Reward != 14 {
		t.Fatalf("reward = %v, want 14", res.Reward)
	}
	if b.Alive() || !g.Dead(1) {
		t.Fatal("target should be dead")
	}
	if _, on := g.Position(1); on {
		t.Fatal("dead target still on the board")
	}
	if len(g.Order()) != 1 {
		t.Fatalf("order = %v, want only the attacker", g.Order())
	}
	if !res.Done || !g.Done() {
		t.Fatal("episode should be done")
	}
	if res.NextAgent != 0 {
		t.Fatalf("next agent = %d", res.NextAgent)
	}
	expectContract(t, "step after done", func() { g.Step(0, 0) })
}

func TestAttackRewardSigns(t *testing.T) {
	cases := []struct {
		name   string
		target Handle
		hp     int
		want   float64
	}{
		{"self", 0, 30, -14},
		{"ally", 1, 30, -7},
		{"enemy", 2, 30, 7},
		{"self kill", 0, 5, -28},
		{"ally kill", 1, 5, -14},
		{"enemy kill", 2, 5, 14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewEntity("A1", "x", 30, 10, 0, 0, 0, false)
			ally := NewEntity("A2", "x", 30, 10, 0, 0, 0, false)
			foe := NewEntity("B1", "y", 30, 10, 0, 0, 0, false)
			foe2 := NewEntity("B2", "y", 30, 10, 0, 0, 0, false)
			ents := []*Entity{a, ally, foe}
			g := newTestEngine(t, 2, 3, []int{9, 2, 3},
				placed{a, 0, 1}, placed{ally, 0, 0}, placed{foe, 1, 1}, placed{foe2, 1, 2})
			ents[tc.target].HP = tc.hp
			ents[tc.target].snapshotBaseline()
			turnTo(t, g, 0)

			res := g.Step(0, int(tc.target))
			if res.Reward != tc.want {
				t.Fatalf("reward = %v, want %v", res.Reward, tc.want)
			}
		})
	}
}

func TestAttackPenalties(t *testing.T) {
	t.Run("unreachable melee", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 0, false)
		b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
		g := newTestEngine(t, 3, 3, []int{19}, placed{a, 0, 0}, placed{b, 2, 2})
		turnTo(t, g, 0)
		if res := g.Step(0, 1); res.Reward != -1 || b.HP != 20 {
			t.Fatalf("reward %v hp %d", res.Reward, b.HP)
		}
	})
	t.Run("miss", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 0, false)
		b := NewEntity("B1", "y", 20, 15, 0, 0, 0, false)
		g := newTestEngine(t, 3, 3, []int{0}, placed{a, 0, 0}, placed{b, 0, 1})
		turnTo(t, g, 0)
		if res := g.Step(0, 1); res.Reward != -1 || b.HP != 20 {
			t.Fatalf("reward %v hp %d", res.Reward, b.HP)
		}
	})
	t.Run("dead target", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 0, true)
		a2 := NewEntity("A2", "x", 20, 10, 0, 0, 0, true)
		b := NewEntity("B1", "y", 5, 10, 0, 0, 0, false)
		b2 := NewEntity("B2", "y", 20, 10, 0, 0, 0, false)
		g := newTestEngine(t, 1, 4, []int{9, 2, 3}, placed{a, 0, 0}, placed{a2, 0, 1}, placed{b, 0, 2}, placed{b2, 0, 3})
		_, cur := g.Reset()
		killed := false
		for i := 0; i < 8 && !killed; i++ {
			var res StepResult
			if g.Entity(cur).Faction == "x" {
				res = g.Step(cur, 2)
				killed = true
			} else {
				res = g.Step(cur, Action{Kind: ActMove, Dir: Up}.Encode(4))
			}
			cur = res.NextAgent
		}
		for g.Entity(cur).Faction != "x" {
			cur = g.Step(cur, Action{Kind: ActMove, Dir: Up}.Encode(4)).NextAgent
		}
		if res := g.Step(cur, 2); res.Reward != -1 {
			t.Fatalf("attacking the dead gave %v", res.Reward)
		}
	})
}

func TestHeal(t *testing.T) {
	t.Run("no potions", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 0, false)
		b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
		g := newTestEngine(t, 3, 3, []int{3}, placed{a, 0, 0}, placed{b, 2, 2})
		turnTo(t, g, 0)
		a.HP = 12
		if res := g.Step(0, 2); res.Reward != -1 || a.HP != 12 {
			t.Fatalf("reward %v hp %d", res.Reward, a.HP)
		}
	})
	t.Run("self", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 2, false)
		b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
		// 2d4 -> 2+3, +2
		g := newTestEngine(t, 3, 3, []int{1, 2}, placed{a, 0, 0}, placed{b, 2, 2})
		turnTo(t, g, 0)
		a.HP = 10
		res := g.Step(0, 2)
		if res.Reward != 7 || a.HP != 17 || a.Potions != 1 {
			t.Fatalf("reward %v hp %d potions %d", res.Reward, a.HP, a.Potions)
		}
	})
	t.Run("capped at max", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 1, false)
		b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
		g := newTestEngine(t, 3, 3, []int{3, 3}, placed{a, 0, 0}, placed{b, 2, 2})
		turnTo(t, g, 0)
		a.HP = 18
		if res := g.Step(0, 2); res.Reward != 10 || a.HP != 20 {
			t.Fatalf("reward %v hp %d", res.Reward, a.HP)
		}
	})
	t.Run("enemy is penalized", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 1, false)
		b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
		g := newTestEngine(t, 3, 3, []int{0, 0}, placed{a, 0, 0}, placed{b, 0, 1})
		turnTo(t, g, 0)
		b.HP = 5
		if res := g.Step(0, 3); res.Reward != -4 || b.HP != 9 {
			t.Fatalf("reward %v hp %d", res.Reward, b.HP)
		}
	})
	t.Run("unreachable wastes potion", func(t *testing.T) {
		a := NewEntity("A1", "x", 20, 10, 0, 0, 1, true)
		a2 := NewEntity("A2", "x", 20, 10, 0, 0, 0, false)
		b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
		g := newTestEngine(t, 3, 3, []int{0, 0}, placed{a, 0, 0}, placed{a2, 2, 2}, placed{b, 1, 2})
		turnTo(t, g, 0)
		a2.HP = 5
		res := g.Step(0, 3+1)
		if res.Reward != -1 || a2.HP != 5 || a.Potions != 0 {
			t.Fatalf("reward %v hp %d potions %d", res.Reward, a2.HP, a.Potions)
		}
	})
}

func TestMove(t *testing.T) {
	a := NewEntity("A1", "x", 20, 10, 0, 0, 0, false)
	b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
	g := newTestEngine(t, 1, 3, nil, placed{a, 0, 0}, placed{b, 0, 2})
	n := g.NumAgents()
	turnTo(t, g, 0)

	res := g.Step(0, Action{Kind: ActMove, Dir: Up}.Encode(n))
	if res.Reward != -1 {
		t.Fatalf("move off the board rewarded %v", res.Reward)
	}
	if p, _ := g.Position(0); p != (Pos{0, 0}) {
		t.Fatalf("position changed to %v", p)
	}

	turnTo(t, g, 0)
	if res := g.Step(0, Action{Kind: ActMove, Dir: Right}.Encode(n)); res.Reward != 0 {
		t.Fatalf("free move rewarded %v", res.Reward)
	}
	if p, _ := g.Position(0); p != (Pos{0, 1}) {
		t.Fatalf("position = %v, want (0,1)", p)
	}
	cur := g.Current()
	for cur != 0 {
		cur = g.Step(cur, Action{Kind: ActMove, Dir: Up}.Encode(n)).NextAgent
	}
	if res := g.Step(0, Action{Kind: ActMove, Dir: Right}.Encode(n)); res.Reward != -1 {
		t.Fatalf("move into occupied cell rewarded %v", res.Reward)
	}
}

func TestDecodePartition(t *testing.T) {
	for n := 1; n <= 6; n++ {
		counts := map[ActionKind]int{}
		for a := 0; a < ActionDim(n); a++ {
			act, err := Decode(a, n)
			if err != nil {
				t.Fatalf("n=%d action %d: %v", n, a, err)
			}
			if act.Encode(n) != a {
				t.Fatalf("n=%d action %d re-encodes to %d", n, a, act.Encode(n))
			}
			counts[act.Kind]++
		}
		if counts[ActAttack] != n || counts[ActHeal] != n || counts[ActMove] != 4 {
			t.Fatalf("n=%d partition %v", n, counts)
		}
		for _, bad := range []int{-1, ActionDim(n)} {
			if _, err := Decode(bad, n); !errors.Is(err, ErrContract) {
				t.Fatalf("n=%d action %d: err = %v", n, bad, err)
			}
		}
	}
}

func TestStepContract(t *testing.T) {
	a := NewEntity("A1", "x", 20, 10, 0, 0, 0, false)
	b := NewEntity("B1", "y", 20, 10, 0, 0, 0, false)
	g := newTestEngine(t, 3, 3, nil, placed{a, 0, 0}, placed{b, 2, 2})

	expectContract(t, "step before reset", func() { g.Step(0, 0) })
	_, cur := g.Reset()
	other := 1 - cur
	expectContract(t, "out of turn", func() { g.Step(other, 0) })
	expectContract(t, "bad action", func() { g.Step(cur, 99) })
}

func TestRegisterErrors(t *testing.T) {
	g := NewEngine(2, 2)
	if _, err := g.Register(NewEntity("A1", "x", 10, 10, 0, 0, 0, false), 0, 0); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name     string
		e        *Entity
		row, col int
	}{
		{"label collision", NewEntity("A1", "x", 10, 10, 0, 0, 0, false), 1, 1},
		{"label length", NewEntity("ABC", "x", 10, 10, 0, 0, 0, false), 1, 1},
		{"occupied", NewEntity("B1", "y", 10, 10, 0, 0, 0, false), 0, 0},
		{"out of bounds", NewEntity("B1", "y", 10, 10, 0, 0, 0, false), 2, 0},
		{"dead on arrival", NewEntity("B1", "y", 0, 10, 0, 0, 0, false), 1, 1},
	}
	for _, tc := range cases {
		if _, err := g.Register(tc.e, tc.row, tc.col); !errors.Is(err, ErrContract) {
			t.Errorf("%s: err = %v", tc.name, err)
		}
	}
	g.Register(NewEntity("B1", "y", 10, 10, 0, 0, 0, false), 1, 1)
	g.Reset()
	if _, err := g.Register(NewEntity("C1", "y", 10, 10, 0, 0, 0, false), 1, 0); !errors.Is(err, ErrContract) {
		t.Errorf("register after reset: err = %v", err)
	}
}

func TestResetRestoresBoardAndVitals(t *testing.T) {
	a := NewEntity("A1", "x", 20, 10, 0, 0, 1, true)
	b := NewEntity("B1", "y", 5, 10, 0, 0, 0, false)
	g := newTestEngine(t, 3, 3, []int{9, 2, 3}, placed{a, 0, 0}, placed{b, 0, 2})
	turnTo(t, g, 0)
	g.Step(0, 1)
	if !g.Done() {
		t.Fatal("expected kill to end the episode")
	}

	obs, _ := g.Reset()
	if b.HP != 5 || !b.Alive() || g.Dead(1) {
		t.Fatalf("reset did not restore target: hp=%d dead=%v", b.HP, g.Dead(1))
	}
	if p, ok := g.Position(1); !ok || p != (Pos{0, 2}) {
		t.Fatalf("target at %v (on board %v)", p, ok)
	}
	if len(g.Order()) != 2 || len(obs.Occupants()) != 2 {
		t.Fatalf("order %v occupants %d", g.Order(), len(obs.Occupants()))
	}
}

func TestCarryVitalsKeepsTheDeadDown(t *testing.T) {
	a := NewEntity("A1", "x", 20, 10, 0, 0, 0, true)
	b := NewEntity("B1", "y", 5, 10, 0, 0, 0, false)
	c := NewEntity("B2", "y", 20, 10, 0, 0, 0, false)
	g := NewEngine(3, 3, WithSeed(5), WithDice(&util.Seq{Values: []int{9, 2, 3}}), WithCarryVitals(true))
	for _, p := range []placed{{a, 0, 0}, {b, 0, 2}, {c, 2, 2}} {
		if _, err := g.Register(p.e, p.row, p.col); err != nil {
			t.Fatal(err)
		}
	}
	turnTo(t, g, 0)
	g.Step(0, 1)
	if b.Alive() {
		t.Fatal("expected B1 to die")
	}
	g.Reset()
	if !g.Dead(1) {
		t.Fatal("carried-over corpse not marked dead")
	}
	if _, on := g.Position(1); on {
		t.Fatal("corpse placed back on the board")
	}
	for _, h := range g.Order() {
		if h == 1 {
			t.Fatal("corpse back in the rotation")
		}
	}
}

func TestSettledMatchesFactionMix(t *testing.T) {
	a := NewEntity("A1", "x", 20, 10, 0, 0, 0, false)
	b := NewEntity("A2", "x", 20, 10, 0, 0, 0, false)
	g := newTestEngine(t, 3, 3, nil, placed{a, 0, 0}, placed{b, 2, 2})
	_, cur := g.Reset()
	// a single faction is settled from the first step
	if res := g.Step(cur, Action{Kind: ActMove, Dir: Up}.Encode(2)); !res.Done {
		t.Fatal("all-ally rotation should be done")
	}
}

func TestRenderingShowsLabelsAndLegend(t *testing.T) {
	a := NewEntity("P1", "x", 20, 10, 0, 0, 0, false)
	b := NewEntity("E1", "y", 20, 10, 0, 0, 0, false)
	g := newTestEngine(t, 2, 2, nil, placed{a, 0, 0}, placed{b, 1, 1})
	g.Reset()
	want := "P1 __ \n\n__ E1 \n\n0: P1\n1: E1\n"
	if got := g.String(); got != want {
		t.Fatalf("render mismatch:\n%q\nwant\n%q", got, want)
	}
	if !strings.Contains(g.String(), "1: E1") {
		t.Fatal("legend missing")
	}
}

func TestEventsEmitted(t *testing.T) {
	var events []Event
	a := NewEntity("A1", "x", 20, 10, 0, 0, 0, true)
	b := NewEntity("B1", "y", 5, 10, 0, 0, 0, false)
	g := newTestEngine(t, 3, 3, []int{9, 2, 3}, placed{a, 0, 0}, placed{b, 0, 2})
	g.Emit = func(ev Event) { events = append(events, ev) }
	turnTo(t, g, 0)
	g.Step(0, 1)

	types := map[string]int{}
	for _, ev := range events {
		types[ev.Type]++
	}
	for _, want := range []string{"Reset", "Attack", "Kill", "Done"} {
		if types[want] == 0 {
			t.Errorf("no %s event in %v", want, types)
		}
	}
}
