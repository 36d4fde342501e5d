package agent

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"skirmish/internal/combat"
)

// Manual reads moves from a terminal:
//
//	w/a/s/d   move up/left/down/right
//	q <slot>  attack the entity in slot
//	e <slot>  heal the entity in slot
//
// When input runs out it falls back to random play.
type Manual struct {
	noLearning
	seat Seat
	in   *bufio.Scanner
	out  io.Writer
}

func NewManual(seat Seat) *Manual {
	out := seat.Out
	if out == nil {
		out = io.Discard
	}
	var in *bufio.Scanner
	if seat.In != nil {
		in = bufio.NewScanner(seat.In)
	}
	return &Manual{seat: seat, in: in, out: out}
}

func (a *Manual) GetAction(*combat.Observation) int {
	e := a.seat.Entity
	for {
		fmt.Fprintf(a.out, "(%s) HP: %d | Potions: %d\n", e.Label, e.HP, e.Potions)
		fmt.Fprintf(a.out, "(wasd) Move | (q N) Attack | (e N) Heal, N in [0-%d]: ", a.seat.NumAgents-1)
		if a.in == nil || !a.in.Scan() {
			return a.seat.Rng.Intn(a.seat.actionDim())
		}
		action, err := a.parse(a.in.Text())
		if err == nil {
			return action
		}
		fmt.Fprintf(a.out, "%v, try again\n", err)
	}
}

func (a *Manual) parse(line string) (int, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty input")
	}
	switch fields[0] {
	case "w":
		return a.seat.move(combat.Up), nil
	case "s":
		return a.seat.move(combat.Down), nil
	case "a":
		return a.seat.move(combat.Left), nil
	case "d":
		return a.seat.move(combat.Right), nil
	case "q", "e":
		if len(fields) != 2 {
			return 0, fmt.Errorf("%q needs a target slot", fields[0])
		}
		slot, err := strconv.Atoi(fields[1])
		if err != nil || slot < 0 || slot >= a.seat.NumAgents {
			return 0, fmt.Errorf("slot %q invalid", fields[1])
		}
		if fields[0] == "q" {
			return a.seat.attack(combat.Handle(slot)), nil
		}
		return a.seat.heal(combat.Handle(slot)), nil
	}
	return 0, fmt.Errorf("input %q invalid", line)
}
