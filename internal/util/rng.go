package util

import "math/rand"

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Roller is the slice of *rand.Rand the dice need. Tests swap in a scripted one.
type Roller interface {
	Intn(n int) int
}

// Dice rolls polyhedral dice from an owned source.
type Dice struct {
	r Roller
}

func NewDice(r Roller) *Dice { return &Dice{r: r} }

// Roll sums n rolls of a sides-faced die.
func (d *Dice) Roll(sides, n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += d.r.Intn(sides) + 1
	}
	return total
}

func (d *Dice) D20() int { return d.Roll(20, 1) }

// Seq is a Roller that replays fixed Intn results, cycling when exhausted.
type Seq struct {
	Values []int
	i      int
}

func (s *Seq) Intn(n int) int {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.i%len(s.Values)]
	s.i++
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}
