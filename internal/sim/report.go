package sim

import (
	"encoding/json"
	"sort"
)

// Summary aggregates episode results.
type Summary struct {
	Runs      int                `json:"runs"`
	Wins      map[string]int     `json:"wins"`
	WinRate   map[string]float64 `json:"win_rate"`
	Truncated int                `json:"truncated"`
	AvgSteps  float64            `json:"avg_steps"`
	AvgReward map[string]float64 `json:"avg_reward"`
	Episodes  []EpisodeResult    `json:"episodes,omitempty"`
}

type tally struct {
	n         int
	wins      map[string]int
	truncated int
	steps     int
	reward    map[string]float64
}

func newTally() *tally {
	return &tally{wins: map[string]int{}, reward: map[string]float64{}}
}

func (t *tally) add(r EpisodeResult) {
	t.n++
	t.steps += r.Steps
	if r.Truncated {
		t.truncated++
	} else if r.Winner != "" {
		t.wins[r.Winner]++
	}
	for l, v := range r.Rewards {
		t.reward[l] += v
	}
}

func (t *tally) summary() Summary {
	s := Summary{
		Runs:      t.n,
		Wins:      t.wins,
		WinRate:   map[string]float64{},
		Truncated: t.truncated,
		AvgReward: map[string]float64{},
	}
	if t.n == 0 {
		return s
	}
	for f, w := range t.wins {
		s.WinRate[f] = float64(w) / float64(t.n)
	}
	for l, v := range t.reward {
		s.AvgReward[l] = v / float64(t.n)
	}
	s.AvgSteps = float64(t.steps) / float64(t.n)
	return s
}

// Factions lists the winners in a stable order for printing.
func (s Summary) Factions() []string {
	out := make([]string, 0, len(s.Wins))
	for f := range s.Wins {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
