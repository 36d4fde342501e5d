package config

type Scenario struct {
	Name        string        `yaml:"name"`
	Board       BoardDef      `yaml:"board"`
	Seed        int64         `yaml:"seed"`
	Episodes    int           `yaml:"episodes"`
	MaxSteps    int           `yaml:"max_steps"`
	CarryVitals bool          `yaml:"carry_vitals"`
	Entities    []EntityDef   `yaml:"entities"`
	Rules       []RuleDef     `yaml:"rules"`
	Learner     LearnerConfig `yaml:"learner"`
}

type BoardDef struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

type EntityDef struct {
	Label     string  `yaml:"label"`
	Name      string  `yaml:"name"`
	Faction   string  `yaml:"faction"`
	Strategy  string  `yaml:"strategy"`
	HP        int     `yaml:"hp"`
	AC        int     `yaml:"ac"`
	AttackMod int     `yaml:"attack_mod"`
	DamageMod int     `yaml:"damage_mod"`
	Potions   int     `yaml:"potions"`
	Ranged    bool    `yaml:"ranged"`
	Spawn     CellDef `yaml:"spawn"`
	Note      string  `yaml:"note"`
}

type CellDef struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// RuleDef is one condition → action pair for the rules strategy.
type RuleDef struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	When     string `yaml:"when"`
	Do       string `yaml:"do"`
	Note     string `yaml:"note"`
}

type LearnerConfig struct {
	BatchSize    int     `yaml:"batch_size"`
	MemorySize   int     `yaml:"memory_size"`
	Gamma        float64 `yaml:"gamma"`
	EpsStart     float64 `yaml:"eps_start"`
	EpsEnd       float64 `yaml:"eps_end"`
	EpsDecay     float64 `yaml:"eps_decay"`
	UpdateEvery  int     `yaml:"update_every"`
	LearningRate float64 `yaml:"learning_rate"`
}

const (
	StrategyManual  = "manual"
	StrategyRandom  = "random"
	StrategyNearest = "nearest"
	StrategyFlee    = "flee"
	StrategyRules   = "rules"
	StrategyLearned = "learned"
)

// DefaultLearner mirrors the replay/epsilon schedule the trainer was tuned with.
func DefaultLearner() LearnerConfig {
	return LearnerConfig{
		BatchSize:    32,
		MemorySize:   1000,
		Gamma:        0.999,
		EpsStart:     0.9,
		EpsEnd:       0.05,
		EpsDecay:     200,
		UpdateEvery:  100,
		LearningRate: 0.001,
	}
}

func (s *Scenario) applyDefaults() {
	d := DefaultLearner()
	l := &s.Learner
	if l.BatchSize == 0 {
		l.BatchSize = d.BatchSize
	}
	if l.MemorySize == 0 {
		l.MemorySize = d.MemorySize
	}
	if l.Gamma == 0 {
		l.Gamma = d.Gamma
	}
	if l.EpsStart == 0 {
		l.EpsStart = d.EpsStart
	}
	if l.EpsEnd == 0 {
		l.EpsEnd = d.EpsEnd
	}
	if l.EpsDecay == 0 {
		l.EpsDecay = d.EpsDecay
	}
	if l.UpdateEvery == 0 {
		l.UpdateEvery = d.UpdateEvery
	}
	if l.LearningRate == 0 {
		l.LearningRate = d.LearningRate
	}
	if s.Episodes == 0 {
		s.Episodes = 1
	}
	for i := range s.Entities {
		e := &s.Entities[i]
		if e.Name == "" {
			e.Name = e.Label
		}
		if e.Strategy == "" {
			e.Strategy = StrategyRandom
		}
	}
}
