package combat

import "skirmish/internal/util"

type Event struct {
	Turn    int            `json:"turn"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Handle addresses a registered entity. It doubles as the entity's fixed
// slot in the action space and the observation.
type Handle int

const NoHandle Handle = -1

// Entity is a simplified D&D combatant.
type Entity struct {
	Label   string // two characters, used by the board rendering
	Name    string
	Faction string

	HP        int
	MaxHP     int
	AC        int
	AttackMod int
	DamageMod int
	Ranged    bool
	Potions   int

	baseHP      int
	basePotions int
}

// NewEntity builds a combatant at full health.
func NewEntity(label, faction string, hp, ac, attackMod, damageMod, potions int, ranged bool) *Entity {
	return &Entity{
		Label: label, Name: label, Faction: faction,
		HP: hp, MaxHP: hp, AC: ac,
		AttackMod: attackMod, DamageMod: damageMod,
		Ranged: ranged, Potions: potions,
	}
}

func (e *Entity) Alive() bool { return e.HP > 0 }

func (e *Entity) RollAttack(d *util.Dice) int { return d.D20() + e.AttackMod }
func (e *Entity) RollDamage(d *util.Dice) int { return d.Roll(6, 2) + e.DamageMod }

// TakeDamage subtracts points, floors HP at zero.
func (e *Entity) TakeDamage(points int) {
	if points < 0 {
		points = 0
	}
	e.HP -= points
	if e.HP < 0 {
		e.HP = 0
	}
}

// Heal restores points up to MaxHP. The dead stay dead.
func (e *Entity) Heal(points int) {
	if !e.Alive() {
		return
	}
	e.HP += points
	if e.HP > e.MaxHP {
		e.HP = e.MaxHP
	}
}

// UsePotion consumes one potion and returns the rolled 2d4+2, or 0 without
// consuming anything when the entity has none left.
func (e *Entity) UsePotion(d *util.Dice) int {
	if e.Potions <= 0 {
		return 0
	}
	e.Potions--
	return d.Roll(4, 2) + 2
}

func (e *Entity) snapshotBaseline() {
	e.baseHP = e.HP
	e.basePotions = e.Potions
}

func (e *Entity) restoreBaseline() {
	e.HP = e.baseHP
	e.Potions = e.basePotions
}

// Allied reports whether a and b fight on the same side.
func Allied(a, b *Entity) bool { return a.Faction == b.Faction }
