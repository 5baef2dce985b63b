package domain

import (
	"fmt"
	"strings"
)

type Role int

const (
	RoleCarry Role = iota
	RoleMid
	RoleOfflane
	RoleSoftSupport
	RoleHardSupport

	RoleCount = 5
)

var roleNames = [RoleCount]string{
	RoleCarry:       "carry",
	RoleMid:         "mid",
	RoleOfflane:     "offlane",
	RoleSoftSupport: "soft_support",
	RoleHardSupport: "hard_support",
}

func AllRoles() []Role {
	return []Role{RoleCarry, RoleMid, RoleOfflane, RoleSoftSupport, RoleHardSupport}
}

func (r Role) Valid() bool {
	return r >= 0 && r < RoleCount
}

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

func (r Role) IsSupport() bool {
	return r == RoleSoftSupport || r == RoleHardSupport
}

func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return []byte(roleNames[r]), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is a small bitset over the five roles.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

func (s RoleSet) With(r Role) RoleSet {
	if !r.Valid() {
		return s
	}
	return s | 1<<uint(r)
}

func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s&(1<<uint(r)) != 0
}

func (s RoleSet) Complete() bool {
	return s == FullRoleSet
}

const FullRoleSet RoleSet = 1<<RoleCount - 1

type GamePhase int

const (
	PhaseEarly GamePhase = iota
	PhaseMid
	PhaseLate

	PhaseCount = 3
)

func (p GamePhase) String() string {
	switch p {
	case PhaseEarly:
		return "early_game"
	case PhaseMid:
		return "mid_game"
	case PhaseLate:
		return "late_game"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p GamePhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PhaseFor segments a match by elapsed minutes: early below 15, mid below 30, late after.
func PhaseFor(minutes float64) GamePhase {
	switch {
	case minutes < 15:
		return PhaseEarly
	case minutes < 30:
		return PhaseMid
	default:
		return PhaseLate
	}
}

type GameState int

const (
	StateEven GameState = iota
	StateLosing
	StateWinning
)

func (s GameState) String() string {
	switch s {
	case StateLosing:
		return "losing"
	case StateWinning:
		return "winning"
	}
	return "even"
}

func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// GameStateFor classifies a signed team gold difference against a symmetric threshold.
func GameStateFor(goldDifference, threshold float64) GameState {
	switch {
	case goldDifference > threshold:
		return StateWinning
	case goldDifference < -threshold:
		return StateLosing
	default:
		return StateEven
	}
}

type PerformanceTier int

const (
	TierNormal PerformanceTier = iota
	TierVeryGood
	TierExcellent
	TierExceptional
)

func (t PerformanceTier) String() string {
	switch t {
	case TierVeryGood:
		return "very_good"
	case TierExcellent:
		return "excellent"
	case TierExceptional:
		return "exceptional"
	}
	return "normal"
}

func ParseTier(s string) PerformanceTier {
	switch s {
	case "very_good":
		return TierVeryGood
	case "excellent":
		return TierExcellent
	case "exceptional":
		return TierExceptional
	}
	return TierNormal
}

func (t PerformanceTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PerformanceTier) UnmarshalText(text []byte) error {
	*t = ParseTier(string(text))
	return nil
}
