package scoring

import "moba-mmr/internal/domain"

type PhaseExpectation struct {
	CSPerMinute float64
	GPM         float64
}

// Profile is a role's expectation, weight and modifier tables.
type Profile struct {
	Phases              [domain.PhaseCount]PhaseExpectation
	DamageShare         float64 // expected share of team hero damage
	BuildingShare       float64 // expected share of team building damage
	DeathsPerMinute     float64 // acceptable death-rate ceiling
	Weights             Weights // aggregation weights, sum to 1
	StateModifiers      [MetricCount]float64
	ExceptionalEmphasis [7]float64 // combat, farm, map, objective, teamfight, vision, utility
}

var profiles = [domain.RoleCount]Profile{
	domain.RoleCarry: {
		Phases: [domain.PhaseCount]PhaseExpectation{
			domain.PhaseEarly: {CSPerMinute: 7, GPM: 450},
			domain.PhaseMid:   {CSPerMinute: 8.5, GPM: 550},
			domain.PhaseLate:  {CSPerMinute: 10, GPM: 600},
		},
		DamageShare:     0.35,
		BuildingShare:   0.30,
		DeathsPerMinute: 0.12,
		Weights: Weights{
			MetricFarmEfficiency: 0.30,
			MetricDamageOutput:   0.30,
			MetricSurvival:       0.20,
			MetricObjectiveFocus: 0.20,
		},
		StateModifiers: [MetricCount]float64{
			MetricFarmEfficiency:  1.2,
			MetricDamageOutput:    1.1,
			MetricVisionControl:   0.8,
			MetricUtility:         0.9,
			MetricSurvival:        1.0,
			MetricMapPresence:     0.9,
			MetricSpaceCreation:   0.9,
			MetricObjectiveFocus:  1.1,
			MetricTeamfightImpact: 1.0,
		},
		ExceptionalEmphasis: [7]float64{0.30, 0.25, 0.10, 0.15, 0.15, 0.00, 0.05},
	},
	domain.RoleMid: {
		Phases: [domain.PhaseCount]PhaseExpectation{
			domain.PhaseEarly: {CSPerMinute: 6.5, GPM: 450},
			domain.PhaseMid:   {CSPerMinute: 7.5, GPM: 525},
			domain.PhaseLate:  {CSPerMinute: 8, GPM: 550},
		},
		DamageShare:     0.30,
		BuildingShare:   0.20,
		DeathsPerMinute: 0.14,
		Weights: Weights{
			MetricFarmEfficiency: 0.25,
			MetricDamageOutput:   0.30,
			MetricMapPresence:    0.25,
			MetricObjectiveFocus: 0.20,
		},
		StateModifiers: [MetricCount]float64{
			MetricFarmEfficiency:  1.0,
			MetricDamageOutput:    1.1,
			MetricVisionControl:   0.9,
			MetricUtility:         0.9,
			MetricSurvival:        1.1,
			MetricMapPresence:     1.1,
			MetricSpaceCreation:   1.0,
			MetricObjectiveFocus:  1.0,
			MetricTeamfightImpact: 1.0,
		},
		ExceptionalEmphasis: [7]float64{0.30, 0.20, 0.15, 0.10, 0.15, 0.05, 0.05},
	},
	domain.RoleOfflane: {
		Phases: [domain.PhaseCount]PhaseExpectation{
			domain.PhaseEarly: {CSPerMinute: 5, GPM: 350},
			domain.PhaseMid:   {CSPerMinute: 5.5, GPM: 425},
			domain.PhaseLate:  {CSPerMinute: 6, GPM: 450},
		},
		DamageShare:     0.20,
		BuildingShare:   0.25,
		DeathsPerMinute: 0.16,
		Weights: Weights{
			MetricSpaceCreation:  0.30,
			MetricSurvival:       0.25,
			MetricDamageOutput:   0.25,
			MetricObjectiveFocus: 0.20,
		},
		StateModifiers: [MetricCount]float64{
			MetricFarmEfficiency:  0.8,
			MetricDamageOutput:    1.0,
			MetricVisionControl:   1.0,
			MetricUtility:         1.0,
			MetricSurvival:        0.9,
			MetricMapPresence:     1.0,
			MetricSpaceCreation:   1.2,
			MetricObjectiveFocus:  1.2,
			MetricTeamfightImpact: 1.1,
		},
		ExceptionalEmphasis: [7]float64{0.25, 0.10, 0.15, 0.20, 0.20, 0.05, 0.05},
	},
	domain.RoleSoftSupport: {
		Phases: [domain.PhaseCount]PhaseExpectation{
			domain.PhaseEarly: {CSPerMinute: 1.5, GPM: 250},
			domain.PhaseMid:   {CSPerMinute: 2, GPM: 280},
			domain.PhaseLate:  {CSPerMinute: 2, GPM: 300},
		},
		DamageShare:     0.10,
		BuildingShare:   0.10,
		DeathsPerMinute: 0.20,
		Weights: Weights{
			MetricMapPresence:     0.30,
			MetricUtility:         0.30,
			MetricTeamfightImpact: 0.20,
			MetricVisionControl:   0.20,
		},
		StateModifiers: [MetricCount]float64{
			MetricFarmEfficiency:  0.6,
			MetricDamageOutput:    0.8,
			MetricVisionControl:   1.2,
			MetricUtility:         1.1,
			MetricSurvival:        0.8,
			MetricMapPresence:     1.2,
			MetricSpaceCreation:   1.0,
			MetricObjectiveFocus:  0.9,
			MetricTeamfightImpact: 1.1,
		},
		ExceptionalEmphasis: [7]float64{0.15, 0.05, 0.20, 0.10, 0.20, 0.15, 0.15},
	},
	domain.RoleHardSupport: {
		Phases: [domain.PhaseCount]PhaseExpectation{
			domain.PhaseEarly: {CSPerMinute: 1, GPM: 200},
			domain.PhaseMid:   {CSPerMinute: 1, GPM: 230},
			domain.PhaseLate:  {CSPerMinute: 1, GPM: 250},
		},
		DamageShare:     0.05,
		BuildingShare:   0.05,
		DeathsPerMinute: 0.25,
		Weights: Weights{
			MetricVisionControl:   0.30,
			MetricUtility:         0.30,
			MetricSurvival:        0.20,
			MetricTeamfightImpact: 0.20,
		},
		StateModifiers: [MetricCount]float64{
			MetricFarmEfficiency:  0.5,
			MetricDamageOutput:    0.7,
			MetricVisionControl:   1.3,
			MetricUtility:         1.2,
			MetricSurvival:        0.7,
			MetricMapPresence:     1.0,
			MetricSpaceCreation:   0.9,
			MetricObjectiveFocus:  0.8,
			MetricTeamfightImpact: 1.1,
		},
		ExceptionalEmphasis: [7]float64{0.10, 0.05, 0.15, 0.10, 0.20, 0.25, 0.15},
	},
}

// ProfileFor returns the role's tables. An out-of-range role is a validation error.
func ProfileFor(role domain.Role) (Profile, error) {
	if !role.Valid() {
		return Profile{}, &domain.ValidationError{Field: "role", Reason: role.String() + " is not a known role"}
	}
	return profiles[role], nil
}
