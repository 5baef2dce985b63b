package scoring

import (
	"encoding/json"
	"fmt"
)

type Metric int

const (
	MetricFarmEfficiency Metric = iota
	MetricDamageOutput
	MetricVisionControl
	MetricUtility
	MetricSurvival
	MetricMapPresence
	MetricSpaceCreation
	MetricObjectiveFocus
	MetricTeamfightImpact

	MetricCount = 9
)

var metricNames = [MetricCount]string{
	MetricFarmEfficiency:  "farm_efficiency",
	MetricDamageOutput:    "damage_output",
	MetricVisionControl:   "vision_control",
	MetricUtility:         "utility",
	MetricSurvival:        "survival",
	MetricMapPresence:     "map_presence",
	MetricSpaceCreation:   "space_creation",
	MetricObjectiveFocus:  "objective_focus",
	MetricTeamfightImpact: "teamfight_impact",
}

func (m Metric) String() string {
	if m < 0 || m >= MetricCount {
		return fmt.Sprintf("metric(%d)", int(m))
	}
	return metricNames[m]
}

// Scores holds one value per metric. As a SubScoreSet every value is in [0,1];
// adjusted vectors produced by the aggregator may exceed 1.
type Scores [MetricCount]float64

type SubScoreSet = Scores

func (s Scores) Get(m Metric) float64 {
	return s[m]
}

func (s Scores) Map() map[string]float64 {
	out := make(map[string]float64, MetricCount)
	for i, v := range s {
		out[metricNames[i]] = v
	}
	return out
}

func (s Scores) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

func (s *Scores) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i, name := range metricNames {
		s[i] = raw[name]
	}
	return nil
}

// Weights is a per-metric weight row; rows used for aggregation sum to 1.
type Weights [MetricCount]float64

func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

func (w Weights) Apply(s Scores) float64 {
	var total float64
	for i, v := range w {
		total += v * s[i]
	}
	return total
}
