package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"moba-mmr/internal/domain"
	"moba-mmr/internal/events"
	"moba-mmr/internal/matchmaker"
	"moba-mmr/internal/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

type styles struct {
	header      lipgloss.Style
	exceptional lipgloss.Style
	excellent   lipgloss.Style
	veryGood    lipgloss.Style
	normal      lipgloss.Style
	pass        lipgloss.Style
	fail        lipgloss.Style
	dim         lipgloss.Style
}

func newStyles() styles {
	return styles{
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		exceptional: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		excellent:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		veryGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		normal:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		pass:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fail:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s styles) tier(t domain.PerformanceTier) string {
	switch t {
	case domain.TierExceptional:
		return s.exceptional.Render(t.String())
	case domain.TierExcellent:
		return s.excellent.Render(t.String())
	case domain.TierVeryGood:
		return s.veryGood.Render(t.String())
	}
	return s.normal.Render(t.String())
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintAnalysis writes one row per analysed player, grouped by side.
func PrintAnalysis(w io.Writer, res *service.AnalysisResult) {
	st := newStyles()
	fmt.Fprintf(w, "\n%s  winner: %s\n\n", st.header.Render("Match "+res.MatchID), res.Winner)

	outcomes := append([]service.PlayerOutcome(nil), res.Outcomes...)
	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].Side != outcomes[j].Side {
			return outcomes[i].Side < outcomes[j].Side
		}
		return outcomes[i].Role < outcomes[j].Role
	})

	table := newTable(w)
	table.Header("PLAYER", "SIDE", "ROLE", "STATE", "SCORE", "EXC", "TIER", "SAFETY", "DELTA", "RATING")
	for _, out := range outcomes {
		verdict := st.pass.Render("ok")
		if !out.Safety.Passed {
			verdict = st.fail.Render(out.Safety.Check)
		}
		delta := fmt.Sprintf("%+.1f", out.Decision.Delta)
		if out.Decision.Protected {
			delta += "*"
		}
		table.Append(
			out.PlayerID,
			out.Side,
			out.Role.String(),
			out.Performance.State.String(),
			fmt.Sprintf("%.3f", out.Performance.OverallScore),
			fmt.Sprintf("%.3f", out.Exceptional.OverallScore),
			st.tier(out.Exceptional.Tier),
			verdict,
			delta,
			fmt.Sprintf("%.0f", out.Record.RatingAfter),
		)
	}
	table.Render()
	fmt.Fprintln(w, st.dim.Render("* loss protected by performance tier"))
}

// PrintMatches writes the matches formed by a matchmaking run.
func PrintMatches(w io.Writer, outcomes []matchmaker.Outcome, remaining int) {
	st := newStyles()
	if len(outcomes) == 0 {
		fmt.Fprintf(w, "no match above the quality threshold (%d players waiting)\n", remaining)
		return
	}

	table := newTable(w)
	table.Header("MATCH", "QUALITY", "BALANCE", "ROLES", "SKILL", "HEROES", "TEAM 1", "TEAM 2", "EVALUATED")
	for _, out := range outcomes {
		q := out.Quality
		table.Append(
			shortID(out.Match.ID),
			fmt.Sprintf("%.3f", q.OverallScore),
			fmt.Sprintf("%.3f", q.TeamBalance),
			fmt.Sprintf("%.3f", q.RoleSynergy),
			fmt.Sprintf("%.3f", q.SkillBalance),
			fmt.Sprintf("%.3f", q.HeroSynergy),
			teamLine(out.Match.Team1),
			teamLine(out.Match.Team2),
			fmt.Sprintf("%d", out.Evaluated),
		)
	}
	table.Render()
	fmt.Fprintln(w, st.dim.Render(fmt.Sprintf("%d players still waiting", remaining)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func payloadString(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case json.RawMessage:
		return string(v)
	case string:
		return v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(b)
}

func teamLine(t *domain.Team) string {
	parts := make([]string, 0, t.Size())
	for _, p := range t.Players {
		if role, ok := t.RoleOf(p.ID); ok {
			parts = append(parts, fmt.Sprintf("%s(%s)", p.ID, role))
			continue
		}
		parts = append(parts, p.ID)
	}
	return strings.Join(parts, " ")
}

// PrintPlayer writes role ratings and the recent history of one player.
func PrintPlayer(w io.Writer, p *domain.Player) {
	st := newStyles()
	name := p.ID
	if p.Name != "" {
		name = fmt.Sprintf("%s (%s)", p.Name, p.ID)
	}
	fmt.Fprintf(w, "\n%s  rating %.0f  behavior %d  tilt %.1f\n\n",
		st.header.Render(name), p.Rating(), p.BehaviorScore, p.TiltFactor())

	ratings := newTable(w)
	ratings.Header("ROLE", "RATING", "PREFERRED")
	r := p.Ratings()
	for _, role := range domain.AllRoles() {
		preferred := ""
		if p.Prefers(role) {
			preferred = "yes"
		}
		ratings.Append(role.String(), fmt.Sprintf("%.0f", r[role]), preferred)
	}
	ratings.Render()

	history := p.History()
	if len(history) == 0 {
		fmt.Fprintln(w, st.dim.Render("no matches recorded"))
		return
	}

	table := newTable(w)
	table.Header("PLAYED", "MATCH", "ROLE", "RESULT", "SCORE", "TIER", "DELTA", "RATING")
	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i]
		result := st.fail.Render("loss")
		if rec.Victory {
			result = st.pass.Render("win")
		}
		table.Append(
			rec.PlayedAt.Format("2006-01-02 15:04"),
			rec.MatchID,
			rec.Role.String(),
			result,
			fmt.Sprintf("%.3f", rec.Score),
			st.tier(rec.Tier),
			fmt.Sprintf("%+.1f", rec.RatingDelta),
			fmt.Sprintf("%.0f", rec.RatingAfter),
		)
	}
	table.Render()
}

// PrintEvents writes stored events, newest first.
func PrintEvents(w io.Writer, recs []events.Record) {
	st := newStyles()
	if len(recs) == 0 {
		fmt.Fprintln(w, st.dim.Render("no events"))
		return
	}
	table := newTable(w)
	table.Header("TIME", "KIND", "SUBJECT", "PAYLOAD")
	for _, rec := range recs {
		kind := string(rec.Kind)
		if rec.Kind == events.KindSafetyViolation {
			kind = st.fail.Render(kind)
		}
		table.Append(
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			kind,
			rec.Subject,
			payloadString(rec.Payload),
		)
	}
	table.Render()
}
