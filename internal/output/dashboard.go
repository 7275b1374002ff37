package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/lifestream/internal/journal"
	"github.com/blackwell-systems/lifestream/internal/predict"
	"github.com/blackwell-systems/lifestream/internal/signal"
	"github.com/blackwell-systems/lifestream/internal/stream"
	"github.com/blackwell-systems/lifestream/internal/watcher"
)

const (
	gaugeWidth     = 20
	recentMemories = 3
)

// Dashboard renders successive states, showing trend arrows against the
// previous render.
type Dashboard struct {
	loc  *time.Location
	prev *signal.Snapshot
}

// NewDashboard creates a dashboard that prints times in loc (nil means
// time.Local).
func NewDashboard(loc *time.Location) *Dashboard {
	if loc == nil {
		loc = time.Local
	}
	return &Dashboard{loc: loc}
}

// Render formats st as of now and remembers it for the next trend.
func (d *Dashboard) Render(now time.Time, st stream.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, " %s  %s\n", StyleBold.Render("lifestream"), StyleMuted.Render(now.In(d.loc).Format("2006-01-02 15:04:05 MST")))

	sb.WriteString(d.biometrics(st.Biometrics))
	sb.WriteString(environment(st.Environmental))
	sb.WriteString(digital(st.Digital))
	sb.WriteString(emotional(st.Emotional))
	sb.WriteString(patterns(st))
	sb.WriteString(d.predictions(st.Predictions))
	sb.WriteString(d.memories(st))

	snap := st.Snapshot.Clone()
	d.prev = &snap
	return sb.String()
}

func row(label, value string, extra ...string) string {
	// Width styles wrap, so long values are rendered unpadded.
	v := StyleBold.Render(value)
	if visualLen(value) <= valueWidth {
		v = StyleValue.Render(value)
	}
	line := fmt.Sprintf(" %s %s", StyleLabel.Render(label), v)
	for _, e := range extra {
		if e != "" {
			line += " " + e
		}
	}
	return line + "\n"
}

func gaugeRow(label string, v float64, higherIsBetter bool) string {
	return fmt.Sprintf(" %s %s\n", StyleLabel.Render(label), Gauge(v, gaugeWidth, higherIsBetter))
}

func (d *Dashboard) biometrics(b signal.Biometrics) string {
	var hrTrend, hrvTrend string
	if d.prev != nil {
		// A rising heart rate is not an improvement; rising HRV is.
		hrTrend = TrendArrow(float64(b.HeartRate-d.prev.Biometrics.HeartRate), false)
		hrvTrend = TrendArrow(b.HeartRateVariability-d.prev.Biometrics.HeartRateVariability, true)
	}

	var sb strings.Builder
	sb.WriteString(Section("Biometrics") + "\n")
	sb.WriteString(row("Heart rate", fmt.Sprintf("%d bpm", b.HeartRate), hrTrend))
	sb.WriteString(row("HRV", fmt.Sprintf("%.1f ms", b.HeartRateVariability), hrvTrend))
	sb.WriteString(row("Respiration", fmt.Sprintf("%.1f /min", b.RespiratoryRate)))
	sb.WriteString(row("Blood pressure", fmt.Sprintf("%.0f/%.0f", b.BloodPressure.Systolic, b.BloodPressure.Diastolic)))
	sb.WriteString(row("Blood oxygen", fmt.Sprintf("%.1f%%", b.BloodOxygen)))
	sb.WriteString(row("Skin temperature", fmt.Sprintf("%.1f°F", b.SkinTemperature)))
	sb.WriteString(gaugeRow("Alpha waves", b.BrainWaves.Alpha, true))
	sb.WriteString(gaugeRow("Beta waves", b.BrainWaves.Beta, true))
	return sb.String()
}

func environment(e signal.Environmental) string {
	var sb strings.Builder
	sb.WriteString(Section("Environment") + "\n")
	sb.WriteString(row("Temperature", fmt.Sprintf("%.1f°F", e.Temperature), StyleMuted.Render(e.Weather)))
	sb.WriteString(row("Humidity", fmt.Sprintf("%.0f%%", e.Humidity)))
	sb.WriteString(row("Light", fmt.Sprintf("%.0f lux", e.LightLevel)))
	sb.WriteString(row("Noise", fmt.Sprintf("%.0f dB", e.NoiseLevel)))
	sb.WriteString(row("Air quality", fmt.Sprintf("%.0f", e.AirQuality)))
	return sb.String()
}

func digital(dg signal.Digital) string {
	var sb strings.Builder
	sb.WriteString(Section("Digital") + "\n")
	sb.WriteString(row("Screen time", fmt.Sprintf("%.1f min", dg.ScreenTime)))
	sb.WriteString(row("Notifications", fmt.Sprintf("%d", dg.Notifications)))
	sb.WriteString(gaugeRow("Focus", dg.FocusScore, true))
	sb.WriteString(gaugeRow("Productivity", dg.Productivity, true))
	return sb.String()
}

func emotional(e signal.Emotional) string {
	var sb strings.Builder
	sb.WriteString(Section("Emotional") + "\n")
	sb.WriteString(row("Mood", e.Mood))
	sb.WriteString(gaugeRow("Stress", e.Stress, false))
	sb.WriteString(gaugeRow("Energy", e.Energy, true))
	sb.WriteString(gaugeRow("Valence", e.Valence, true))
	return sb.String()
}

func patterns(st stream.State) string {
	var sb strings.Builder
	sb.WriteString(Section("Patterns") + "\n")
	if len(st.Patterns) == 0 {
		sb.WriteString(" " + StyleMuted.Render("none detected") + "\n")
		return sb.String()
	}
	tbl := NewTable("Pattern", "Confidence", "Description").AlignRight(1)
	for _, p := range st.Patterns {
		tbl.AddRow(string(p.Type), fmt.Sprintf("%.0f%%", p.Confidence*100), p.Description)
	}
	sb.WriteString(indent(tbl.Render()))
	return sb.String()
}

func (d *Dashboard) predictions(ps []predict.Prediction) string {
	var sb strings.Builder
	sb.WriteString(Section("Predictions") + "\n")
	if len(ps) == 0 {
		sb.WriteString(" " + StyleMuted.Render("waiting for first forecast") + "\n")
		return sb.String()
	}
	for _, p := range ps {
		sb.WriteString(row(string(p.Type), d.describe(p)))
	}
	return sb.String()
}

func (d *Dashboard) describe(p predict.Prediction) string {
	switch p.Type {
	case predict.StressPeak:
		if !p.Rising {
			return StyleSuccess.Render("stable")
		}
		return StyleWarning.Render(fmt.Sprintf("rising, %.0f%% in %s", p.Probability*100, p.Timeframe))
	case predict.EnergyLevel:
		return fmt.Sprintf("%.2f in %s (%s)", p.Predicted, p.Timeframe, strings.Join(p.OptimalActivities, ", "))
	case predict.FocusWindow:
		start := "?"
		if p.Start != nil {
			start = p.Start.In(d.loc).Format("15:04")
		}
		return fmt.Sprintf("%s for %.0f min, quality %.2f", start, p.DurationMinutes, p.Quality)
	case predict.Wellness:
		return fmt.Sprintf("%.2f %s (%s)", p.Score, p.Trend, p.Change)
	default:
		return string(p.Type)
	}
}

func (d *Dashboard) memories(st stream.State) string {
	var sb strings.Builder
	sb.WriteString(Section(fmt.Sprintf("Memories (%d)", len(st.Memories))) + "\n")
	start := max(len(st.Memories)-recentMemories, 0)
	for _, m := range st.Memories[start:] {
		types := make([]string, 0, len(m.Patterns))
		for _, p := range m.Patterns {
			types = append(types, string(p.Type))
		}
		fmt.Fprintf(&sb, " %s  %s  %s\n",
			StyleMuted.Render(m.Timestamp.In(d.loc).Format("15:04:05")),
			StyleBold.Render(fmt.Sprintf("%.1f", m.Significance)),
			strings.Join(types, ", "))
	}
	return sb.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return " " + strings.Join(lines, "\n ") + "\n"
}

// RenderAlert formats one watcher alert as a single line.
func RenderAlert(a watcher.Alert, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	level := LevelStyle(a.Level).Render(fmt.Sprintf("%-8s", strings.ToUpper(a.Level)))
	return fmt.Sprintf("%s %s %s: %s", StyleMuted.Render(a.Time.In(loc).Format("15:04:05")), level, StyleBold.Render(a.Title), a.Message)
}

// RenderSummary formats a journal session summary.
func RenderSummary(s journal.Summary) string {
	var sb strings.Builder
	sb.WriteString(Section("Journal") + "\n")
	sb.WriteString(row("Session", s.Session.UUID))
	sb.WriteString(row("Started", s.Session.StartedAt.Local().Format(time.DateTime)))
	ended := "running"
	if s.Session.EndedAt != nil {
		ended = s.Session.EndedAt.Local().Format(time.DateTime)
	}
	sb.WriteString(row("Ended", ended))
	sb.WriteString(row("Version", s.Session.Version))
	sb.WriteString(row("Seed", fmt.Sprintf("%d", s.Session.Seed)))
	sb.WriteString(row("Events", fmt.Sprintf("%d", s.Total)))
	if len(s.Counts) == 0 {
		return sb.String()
	}

	sb.WriteString("\n")
	tbl := NewTable("Event", "Count", "First", "Last").AlignRight(1)
	for _, c := range s.Counts {
		tbl.AddRow(c.Name, fmt.Sprintf("%d", c.Count), c.First.Local().Format(time.TimeOnly), c.Last.Local().Format(time.TimeOnly))
	}
	sb.WriteString(indent(tbl.Render()))
	return sb.String()
}
