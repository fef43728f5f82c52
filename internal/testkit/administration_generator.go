package testkit

import (
	"fmt"
	"math/rand"
	"time"
)

// AdministrationConfig configures the synthetic administration generator
type AdministrationConfig struct {
	Respondents    int       `json:"respondents"`
	Activities     []string  `json:"activities"`
	PauseRate      float64   `json:"pause_rate"`      // share of sessions with a pause action
	IncompleteRate float64   `json:"incomplete_rate"` // share that never log an end action
	OvernightRate  float64   `json:"overnight_rate"`  // share that start late and cross midnight
	ForgottenRate  float64   `json:"forgotten_rate"`  // share left open for more than a day
	BadRowRate     float64   `json:"bad_row_rate"`    // share of rows with a garbled date
	MeanDuration   float64   `json:"mean_duration_minutes"`
	Start          time.Time `json:"start"`
	Seed           int64     `json:"seed"`
}

// DefaultAdministrationConfig returns a small mixed administration
func DefaultAdministrationConfig() AdministrationConfig {
	return AdministrationConfig{
		Respondents:    200,
		Activities:     []string{"Form A", "Form B", "Form C"},
		PauseRate:      0.1,
		IncompleteRate: 0.08,
		OvernightRate:  0.03,
		ForgottenRate:  0.02,
		BadRowRate:     0.01,
		MeanDuration:   40,
		Start:          time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		Seed:           42,
	}
}

// AdministrationGenerator produces a realistic, noisy action log
type AdministrationGenerator struct {
	config AdministrationConfig
	rng    *rand.Rand
}

// NewAdministrationGenerator creates a generator; the same seed yields the same log
func NewAdministrationGenerator(config AdministrationConfig) *AdministrationGenerator {
	return &AdministrationGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the log
func (g *AdministrationGenerator) Generate(source string) *LogBuilder {
	b := NewLogBuilder(source)
	for i := 0; i < g.config.Respondents; i++ {
		respondent := fmt.Sprintf("A%05d", i+1)
		activity := g.config.Activities[g.rng.Intn(len(g.config.Activities))]
		g.respondentJourney(b, respondent, activity)
	}
	return b
}

func (g *AdministrationGenerator) respondentJourney(b *LogBuilder, respondent, activity string) {
	day := g.config.Start.AddDate(0, 0, g.rng.Intn(10))
	start := day.Add(time.Duration(8+g.rng.Intn(8))*time.Hour + time.Duration(g.rng.Intn(60))*time.Minute)

	duration := time.Duration((g.config.MeanDuration/2 + g.rng.ExpFloat64()*g.config.MeanDuration/2) * float64(time.Minute))
	if g.rng.Float64() < 0.05 {
		duration = time.Duration(g.rng.Intn(50)+5) * time.Second // abandoned almost instantly
	}

	roll := g.rng.Float64()
	switch {
	case roll < g.config.OvernightRate:
		start = day.Add(23*time.Hour + 30*time.Minute)
		duration = time.Duration(40+g.rng.Intn(40)) * time.Minute
	case roll < g.config.OvernightRate+g.config.ForgottenRate:
		duration = time.Duration(26+g.rng.Intn(48)) * time.Hour
	}

	b.Action(respondent, activity, BeginLabel(activity), start)
	b.Action(respondent, activity, "Start section 1", start.Add(30*time.Second))

	if g.rng.Float64() < g.config.PauseRate {
		b.Action(respondent, activity, PauseLabel, start.Add(duration/2))
		b.Action(respondent, activity, "Resume activity", start.Add(duration/2+10*time.Minute))
	}

	if g.rng.Float64() < g.config.BadRowRate {
		b.Raw(map[string]string{
			ColRespondent: respondent,
			ColActivity:   activity,
			ColDate:       "31/31/2025",
			ColTime:       "25:61:00",
			ColAction:     "Answer item",
		})
	}

	if g.rng.Float64() < g.config.IncompleteRate {
		return
	}
	b.Action(respondent, activity, EndLabel(activity), start.Add(duration))
}
