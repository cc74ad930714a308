// Package shorts classifies stored videos as short-form or long-form.
package shorts

import "strings"

// Short-form title keywords, both language variants.
const (
	keywordShortEN = "short"
	keywordShortJA = "ショート"
)

// Default cutoffs. The observed pipeline variants disagree on the duration
// boundary (61s vs 65s); both are explicit strategy fields, not branches.
const (
	DefaultDurationCutoff      = 65
	DefaultLightDurationCutoff = 61
	DefaultLongFormCutoff      = 300
	DefaultScoreThreshold      = 2
)

// PageSignals holds page-level observations for one video.
type PageSignals struct {
	// Fetched reports whether the watch page was retrieved; the other page
	// fields are meaningless when false.
	Fetched         bool
	CanonicalShorts bool
	KeywordShort    bool
	Portrait        bool
	ShortsURLAlive  bool
}

// Inputs are the independent signals the scorer combines for one video.
type Inputs struct {
	DurationSeconds int
	Title           string
	ShortsPlayable  bool
	Page            PageSignals
}

// Signal is one weighted scoring rule.
type Signal struct {
	Name   string
	Weight int
	Match  func(Inputs) bool
}

// Thresholds are the tunable cutoffs shared by both presets. Zero fields
// fall back to the package defaults.
type Thresholds struct {
	DurationCutoffSeconds      int
	LightDurationCutoffSeconds int
	LongFormCutoffSeconds      int
	ScoreThreshold             int
}

func (t Thresholds) withDefaults() Thresholds {
	if t.DurationCutoffSeconds <= 0 {
		t.DurationCutoffSeconds = DefaultDurationCutoff
	}
	if t.LightDurationCutoffSeconds <= 0 {
		t.LightDurationCutoffSeconds = DefaultLightDurationCutoff
	}
	if t.LongFormCutoffSeconds <= 0 {
		t.LongFormCutoffSeconds = DefaultLongFormCutoff
	}
	if t.ScoreThreshold <= 0 {
		t.ScoreThreshold = DefaultScoreThreshold
	}
	return t
}

// Strategy is an ordered list of weighted signals plus a threshold. A video
// whose duration exceeds LongFormCutoffSeconds is classified long-form
// immediately, regardless of other signals.
type Strategy struct {
	Name                  string
	Signals               []Signal
	Threshold             int
	LongFormCutoffSeconds int

	// UsesPageSignals tells the classifier whether this strategy reads
	// page-level observations, so it can skip fetching them otherwise.
	UsesPageSignals bool
}

// Classify returns the short-form verdict and the computed score. The
// verdict is always a definite boolean.
func (s Strategy) Classify(in Inputs) (bool, int) {
	if s.LongFormCutoffSeconds > 0 && in.DurationSeconds > s.LongFormCutoffSeconds {
		return false, 0
	}

	score := 0
	for _, sig := range s.Signals {
		if sig.Match(in) {
			score += sig.Weight
		}
	}

	return score >= s.Threshold, score
}

// TitleHasShortKeyword reports whether the title carries a short-form
// keyword in either language variant.
func TitleHasShortKeyword(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, keywordShortEN) || strings.Contains(lower, keywordShortJA)
}

// PageSignalStrategy is the full scored variant: duration and title are weak
// signals, page-level observations carry more weight, and the verdict needs
// a score of at least the configured threshold.
func PageSignalStrategy(t Thresholds) Strategy {
	t = t.withDefaults()
	return Strategy{
		Name:                  "page-signal",
		Threshold:             t.ScoreThreshold,
		LongFormCutoffSeconds: t.LongFormCutoffSeconds,
		UsesPageSignals:       true,
		Signals: []Signal{
			{
				Name:   "canonical-shorts-link",
				Weight: 2,
				Match:  func(in Inputs) bool { return in.Page.Fetched && in.Page.CanonicalShorts },
			},
			{
				Name:   "page-keyword-short",
				Weight: 2,
				Match:  func(in Inputs) bool { return in.Page.Fetched && in.Page.KeywordShort },
			},
			{
				Name:   "portrait-aspect",
				Weight: 1,
				Match:  func(in Inputs) bool { return in.Page.Fetched && in.Page.Portrait },
			},
			{
				Name:   "shorts-url-alive",
				Weight: 2,
				Match:  func(in Inputs) bool { return in.Page.ShortsURLAlive },
			},
			{
				Name:   "title-keyword",
				Weight: 1,
				Match:  func(in Inputs) bool { return TitleHasShortKeyword(in.Title) },
			},
			{
				Name:   "short-duration",
				Weight: 1,
				Match:  func(in Inputs) bool { return in.DurationSeconds <= t.DurationCutoffSeconds },
			},
		},
	}
}

// LightStrategy is the cheap variant: an OR of the strong binary signals
// (duration boundary, platform shorts-playable flag, title keyword), no
// page fetches.
func LightStrategy(t Thresholds) Strategy {
	t = t.withDefaults()
	return Strategy{
		Name:                  "light",
		Threshold:             1,
		LongFormCutoffSeconds: t.LongFormCutoffSeconds,
		Signals: []Signal{
			{
				Name:   "short-duration",
				Weight: 1,
				Match: func(in Inputs) bool {
					return in.DurationSeconds > 0 && in.DurationSeconds <= t.LightDurationCutoffSeconds
				},
			},
			{
				Name:   "shorts-playable",
				Weight: 1,
				Match:  func(in Inputs) bool { return in.ShortsPlayable },
			},
			{
				Name:   "title-keyword",
				Weight: 1,
				Match:  func(in Inputs) bool { return TitleHasShortKeyword(in.Title) },
			},
		},
	}
}
