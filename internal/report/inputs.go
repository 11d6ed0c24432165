package report

import (
	"strings"
	"time"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
)

// Template selects the tone of the boilerplate text. Layout is identical
// across templates.
type Template string

const (
	TemplateExecutive      Template = "executive"
	TemplateImpactShowcase Template = "impact-showcase"
	TemplateStrategic      Template = "strategic"
)

// Templates lists the accepted templates
var Templates = []Template{TemplateExecutive, TemplateImpactShowcase, TemplateStrategic}

// ParseTemplate accepts a template name; empty means executive
func ParseTemplate(s string) (Template, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TemplateExecutive, nil
	}
	for _, t := range Templates {
		if string(t) == s {
			return t, nil
		}
	}
	return "", apierrors.ValidationError("template", "template must be executive, impact-showcase or strategic")
}

// Window filters stories by publish date
type Window string

const (
	WindowAllTime     Window = "all-time"
	WindowLastQuarter Window = "last-quarter"
	WindowLast6Months Window = "last-6-months"
	WindowLastYear    Window = "last-year"
)

// ParseWindow accepts a window name; empty means all-time
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WindowAllTime, nil
	case WindowAllTime, WindowLastQuarter, WindowLast6Months, WindowLastYear:
		return w, nil
	}
	return "", apierrors.ValidationError("window", "window must be all-time, last-quarter, last-6-months or last-year")
}

// Since returns the earliest publish time included, or false when the
// window is unbounded.
func (w Window) Since(now time.Time) (time.Time, bool) {
	switch w {
	case WindowLastQuarter:
		return now.AddDate(0, -3, 0), true
	case WindowLast6Months:
		return now.AddDate(0, -6, 0), true
	case WindowLastYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Label is the human form of the window for the cover page
func (w Window) Label() string {
	switch w {
	case WindowLastQuarter:
		return "Last quarter"
	case WindowLast6Months:
		return "Last 6 months"
	case WindowLastYear:
		return "Last 12 months"
	}
	return "All time"
}

// TextFields are the caller-editable narrative fields. Empty fields fall
// back to the template's boilerplate.
type TextFields struct {
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
	Closing        string `json:"closing"`
}

// Request asks for one report
type Request struct {
	DonorID  string     `json:"donor_id"`
	Template string     `json:"template"`
	Window   string     `json:"window"`
	StoryIDs []string   `json:"story_ids"`
	Text     TextFields `json:"text"`
}

// boilerplate holds per-template defaults. %s is the donor name.
var boilerplate = map[Template]TextFields{
	TemplateExecutive: {
		Title:          "Impact Report",
		Subtitle:       "A summary of outcomes delivered with %s",
		Summary:        "This report summarises the measurable outcomes of the programmes %s has funded. Every figure below is drawn from the stories published by our charity partners, so each number has a real community behind it.",
		Recommendation: "Continued investment in the programmes highlighted here would sustain the momentum shown and extend support to more beneficiaries over the coming year.",
		Closing:        "Thank you for your continued partnership. The results in this report belong to the communities you support and the charities who serve them.",
	},
	TemplateImpactShowcase: {
		Title:          "Our Shared Impact",
		Subtitle:       "Stories of change made possible by %s",
		Summary:        "Behind every number in this report is a person whose life looks different today. These stories show what the generosity of %s has made possible, in the words of the people and charities involved.",
		Recommendation: "Sharing these stories with colleagues and customers multiplies their reach. We recommend featuring them in your next internal update and on your social channels.",
		Closing:        "From all of us, and from everyone whose story appears here: thank you. None of this would have happened without you.",
	},
	TemplateStrategic: {
		Title:          "Strategic Impact Review",
		Subtitle:       "Programme performance and outlook for %s",
		Summary:        "This review assesses the portfolio of programmes funded by %s against engagement and outcome indicators, and identifies where further investment is likely to deliver the greatest return.",
		Recommendation: "Prioritise programmes with the strongest outcome-per-pound ratio and consider multi-year commitments to reduce delivery risk for partner charities.",
		Closing:        "We look forward to reviewing these results together and agreeing priorities for the next funding cycle.",
	},
}

// resolveText fills empty fields from the template and substitutes the
// donor name into the defaults.
func resolveText(t Template, in TextFields, donorName string) TextFields {
	def := boilerplate[t]
	pick := func(v, fallback string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return strings.ReplaceAll(fallback, "%s", donorName)
	}
	return TextFields{
		Title:          pick(in.Title, def.Title),
		Subtitle:       pick(in.Subtitle, def.Subtitle),
		Summary:        pick(in.Summary, def.Summary),
		Recommendation: pick(in.Recommendation, def.Recommendation),
		Closing:        pick(in.Closing, def.Closing),
	}
}
