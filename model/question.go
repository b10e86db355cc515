package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/flow"
)

type QuestionType string

const (
	ShortText           QuestionType = "ShortText"
	LongText            QuestionType = "LongText"
	Number              QuestionType = "Number"
	Date                QuestionType = "Date"
	YesNo               QuestionType = "YesNo"
	Rating              QuestionType = "Rating"
	NPS                 QuestionType = "NPS"
	Slider              QuestionType = "Slider"
	MultipleChoice      QuestionType = "MultipleChoice"
	Checkboxes          QuestionType = "Checkboxes"
	Dropdown            QuestionType = "Dropdown"
	MultiSelectDropdown QuestionType = "MultiSelectDropdown"
	Ranking             QuestionType = "Ranking"
	Likert              QuestionType = "Likert"
	Matrix              QuestionType = "Matrix"
	Section             QuestionType = "Section"
	PageBreak           QuestionType = "PageBreak"
)

// RequiresOptions reports whether the question type needs at least one
// active option to be answerable.
func (t QuestionType) RequiresOptions() bool {
	switch t {
	case MultipleChoice, Checkboxes, Dropdown, MultiSelectDropdown, Ranking, Likert, Matrix:
		return true
	}
	return false
}

type Question struct {
	ID           uuid.UUID        `json:"id"`
	SurveyID     uuid.UUID        `json:"surveyId"`
	Order        int              `json:"order"`
	Text         string           `json:"text"`
	Type         QuestionType     `json:"type"`
	Required     bool             `json:"required"`
	Config       QuestionConfig   `json:"config,omitempty"`
	HelpText     string           `json:"helpText,omitempty"`
	DefaultValue string           `json:"defaultValue,omitempty"`
	Options      []QuestionOption `json:"options,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// FlowQuestion converts to the resolver's view.
func (q Question) FlowQuestion() flow.Question {
	return flow.Question{ID: q.ID, Order: q.Order, Text: q.Text, Required: q.Required}
}

func FlowQuestions(questions []Question) []flow.Question {
	out := make([]flow.Question, len(questions))
	for i, q := range questions {
		out[i] = q.FlowQuestion()
	}
	return out
}

// QuestionConfig is the per-type configuration payload. Exactly one branch
// is populated, keyed by the question type; types with no extra settings
// (YesNo, Section, PageBreak...) carry none.
type QuestionConfig struct {
	Text   *TextConfig   `json:"text,omitempty"`
	Number *NumberConfig `json:"number,omitempty"`
	Rating *RatingConfig `json:"rating,omitempty"`
	Slider *SliderConfig `json:"slider,omitempty"`
	NPS    *NPSConfig    `json:"nps,omitempty"`
	Choice *ChoiceConfig `json:"choice,omitempty"`
	Scale  *ScaleConfig  `json:"scale,omitempty"`
}

type TextConfig struct {
	Placeholder string `json:"placeholder,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
}

type NumberConfig struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

type RatingConfig struct {
	Max int `json:"max"`
}

type SliderConfig struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

type NPSConfig struct {
	LowLabel  string `json:"lowLabel,omitempty"`
	HighLabel string `json:"highLabel,omitempty"`
}

type ChoiceConfig struct {
	AllowOther bool `json:"allowOther,omitempty"`
	Randomize  bool `json:"randomize,omitempty"`
}

// ScaleConfig holds Likert scale labels and Matrix column labels; both are
// CSV-encoded in authoring payloads and at rest.
type ScaleConfig struct {
	Scale   []string `json:"scale,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

func (c ScaleConfig) ScaleCSV() string   { return strings.Join(c.Scale, ",") }
func (c ScaleConfig) ColumnsCSV() string { return strings.Join(c.Columns, ",") }

func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsZero reports whether no branch is populated.
func (c QuestionConfig) IsZero() bool {
	return c.Text == nil && c.Number == nil && c.Rating == nil &&
		c.Slider == nil && c.NPS == nil && c.Choice == nil && c.Scale == nil
}

// EncodeConfig serializes a config for storage, dropping branches that do
// not belong to the question type. Returns "" for an empty config.
func EncodeConfig(t QuestionType, c QuestionConfig) string {
	trimmed := QuestionConfig{}
	switch t {
	case ShortText, LongText, Date:
		trimmed.Text = c.Text
	case Number:
		trimmed.Text = c.Text
		trimmed.Number = c.Number
	case Rating:
		trimmed.Rating = c.Rating
		if trimmed.Rating == nil {
			trimmed.Rating = &RatingConfig{Max: 5}
		}
	case Slider:
		trimmed.Slider = c.Slider
	case NPS:
		trimmed.NPS = c.NPS
	case Likert, Matrix:
		trimmed.Choice = c.Choice
		trimmed.Scale = c.Scale
	default:
		if t.RequiresOptions() {
			trimmed.Choice = c.Choice
		}
	}
	if trimmed.IsZero() {
		return ""
	}
	raw, err := json.Marshal(trimmed)
	if err != nil {
		return ""
	}
	return string(raw)
}

// ParseConfig decodes a stored config blob. Malformed data yields the zero
// config rather than an error.
func ParseConfig(raw string) QuestionConfig {
	var c QuestionConfig
	if strings.TrimSpace(raw) == "" {
		return c
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return QuestionConfig{}
	}
	return c
}
