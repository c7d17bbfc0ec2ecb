// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format renders classified values for people. A single Formatter
// serves table cells (Compact), detail panels (Full) and single-line exports
// (Plain), so the same rules apply everywhere a value is shown.
package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/value"
	"github.com/pdiddy/resultlens/pkg/types"
)

// Mode selects how much of a value is rendered.
type Mode int

const (
	// Compact is for table cells and badges: short, truncated.
	Compact Mode = iota
	// Full is for detail panels: every key of every shown record.
	Full
	// Plain is a single untruncated line for exports and grouping keys.
	Plain
)

const (
	// EmptyLabel marks an intentionally empty list, as opposed to a missing value.
	EmptyLabel = "None"

	defaultCompactItems = 2
	defaultFullItems    = 5
)

// Display is a rendered value.
type Display struct {
	// Text is the value as one string.
	Text string `json:"text"`

	// Items holds one entry per badge or record block, including any
	// "+K more" marker.
	Items []string `json:"items,omitempty"`

	// Number is set for numeric int fields, rounded to 2 decimals.
	Number *float64 `json:"number,omitempty"`

	Missing bool   `json:"missing,omitempty"`
	Empty   bool   `json:"empty,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (d Display) String() string { return d.Text }

// Option configures a Formatter.
type Option func(*Formatter)

// WithLogger sets the logger that receives shape mismatch warnings.
func WithLogger(l *zap.Logger) Option {
	return func(f *Formatter) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithItemLimits caps how many records Compact and Full modes show.
// Non-positive values keep the defaults (2 and 5).
func WithItemLimits(compact, full int) Option {
	return func(f *Formatter) {
		if compact > 0 {
			f.compactItems = compact
		}
		if full > 0 {
			f.fullItems = full
		}
	}
}

// Formatter converts extracted values into Display values.
type Formatter struct {
	compactItems int
	fullItems    int
	logger       *zap.Logger
}

// New returns a Formatter with the given options applied.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		compactItems: defaultCompactItems,
		fullItems:    defaultFullItems,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format renders an extracted value for field.
func (f *Formatter) Format(extracted gjson.Result, field types.FieldDefinition, mode Mode) Display {
	v := value.Classify(extracted, field)
	if v.Kind == value.Null {
		return missing()
	}
	if msg, ok := v.Mismatch(); ok {
		f.logger.Warn("value shape does not match field type",
			zap.String("field", field.Name),
			zap.String("type", string(field.Type)),
			zap.String("mismatch", msg),
		)
		return Display{Text: "Error: " + msg, Error: msg}
	}

	switch field.Type {
	case types.FieldInt:
		return formatInt(v, field)
	case types.FieldStr:
		return formatStr(v)
	case types.FieldListStr:
		return formatLabels(v, field)
	case types.FieldListDict:
		return f.formatRecords(v, mode)
	default:
		return Display{Text: value.Text(v.Raw)}
	}
}

// FormatResult extracts and renders a stored result against its scheme's
// primary field. A scheme without fields renders the raw payload.
func (f *Formatter) FormatResult(r types.Result, s types.Scheme, mode Mode) Display {
	raw := value.Parse(r.Value)
	field, ok := s.PrimaryField()
	if !ok {
		if value.IsNull(raw) {
			return missing()
		}
		return Display{Text: value.Text(raw)}
	}
	return f.Format(value.Extract(raw, field, s.Name), field, mode)
}

func missing() Display {
	return Display{Text: value.Placeholder, Missing: true}
}

func formatInt(v value.Value, field types.FieldDefinition) Display {
	if v.Kind != value.Scalar {
		return Display{Text: value.Text(v.Raw)}
	}
	n, ok := Number(v.Scalar)
	if !ok {
		return Display{Text: v.Scalar.String()}
	}
	if field.IsBooleanScale() {
		return Display{Text: BoolLabel(n)}
	}
	rounded := RoundTo2(n)
	return Display{Text: FormatNumber(n), Number: &rounded}
}

func formatStr(v value.Value) Display {
	if v.Kind != value.Scalar {
		return Display{Text: value.Text(v.Raw)}
	}
	s := v.Scalar.String()
	if value.IsPlaceholder(s) {
		return missing()
	}
	return Display{Text: s}
}

func formatLabels(v value.Value, field types.FieldDefinition) Display {
	items := AllowedLabels(v.Strings, field)
	if len(items) == 0 {
		return Display{Text: EmptyLabel, Empty: true}
	}
	return Display{Text: strings.Join(items, ", "), Items: items}
}

// AllowedLabels drops items outside the field's label set, when it has one.
// Matching ignores case; kept items keep their original spelling.
func AllowedLabels(items []string, field types.FieldDefinition) []string {
	if !field.HasLabelSet() {
		return items
	}
	allowed := make(map[string]bool, len(field.Labels))
	for _, l := range field.Labels {
		allowed[strings.ToLower(l)] = true
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if allowed[strings.ToLower(it)] {
			out = append(out, it)
		}
	}
	return out
}

func (f *Formatter) formatRecords(v value.Value, mode Mode) Display {
	records := v.Records
	if len(records) == 0 {
		return Display{Text: EmptyLabel, Empty: true}
	}

	limit := len(records)
	switch mode {
	case Compact:
		limit = f.compactItems
	case Full:
		limit = f.fullItems
	}
	shown := records
	if len(shown) > limit {
		shown = shown[:limit]
	}

	items := make([]string, 0, len(shown)+1)
	for _, rec := range shown {
		switch mode {
		case Compact:
			items = append(items, Headline(rec))
		case Full:
			items = append(items, Pairs(rec))
		default:
			items = append(items, Summarize(rec))
		}
	}
	if more := len(records) - len(shown); more > 0 {
		items = append(items, "+"+strconv.Itoa(more)+" more")
	}

	sep := "; "
	if mode == Full {
		sep = "\n"
	}
	return Display{Text: strings.Join(items, sep), Items: items}
}

// Number coerces a scalar JSON value to a float. Booleans count as 1 and 0;
// strings must parse as numbers.
func Number(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.True:
		return 1, true
	case gjson.False:
		return 0, true
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return 0, false
		}
		n, err := cast.ToFloat64E(s)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// BoolLabel renders a 0-1 scale value: "True" strictly above 0.5.
func BoolLabel(n float64) string {
	if n > 0.5 {
		return "True"
	}
	return "False"
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(n float64) float64 {
	r := math.Round(n*100) / 100
	if r == 0 {
		return 0 // drop the sign of -0
	}
	return r
}

// FormatNumber renders n rounded to 2 decimals without trailing zeros.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(RoundTo2(n), 'f', -1, 64)
}

// FormatStat renders a chart tooltip statistic with 1 decimal. Tooltips are
// denser than FormatNumber on purpose.
func FormatStat(n float64) string {
	r := math.Round(n*10) / 10
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}
