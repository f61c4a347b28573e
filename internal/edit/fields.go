package edit

import (
	"strconv"
	"strings"

	"roadmap-cli/internal/model"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldMultiline
	FieldDate
	FieldScore
	FieldStatus
	FieldCategory
)

// Field identifies one editable region's binding. Name matches the server's
// JSON field name; "status" is the sentinel also used by the activity log.
type Field struct {
	Name string
	Kind FieldKind
}

var fields = map[string]FieldKind{
	"name":              FieldText,
	"category":          FieldCategory,
	"status":            FieldStatus,
	"description":       FieldMultiline,
	"business_impact":   FieldMultiline,
	"outcome":           FieldMultiline,
	"success_metric":    FieldText,
	"owner":             FieldText,
	"dependencies":      FieldText,
	"build_time":        FieldText,
	"impact_score":      FieldScore,
	"ease_score":        FieldScore,
	"priority_score":    FieldScore,
	"start_date":        FieldDate,
	"completed_date":    FieldDate,
	"expected_delivery": FieldDate,
}

func FieldByName(name string) (Field, bool) {
	kind, ok := fields[name]
	if !ok {
		return Field{}, false
	}
	return Field{Name: name, Kind: kind}, true
}

// Value renders the current value of a field as the string an input would be
// pre-populated with.
func Value(it model.Item, field Field) string {
	switch field.Name {
	case "name":
		return it.Name
	case "category":
		return it.Category
	case "status":
		return it.Status
	case "description":
		return it.Description
	case "business_impact":
		return it.BusinessImpact
	case "outcome":
		return it.Outcome
	case "success_metric":
		return it.SuccessMetric
	case "owner":
		return it.Owner
	case "dependencies":
		return it.Dependencies
	case "build_time":
		return it.BuildTime
	case "impact_score":
		return formatScore(it.ImpactScore)
	case "ease_score":
		return formatScore(it.EaseScore)
	case "priority_score":
		return formatScore(it.PriorityScore)
	case "start_date":
		return deref(it.StartDate)
	case "completed_date":
		return deref(it.CompletedDate)
	case "expected_delivery":
		return deref(it.ExpectedDelivery)
	}
	return ""
}

// Apply writes a committed raw value into the item. Numeric fields parse as
// floating point and default to 0 on parse failure; score inputs are bounded
// [0,10]. Text and date fields store the trimmed value, with empty meaning
// unset (the gateway sends null, not "").
func Apply(it *model.Item, field Field, raw string) {
	v := strings.TrimSpace(raw)
	switch field.Name {
	case "name":
		it.Name = v
	case "category":
		it.Category = v
	case "status":
		it.Status = v
	case "description":
		it.Description = v
	case "business_impact":
		it.BusinessImpact = v
	case "outcome":
		it.Outcome = v
	case "success_metric":
		it.SuccessMetric = v
	case "owner":
		it.Owner = v
	case "dependencies":
		it.Dependencies = v
	case "build_time":
		it.BuildTime = v
	case "impact_score":
		it.ImpactScore = parseScore(v)
	case "ease_score":
		it.EaseScore = parseScore(v)
	case "priority_score":
		it.PriorityScore = parseScore(v)
	case "start_date":
		it.StartDate = dateOrNil(v)
	case "completed_date":
		it.CompletedDate = dateOrNil(v)
	case "expected_delivery":
		it.ExpectedDelivery = dateOrNil(v)
	}
}

func parseScore(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	if f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return f
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func dateOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
