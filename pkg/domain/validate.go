package domain

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// FieldProblem is one failing field in a ValidationError.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError reports client-side constraint failures. It is never sent
// to the backend.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Problem returns the message for field, or "" if the field passed.
func (e *ValidationError) Problem(field string) string {
	for _, p := range e.Problems {
		if p.Field == field {
			return p.Message
		}
	}
	return ""
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug reports whether s uses only lowercase letters, digits and single
// inner hyphens.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from free text.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Validate checks form values against the kind's field constraints.
// It returns nil or a *ValidationError.
func Validate(k Kind, values map[string]string) error {
	var problems []FieldProblem
	for _, f := range k.Fields {
		v := strings.TrimSpace(values[f.Name])
		if v == "" {
			if f.Required && f.Type != FieldBool {
				problems = append(problems, FieldProblem{f.Name, "required"})
			}
			continue
		}
		switch f.Type {
		case FieldSlug:
			if !ValidSlug(v) {
				problems = append(problems, FieldProblem{f.Name, "use lowercase letters, digits and hyphens"})
			}
		case FieldEmail:
			if _, err := mail.ParseAddress(v); err != nil || strings.ContainsAny(v, " <>") {
				problems = append(problems, FieldProblem{f.Name, "not a valid email address"})
			}
		case FieldNumber:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				problems = append(problems, FieldProblem{f.Name, "must be a number"})
			}
		case FieldBool:
			if _, err := ParseBool(v); err != nil {
				problems = append(problems, FieldProblem{f.Name, "must be yes or no"})
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ParseBool accepts yes/no in addition to strconv.ParseBool forms.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// Payload converts validated form values into the data object of a create
// call. Empty optional fields are omitted; booleans and numbers are typed.
func Payload(k Kind, values map[string]string) map[string]any {
	return payload(k, values, false)
}

// UpdatePayload is Payload for an update call. A field present in values but
// empty is sent cleared: "" for text fields and null for numbers, relations
// and media. Fields absent from values are left out.
func UpdatePayload(k Kind, values map[string]string) map[string]any {
	return payload(k, values, true)
}

func payload(k Kind, values map[string]string, clear bool) map[string]any {
	data := make(map[string]any, len(values))
	for _, f := range k.Fields {
		raw, present := values[f.Name]
		v := strings.TrimSpace(raw)
		if v == "" {
			switch {
			case f.Type == FieldBool:
				data[f.Name] = false
			case clear && present:
				data[f.Name] = clearedValue(f.Type)
			}
			continue
		}
		switch f.Type {
		case FieldBool:
			b, _ := ParseBool(v) //nolint:errcheck // validated
			data[f.Name] = b
		case FieldNumber:
			n, _ := strconv.ParseFloat(v, 64) //nolint:errcheck // validated
			data[f.Name] = n
		case FieldMultiline:
			data[f.Name] = raw
		default:
			data[f.Name] = v
		}
	}
	return data
}

func clearedValue(t FieldType) any {
	switch t {
	case FieldNumber, FieldRelation, FieldMedia:
		return nil
	}
	return ""
}
