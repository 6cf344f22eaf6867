package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError is a single structured validation failure. Handlers collect
// these across every field of a request and report them together instead of
// stopping at the first bad field.
type FieldError struct {
	Field   string `json:"field" bson:"field"`
	Message string `json:"message" bson:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors accumulates FieldErrors across several validations.
type Errors []*FieldError

func (es Errors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Add appends err when it is non-nil and returns the (possibly grown) slice.
func (es Errors) Add(err *FieldError) Errors {
	if err != nil {
		es = append(es, err)
	}
	return es
}

// Or returns es as an error, or nil when nothing accumulated.
func (es Errors) Or() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// Alphanumerics with interior spaces; at least two characters, no leading or
// trailing space. A single-character input never matches.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9]+[A-Za-z0-9 ]*[A-Za-z0-9]+$`)

// RecipeTypes is the fixed set of recipe categories.
var RecipeTypes = []string{"other", "drink", "salad", "first course", "second course", "soup", "dessert"}

const (
	StatusActive = "active"
	StatusLocked = "locked"
)

// MinSteps is the minimum number of recipe steps accepted.
const MinSteps = 2

func Nickname(s string) (string, *FieldError) {
	return matchName("nickname", s)
}

func Title(s string) (string, *FieldError) {
	return matchName("title", s)
}

func matchName(field, s string) (string, *FieldError) {
	if !namePattern.MatchString(s) {
		return "", &FieldError{
			Field:   field,
			Message: "must be at least 2 characters, alphanumerics and interior spaces only",
		}
	}
	return s, nil
}

// RecipeType checks s against the fixed enum; an empty value defaults to
// "other".
func RecipeType(s string) (string, *FieldError) {
	if s == "" {
		return "other", nil
	}
	for _, t := range RecipeTypes {
		if s == t {
			return s, nil
		}
	}
	return "", &FieldError{
		Field:   "type",
		Message: fmt.Sprintf("must be one of: %s", strings.Join(RecipeTypes, ", ")),
	}
}

// Steps collects steps in order until the first empty entry; everything past
// that gap is treated as "no more steps", not as an internal hole. The
// collected prefix must hold at least MinSteps entries.
func Steps(list []string) ([]string, *FieldError) {
	var steps []string
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			break
		}
		steps = append(steps, s)
	}
	if len(steps) < MinSteps {
		return nil, &FieldError{
			Field:   "steps",
			Message: fmt.Sprintf("at least %d non-empty steps required", MinSteps),
		}
	}
	return steps, nil
}

func Status(s string) (string, *FieldError) {
	if s == StatusActive || s == StatusLocked {
		return s, nil
	}
	return "", &FieldError{
		Field:   "status",
		Message: "must be active or locked",
	}
}
