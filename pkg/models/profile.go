package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Limits enforced on a student profile.
const (
	MaxExtracurriculars = 10
	MaxFreeTextLength   = 200
)

// Profile is a student's financial and academic profile.
// Stored in student_profiles; one row per user, replaced in place on resubmission.
type Profile struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              string     `json:"user_id"`
	Budget              float64    `json:"budget" validate:"gt=0"`
	Income              float64    `json:"income" validate:"gte=0"`
	Major               string     `json:"major" validate:"required,max=200"`
	GPA                 float64    `json:"gpa" validate:"gte=0,lte=4"`
	TestScores          TestScores `json:"test_scores"`
	LocationPreferences []string   `json:"location_preferences" validate:"min=1,unique,dive,len=2,alpha,uppercase"`
	Extracurriculars    []string   `json:"extracurriculars" validate:"max=10,unique,dive,required,max=200"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TestScores holds optional standardized test results.
type TestScores struct {
	SAT *int `json:"sat,omitempty" validate:"omitempty,gte=400,lte=1600"`
	ACT *int `json:"act,omitempty" validate:"omitempty,gte=1,lte=36"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims free text and upper-cases state codes.
func (p *Profile) Normalize() {
	p.Major = strings.TrimSpace(p.Major)
	for i, s := range p.LocationPreferences {
		p.LocationPreferences[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	for i, e := range p.Extracurriculars {
		p.Extracurriculars[i] = strings.TrimSpace(e)
	}
}

// Validate checks the profile against its field constraints and rejects
// free text that looks like markup injection.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("%s", describeFieldError(verrs[0]))
		}
		return err
	}

	if libinjection.IsXSS(p.Major) {
		return &DisallowedContentError{Field: "major", Value: p.Major}
	}
	for _, e := range p.Extracurriculars {
		if libinjection.IsXSS(e) {
			return &DisallowedContentError{Field: "extracurriculars", Value: e}
		}
	}
	return nil
}

// DisallowedContentError reports free text rejected by the markup screen.
type DisallowedContentError struct {
	Field string
	Value string
}

func (e *DisallowedContentError) Error() string {
	return e.Field + " contains disallowed content"
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "len", "alpha", "uppercase":
		return fmt.Sprintf("%s must be a two-letter state code", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// SearchFilters returns the catalog filters derived from the profile.
func (p *Profile) SearchFilters() SearchFilters {
	states := make([]string, len(p.LocationPreferences))
	copy(states, p.LocationPreferences)
	return SearchFilters{
		Budget: p.Budget,
		States: states,
		Major:  p.Major,
	}
}
