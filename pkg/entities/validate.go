package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks an entity against its struct constraints, the taxonomy
// and the form configuration for its type.
func Validate(e models.Entity) error {
	if err := validate.Struct(e); err != nil {
		return apperr.InvalidArgument("%s", describe(err))
	}
	if err := CheckTaxonomy(e.Type, e.Mythology); err != nil {
		return err
	}
	return CheckFields(e.Type, e.Attributes)
}

// CheckTaxonomy verifies the type and mythology are known.
func CheckTaxonomy(entityType, mythology string) error {
	if _, ok := CollectionFor(entityType); !ok {
		return apperr.InvalidArgument("unknown entity type %q", entityType)
	}
	if _, ok := LookupMythology(mythology); !ok {
		return apperr.InvalidArgument("unknown mythology %q", mythology)
	}
	return nil
}

// CheckFields verifies type-specific attributes against the form
// configuration. Unknown attributes are allowed.
func CheckFields(entityType string, attrs map[string]string) error {
	var problems []string
	for _, f := range FormFor(entityType) {
		v := strings.TrimSpace(attrs[f.Name])
		if f.Required && v == "" {
			problems = append(problems, fmt.Sprintf("%s is required", f.Label))
			continue
		}
		if f.MaxLen > 0 && len(v) > f.MaxLen {
			problems = append(problems, fmt.Sprintf("%s must be at most %d characters", f.Label, f.MaxLen))
		}
	}
	if len(problems) > 0 {
		return apperr.InvalidArgument("%s", strings.Join(problems, "; "))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long (max %s)", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
