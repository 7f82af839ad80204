package form

import (
	"fmt"

	dErrors "dossier/pkg/domain-errors"
)

// Validate is the submit-time gate. It walks the section's fields in order
// and returns a CodeValidation error for the first field that is required,
// or conditionally required by a true confirmation, and left empty.
// Saving never calls it.
func (s Section) Validate(v Values) error {
	for _, f := range s.Fields {
		if !v.IsEmpty(f.Key) {
			continue
		}
		switch {
		case f.Required && f.Kind == KindBool:
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("%s: answer %q with %s or %s", s.Label(), f.Label, TokenTrue, TokenFalse))
		case f.Required:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s: %s is required", s.Label(), f.Label))
		case f.RequiredWhen != "" && v.Bool(f.RequiredWhen):
			gate, _ := s.Field(f.RequiredWhen)
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("%s: %s is required when %s is %s", s.Label(), f.Label, gate.Label, TokenTrue))
		}
	}
	return nil
}
