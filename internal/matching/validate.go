package matching

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRecipient checks the value ranges of a normalized recipient.
func ValidateRecipient(r *CareRecipientProfile) error {
	if r == nil {
		return errors.New("recipient profile is required")
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s: %s=%v", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid recipient profile: %s", strings.Join(problems, ", "))
}
