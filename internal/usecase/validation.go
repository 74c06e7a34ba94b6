package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/xavierca1/funnel-leads/internal/entity"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// asInvalidArgument junta os erros de validação num único InvalidArgument.
func asInvalidArgument(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return &Error{
		Kind:    KindInvalidArgument,
		Code:    "VALIDATION_ERROR",
		Message: strings.Join(msgs, "; "),
	}
}

func ValidateSubmitLeadInput(input SubmitLeadInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.FunnelID) == "" {
		errors = append(errors, ValidationError{"funnel_id", "is required"})
	} else if !isValidObjectID(input.FunnelID) {
		errors = append(errors, ValidationError{"funnel_id", "is invalid"})
	}

	if strings.TrimSpace(input.Phone) == "" {
		errors = append(errors, ValidationError{"phone", "is required"})
	}

	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			errors = append(errors, ValidationError{"email", "is invalid"})
		}
	}

	if input.PreferredContact != "" && !entity.PreferredContact(input.PreferredContact).IsValid() {
		errors = append(errors, ValidationError{"preferred_contact", "must be call or whatsapp"})
	}

	for i, a := range input.Answers {
		if strings.TrimSpace(a.QuestionText) == "" {
			errors = append(errors, ValidationError{fmt.Sprintf("answers[%d].question_text", i), "is required"})
		}
	}

	return errors
}

func ValidateFunnelInput(input FunnelInput, creating bool) []ValidationError {
	var errors []ValidationError

	if creating && (input.Title == nil || strings.TrimSpace(*input.Title) == "") {
		errors = append(errors, ValidationError{"title", "is required"})
	}
	if input.Title != nil && len(*input.Title) > 200 {
		errors = append(errors, ValidationError{"title", "must not exceed 200 characters"})
	}

	if input.Status != nil && !entity.FunnelStatus(*input.Status).IsValid() {
		errors = append(errors, ValidationError{"status", "must be active or paused"})
	}

	for i, q := range input.Questions {
		if err := q.Validate(); err != nil {
			errors = append(errors, ValidationError{fmt.Sprintf("questions[%d]", i), err.Error()})
		}
	}

	return errors
}

func isValidObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}
