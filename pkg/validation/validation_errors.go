package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps json field names to display labels
var FieldLabels = map[string]string{
	"full_name":        "Full name",
	"email":            "Email",
	"password":         "Password",
	"new_password":     "New password",
	"phone":            "Phone number",
	"roll_number":      "Roll number",
	"college":          "College",
	"branch":           "Branch",
	"graduation_year":  "Graduation year",
	"cgpa":             "CGPA",
	"organization":     "Organization",
	"designation":      "Designation",
	"title":            "Title",
	"description":      "Description",
	"location":         "Location",
	"employment_type":  "Employment type",
	"salary_min":       "Minimum salary",
	"salary_max":       "Maximum salary",
	"deadline":         "Deadline",
	"cover_letter":     "Cover letter",
	"status":           "Status",
	"scheduled_at":     "Scheduled time",
	"duration_minutes": "Duration",
	"mode":             "Interview mode",
	"round":            "Round",
	"questions":        "Questions",
	"options":          "Options",
	"correct_option":   "Correct option",
	"marks":            "Marks",
	"pass_percentage":  "Pass percentage",
	"max_tab_switches": "Allowed tab switches",
	"candidates":       "Candidates",
	"emails":           "Emails",
	"name":             "Name",
	"text":             "Question text",
}

// FormatValidationErrors converts validator errors to readable messages.
func FormatValidationErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// Summary joins FormatValidationErrors into one line for the error envelope.
func Summary(err error) string {
	return strings.Join(FormatValidationErrors(err), "; ")
}

func formatSingleError(e validator.FieldError) string {
	label := fieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must have at least %s items", label, param)
		}
		return fmt.Sprintf("%s must be at least %s", label, param)
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", label, param)
		}
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must have at most %s items", label, param)
		}
		return fmt.Sprintf("%s must be at most %s", label, param)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, param)
	case "lte":
		return fmt.Sprintf("%s must be %s or less", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(param, " ", ", "))
	case "email":
		return fmt.Sprintf("%s is not a valid email address", label)
	case "url":
		return fmt.Sprintf("%s is not a valid URL", label)
	case "valid_name":
		return fmt.Sprintf("%s may contain only letters, spaces and common punctuation", label)
	case "valid_phone":
		return fmt.Sprintf("%s must be 7-15 digits, optionally starting with +", label)
	case "no_emoji":
		return fmt.Sprintf("%s must not contain emoji or special symbols", label)
	case "max_current_year":
		return fmt.Sprintf("%s is too far in the future", label)
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", label, fieldLabel(param))
	case "eqfield":
		return fmt.Sprintf("%s must match %s", label, fieldLabel(param))
	default:
		return fmt.Sprintf("%s failed validation (%s)", label, e.Tag())
	}
}

func fieldLabel(name string) string {
	if label, ok := FieldLabels[name]; ok {
		return label
	}
	return formatCamelCase(name)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
