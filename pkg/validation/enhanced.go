package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the shared validator instance with the diagram rules registered
	Validate *validator.Validate

	nodeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

func init() {
	Validate = validator.New()

	// Register custom validation functions
	Validate.RegisterValidation("node_id", validateNodeID)
	Validate.RegisterValidation("direction", validateDirection)
	Validate.RegisterValidation("renderer", validateRenderer)
	Validate.RegisterValidation("relation_mode", validateRelationMode)

	// Report fields by their json name
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// Struct validates s against its validate tags, then its own Validate
// method when it implements Validator.
func Struct(s interface{}) error {
	if err := Validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	if v, ok := s.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// formatValidationErrors converts validator errors to our custom format
func formatValidationErrors(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	var out ValidationErrors
	for _, fieldError := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fieldError.Field(),
			Value:   fieldError.Value(),
			Message: getErrorMessage(fieldError),
		})
	}
	return out
}

// getErrorMessage returns a human-readable error message
func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "hexcolor":
		return "must be a hex color such as #FFFFFF"
	case "node_id":
		return "must be a valid node identifier (alphanumeric, underscore, hyphen, dot, colon)"
	case "direction":
		return "must be one of: horizontal, vertical"
	case "renderer":
		return "must be one of: svg, canvas"
	case "relation_mode":
		return "must be one of: single, branch, multi"
	default:
		return fmt.Sprintf("validation failed: %s", fe.Tag())
	}
}

// validateNodeID validates node identifier format
func validateNodeID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return len(id) >= 1 && len(id) <= 100 && nodeIDPattern.MatchString(id)
}

func validateDirection(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "horizontal", "vertical":
		return true
	}
	return false
}

func validateRenderer(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "svg", "canvas":
		return true
	}
	return false
}

func validateRelationMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "single", "branch", "multi":
		return true
	}
	return false
}

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxErrors int `json:"max_errors"`
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{MaxErrors: 10}
}

// StructWithConfig validates like Struct and truncates the reported errors
// to config.MaxErrors.
func StructWithConfig(s interface{}, config *ValidationConfig) error {
	if config == nil {
		config = DefaultValidationConfig()
	}
	err := Struct(s)
	var verrs ValidationErrors
	if errors.As(err, &verrs) && config.MaxErrors > 0 && len(verrs) > config.MaxErrors {
		return verrs[:config.MaxErrors]
	}
	return err
}

type errorResponse struct {
	Errors []ValidationError `json:"errors"`
	Count  int               `json:"count"`
}

// MarshalValidationErrors marshals validation errors to JSON
func MarshalValidationErrors(errs ValidationErrors) ([]byte, error) {
	return json.Marshal(errorResponse{Errors: errs, Count: len(errs)})
}
