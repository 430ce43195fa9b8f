package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation via
// struct tags, with additional custom validation for rules that cannot be
// expressed in tags.
//
// Returns an error describing the first validation failure.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The selected backend must have its options section when it needs one.
	// The memory backend takes no options, so nothing to check there.
	switch cfg.Storage.Type {
	case "local":
		if cfg.Storage.Local == nil {
			return fmt.Errorf("storage: type is %q but the local section is missing", cfg.Storage.Type)
		}
	case "s3":
		if cfg.Storage.S3 == nil {
			return fmt.Errorf("storage: type is %q but the s3 section is missing", cfg.Storage.Type)
		}
	case "badger":
		if cfg.Storage.Badger == nil {
			return fmt.Errorf("storage: type is %q but the badger section is missing", cfg.Storage.Type)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
