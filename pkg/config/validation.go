package config

import (
	"fmt"
	"strings"

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
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
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
	// Section paths must be unique, and a child section must be declared
	// after its parent so fail-fast creation can succeed in order.
	seen := make(map[string]bool)
	for i, section := range cfg.Library.Sections {
		if seen[section.Path] {
			return fmt.Errorf("library.sections[%d]: duplicate section path %q", i, section.Path)
		}
		seen[section.Path] = true

		if parent, ok := parentPath(section.Path); ok && !seen[parent] {
			return fmt.Errorf("library.sections[%d]: parent section %q must be declared before %q",
				i, parent, section.Path)
		}
	}

	return nil
}

// parentPath returns the dotted parent of a dotted logical path, or false for
// a top-level path.
func parentPath(path string) (string, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", false
	}
	return path[:idx], true
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
