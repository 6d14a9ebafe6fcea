package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/uibuild/internal/foundation"
	"git.home.luguber.info/inful/uibuild/internal/locales"
)

var configValidators = foundation.NewValidatorChain(
	validateLocales,
	validateModules,
	validateOutputDir,
)

// Validate checks a loaded configuration and reports every problem at once.
func Validate(c *Config) error {
	return configValidators.Validate(c).ToError()
}

func validateLocales(c *Config) foundation.ValidationResult {
	if _, err := locales.Normalize(c.Locales); err != nil {
		return foundation.Invalid(foundation.NewFieldError("locales", "invalid_locale", err.Error()))
	}
	return foundation.Valid()
}

func validateModules(c *Config) foundation.ValidationResult {
	res := foundation.Valid()
	seen := make(map[string]bool, len(c.Modules))
	for i, m := range c.Modules {
		field := fmt.Sprintf("modules[%d]", i)
		switch {
		case strings.TrimSpace(m.Path) == "" || strings.TrimSpace(m.Main) == "":
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(field, "required", "path and main are required")))
		case filepath.IsAbs(m.Path) || strings.HasPrefix(filepath.Clean(m.Path), ".."):
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(field, "outside_base", "path must stay inside the source base")))
		case strings.ContainsAny(m.Main, `/\`):
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(field, "invalid_main", "main is a file stem, not a path")))
		case seen[m.Main]:
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(field, "duplicate", "two modules would write "+m.Main+".css")))
		}
		seen[m.Main] = true
	}
	return res
}

func validateOutputDir(c *Config) foundation.ValidationResult {
	if strings.TrimSpace(c.OutputDir) == "" {
		return foundation.Invalid(foundation.NewFieldError("output_dir", "required", "must not be empty"))
	}
	return foundation.Valid()
}
