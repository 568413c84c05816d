package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/hay-kot/criterio"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/codebase"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/prompt"
)

// ThemeAuto picks a dark or light glamour style from the terminal background.
const ThemeAuto = "auto"

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// template syntax, glob patterns, and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validatePrompts(),
		c.validateCodebase(),
		criterio.Run("render.theme", c.Render.Theme, isKnownTheme),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.APIKey() == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Credentials",
			Item:     c.APIKeyEnv,
			Message:  "environment variable is not set; generation calls will fail",
		})
	}

	for kind, t := range c.Prompts {
		if t.System == "" && t.User == "" {
			warnings = append(warnings, ValidationWarning{
				Category: "Prompts",
				Item:     string(kind),
				Message:  "override is empty and has no effect",
			})
		}
	}

	return warnings
}

// validateFileAccess checks the config file and data directory. A path that
// does not exist yet is fine: defaults apply and the data dir is created.
func (c *Config) validateFileAccess(configPath string) error {
	var errs criterio.FieldErrorsBuilder
	if err := checkPath(configPath, false); err != nil {
		errs = errs.Append("config_file", err)
	}
	if err := checkPath(c.DataDir, true); err != nil {
		errs = errs.Append("data_dir", err)
	}
	return errs.ToError()
}

func checkPath(path string, wantDir bool) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("cannot access: %w", err)
	case wantDir && !info.IsDir():
		return errors.New("exists but is not a directory")
	case !wantDir && info.IsDir():
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

// validatePrompts checks every override parses on top of the defaults.
func (c *Config) validatePrompts() error {
	var errs criterio.FieldErrorsBuilder
	for kind, t := range c.Prompts {
		if _, err := prompt.New(map[prompt.Kind]prompt.Template{kind: t}); err != nil {
			errs = errs.Append(fmt.Sprintf("prompts[%q]", kind), fmt.Errorf("template error: %w", err))
		}
	}
	return errs.ToError()
}

func (c *Config) validateCodebase() error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range c.Codebase.Include {
		if err := codebase.ValidatePatterns([]string{p}); err != nil {
			errs = errs.Append(fmt.Sprintf("codebase.include[%d]", i), err)
		}
	}
	for i, p := range c.Codebase.Exclude {
		if err := codebase.ValidatePatterns([]string{p}); err != nil {
			errs = errs.Append(fmt.Sprintf("codebase.exclude[%d]", i), err)
		}
	}
	return errs.ToError()
}

func isKnownTheme(name string) error {
	if name == ThemeAuto {
		return nil
	}
	if _, ok := glamourstyles.DefaultStyles[name]; ok {
		return nil
	}
	return fmt.Errorf("unknown theme %q", name)
}
