package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Knetic/govaluate"

	"forminput/internal/input"
	"forminput/internal/logging"
	"forminput/internal/rules"
	"forminput/internal/transform"
	"forminput/internal/util"
)

var (
	knownLogLevels        = []string{"none", "off", "error", "warn", "warning", "info", "debug"}
	knownSourceTypes      = []string{SourceTypeJSON, SourceTypeCSV, SourceTypeXLSX, SourceTypeYAML}
	knownDestinationTypes = []string{DestinationTypeJSON, DestinationTypeCSV, DestinationTypeXLSX, DestinationTypeYAML}
	knownErrorModes       = []string{ErrorHandlingModeHalt, ErrorHandlingModeSkip}
)

// isValidEnumValue checks if a value is present in a list of allowed string values (case-insensitive).
func isValidEnumValue(value string, allowedValues []string) bool {
	lowerValue := strings.ToLower(value)
	for _, allowed := range allowedValues {
		if lowerValue == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ValidateConfig checks the whole configuration and reports every problem
// found, one "- Path: message" line each.
func ValidateConfig(cfg *Config) error {
	var allErrors []string

	if !isValidEnumValue(cfg.Logging.Level, knownLogLevels) {
		allErrors = append(allErrors, fmt.Sprintf("- Config.Logging.Level: invalid log level '%s', must be one of %v", cfg.Logging.Level, knownLogLevels))
	}

	if cfg.Database != nil {
		allErrors = append(allErrors, validateDatabaseConfig("Config.Database", cfg.Database)...)
	}

	if len(cfg.Forms) == 0 {
		allErrors = append(allErrors, "- Config.Forms: at least one form is required")
	}
	usesLookups := false
	for _, name := range util.SortedKeys(cfg.Forms) {
		errs, lookups := validateFormConfig(fmt.Sprintf("Config.Forms[%s]", name), cfg.Forms[name])
		allErrors = append(allErrors, errs...)
		usesLookups = usesLookups || lookups
	}
	if usesLookups && cfg.Database == nil && len(cfg.Lookups) == 0 {
		logging.Logf(logging.Warning, "Validation: unique/exists rules are used but neither database nor lookups is configured")
	}

	if cfg.Batch != nil {
		allErrors = append(allErrors, validateBatchConfig("Config.Batch", cfg.Batch, cfg.Forms)...)
	}

	if len(allErrors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(allErrors, "\n"))
	}
	logging.Logf(logging.Debug, "Configuration validation successful.")
	return nil
}

func validateDatabaseConfig(prefix string, cfg *DatabaseConfig) []string {
	var errs []string
	if strings.TrimSpace(cfg.DSN) == "" {
		errs = append(errs, fmt.Sprintf("- %s.DSN: is required when the database section is present", prefix))
	}
	if cfg.LookupTimeout != "" {
		if d, err := time.ParseDuration(cfg.LookupTimeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("- %s.LookupTimeout: '%s' is not a positive duration", prefix, cfg.LookupTimeout))
		}
	}
	return errs
}

// validateFormConfig also reports whether the form uses database rules.
func validateFormConfig(prefix string, cfg FormConfig) ([]string, bool) {
	var errs []string
	usesLookups := false
	if len(cfg.Fields) == 0 {
		errs = append(errs, fmt.Sprintf("- %s.Fields: at least one field is required", prefix))
	}
	for _, name := range util.SortedKeys(cfg.Fields) {
		field := cfg.Fields[name]
		fieldPrefix := fmt.Sprintf("%s.Fields[%s]", prefix, name)
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("- %s: field name cannot be empty", fieldPrefix))
		}

		chain, err := rules.Parse(field.Rules)
		if err != nil {
			errs = append(errs, fmt.Sprintf("- %s.Rules: %v", fieldPrefix, err))
		} else if chain.Has("unique") || chain.Has("exists") {
			usesLookups = true
		}

		if field.Cast != "" {
			if err := ValidateCast(field.Cast, field.Params); err != nil {
				errs = append(errs, fmt.Sprintf("- %s.Cast: %v", fieldPrefix, err))
			}
		} else if len(field.Params) > 0 {
			logging.Logf(logging.Warning, "Validation: %s.Params is specified but will be ignored without a cast", fieldPrefix)
		}
	}
	for key := range cfg.Messages {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("- %s.Messages: message key cannot be empty", prefix))
		}
	}
	return errs, usesLookups
}

// ValidateCast checks that a field cast names a cast kind or a transform
// that builds with the given params.
func ValidateCast(cast string, params map[string]interface{}) error {
	if _, err := input.ParseCast(cast); err == nil {
		return nil
	}
	if !transform.Known(cast) {
		return fmt.Errorf("unknown cast '%s', must be int, float, bool, timestamp or one of the transforms %v", cast, transform.Names())
	}
	if _, err := transform.Build(cast, params); err != nil {
		return err
	}
	return nil
}

func validateBatchConfig(prefix string, cfg *BatchConfig, forms map[string]FormConfig) []string {
	var errs []string
	if cfg.Form == "" {
		errs = append(errs, fmt.Sprintf("- %s.Form: is required", prefix))
	} else if _, ok := forms[cfg.Form]; !ok {
		errs = append(errs, fmt.Sprintf("- %s.Form: unknown form '%s'", prefix, cfg.Form))
	}

	errs = append(errs, validateSourceConfig(prefix+".Source", &cfg.Source)...)
	if cfg.Destination != nil {
		errs = append(errs, validateDestinationConfig(prefix+".Destination", cfg.Destination)...)
	}

	if cfg.Filter != "" {
		if _, err := govaluate.NewEvaluableExpression(cfg.Filter); err != nil {
			errs = append(errs, fmt.Sprintf("- %s.Filter: invalid expression syntax: %v", prefix, err))
		}
	}

	if cfg.ErrorHandling != nil {
		errs = append(errs, validateErrorHandlingConfig(prefix+".ErrorHandling", cfg.ErrorHandling)...)
	}
	return errs
}

func validateSourceConfig(prefix string, cfg *SourceConfig) []string {
	var errs []string
	if cfg.Type == "" {
		errs = append(errs, fmt.Sprintf("- %s.Type: is required", prefix))
	} else if !isValidEnumValue(cfg.Type, knownSourceTypes) {
		errs = append(errs, fmt.Sprintf("- %s.Type: invalid source type '%s', must be one of %v", prefix, cfg.Type, knownSourceTypes))
		return errs
	}
	if cfg.File == "" {
		errs = append(errs, fmt.Sprintf("- %s.File: is required", prefix))
	}

	switch strings.ToLower(cfg.Type) {
	case SourceTypeCSV:
		if err := validateSingleRuneString(cfg.Delimiter, prefix+".Delimiter", false); err != nil {
			errs = append(errs, err.Error())
		}
		if err := validateSingleRuneString(cfg.CommentChar, prefix+".CommentChar", true); err != nil {
			errs = append(errs, err.Error())
		}
		if cfg.CommentChar != "" && cfg.CommentChar == cfg.Delimiter {
			errs = append(errs, fmt.Sprintf("- %s.CommentChar: cannot be the same as the delimiter", prefix))
		}
	case SourceTypeXLSX:
		if cfg.SheetName != "" {
			if err := validateSheetName(cfg.SheetName, prefix+".SheetName"); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if cfg.SheetIndex != nil && *cfg.SheetIndex < 0 {
			errs = append(errs, fmt.Sprintf("- %s.SheetIndex: must be a non-negative integer, got %d", prefix, *cfg.SheetIndex))
		}
	}
	return errs
}

func validateDestinationConfig(prefix string, cfg *DestinationConfig) []string {
	var errs []string
	if cfg.Type == "" {
		errs = append(errs, fmt.Sprintf("- %s.Type: is required", prefix))
	} else if !isValidEnumValue(cfg.Type, knownDestinationTypes) {
		errs = append(errs, fmt.Sprintf("- %s.Type: invalid destination type '%s', must be one of %v", prefix, cfg.Type, knownDestinationTypes))
		return errs
	}
	if cfg.File == "" {
		errs = append(errs, fmt.Sprintf("- %s.File: is required", prefix))
	}

	switch strings.ToLower(cfg.Type) {
	case DestinationTypeCSV:
		if err := validateSingleRuneString(cfg.Delimiter, prefix+".Delimiter", false); err != nil {
			errs = append(errs, err.Error())
		}
	case DestinationTypeXLSX:
		if cfg.SheetName != "" {
			if err := validateSheetName(cfg.SheetName, prefix+".SheetName"); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	return errs
}

func validateErrorHandlingConfig(prefix string, cfg *ErrorHandlingConfig) []string {
	var errs []string
	if !isValidEnumValue(cfg.Mode, knownErrorModes) {
		errs = append(errs, fmt.Sprintf("- %s.Mode: invalid error handling mode '%s', must be one of %v", prefix, cfg.Mode, knownErrorModes))
	}

	if cfg.Mode == ErrorHandlingModeHalt {
		if cfg.ErrorFile != "" {
			logging.Logf(logging.Warning, "Validation: %s.ErrorFile is specified but will be ignored when mode is '%s'", prefix, ErrorHandlingModeHalt)
		}
	} else if cfg.Mode == ErrorHandlingModeSkip && cfg.ErrorFile != "" {
		if strings.HasSuffix(cfg.ErrorFile, "/") || strings.HasSuffix(cfg.ErrorFile, "\\") {
			errs = append(errs, fmt.Sprintf("- %s.ErrorFile: path '%s' appears to be a directory, not a file", prefix, cfg.ErrorFile))
		}
	}
	return errs
}

// validateSingleRuneString checks if a string contains exactly one UTF-8 rune.
func validateSingleRuneString(s, fieldName string, allowEmpty bool) error {
	if s == "" {
		if !allowEmpty {
			return fmt.Errorf("- %s: cannot be empty", fieldName)
		}
		return nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return fmt.Errorf("- %s: %s must be a single character", fieldName, strconv.Quote(s))
	}
	return nil
}

// validateSheetName checks an Excel sheet name against Excel's limits.
func validateSheetName(sheetName, fieldName string) error {
	if utf8.RuneCountInString(sheetName) > 31 {
		return fmt.Errorf("- %s: '%s' exceeds maximum length of 31 characters", fieldName, sheetName)
	}
	if strings.ContainsAny(sheetName, `:\/?*[]`) {
		return fmt.Errorf("- %s: '%s' contains invalid characters (: \\ / ? * [ ])", fieldName, sheetName)
	}
	if strings.HasPrefix(sheetName, "'") || strings.HasSuffix(sheetName, "'") {
		return fmt.Errorf("- %s: '%s' cannot start or end with a single quote", fieldName, sheetName)
	}
	return nil
}
