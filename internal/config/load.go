package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads, parses, defaults and validates a YAML configuration file.
func LoadConfig(filename string) (*Config, error) {
	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filename, err)
	}
	return Parse(fileBytes, filename)
}

// Parse is LoadConfig for configuration already in memory; name is used in
// error messages only.
func Parse(data []byte, name string) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in '%s': %w", name, err)
	}

	applyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults sets default values for the optional sections.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Database != nil && cfg.Database.LookupTimeout == "" {
		cfg.Database.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.Server != nil && cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Batch != nil {
		applyBatchDefaults(cfg.Batch)
	}
}

func applyBatchDefaults(b *BatchConfig) {
	if b.Cast == nil {
		trueVal := true
		b.Cast = &trueVal
	}
	if b.ErrorHandling == nil {
		b.ErrorHandling = &ErrorHandlingConfig{Mode: ErrorHandlingModeHalt}
	} else {
		if b.ErrorHandling.Mode == "" {
			b.ErrorHandling.Mode = ErrorHandlingModeHalt
		}
		if b.ErrorHandling.Mode == ErrorHandlingModeSkip && b.ErrorHandling.LogErrors == nil {
			trueVal := true
			b.ErrorHandling.LogErrors = &trueVal
		}
	}

	if b.Source.Type == SourceTypeCSV && b.Source.Delimiter == "" {
		b.Source.Delimiter = DefaultCSVDelimiter
	}
	if d := b.Destination; d != nil {
		if d.Type == DestinationTypeCSV && d.Delimiter == "" {
			d.Delimiter = DefaultCSVDelimiter
		}
		if d.Type == DestinationTypeXLSX && d.SheetName == "" {
			d.SheetName = DefaultSheetName
		}
	}
}
