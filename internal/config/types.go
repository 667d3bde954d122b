package config

const (
	SourceTypeJSON = "json"
	SourceTypeCSV  = "csv"
	SourceTypeXLSX = "xlsx"
	SourceTypeYAML = "yaml"

	DestinationTypeJSON = "json"
	DestinationTypeCSV  = "csv"
	DestinationTypeXLSX = "xlsx"
	DestinationTypeYAML = "yaml"

	ErrorHandlingModeHalt = "halt" // Stop at the first record that fails
	ErrorHandlingModeSkip = "skip" // Record the failure and continue

	DefaultLogLevel      = "info"
	DefaultCSVDelimiter  = ","
	DefaultSheetName     = "Sheet1"
	DefaultServerAddr    = ":8080"
	DefaultLookupTimeout = "5s"
)

// Config is the top-level structure of a formcheck YAML file.
type Config struct {
	// Logging sets the verbosity level.
	Logging LoggingConfig `yaml:"logging"`
	// Database enables the PostgreSQL lookup used by unique and exists rules.
	Database *DatabaseConfig `yaml:"database,omitempty"`
	// Lookups seeds an in-memory lookup (table name to rows). Used when no
	// database is configured, or always in dry runs.
	Lookups map[string][]map[string]interface{} `yaml:"lookups,omitempty"`
	// Server configures the HTTP validation endpoint.
	Server *ServerConfig `yaml:"server,omitempty"`
	// Batch describes a file of submissions to run through one form.
	Batch *BatchConfig `yaml:"batch,omitempty"`
	// Forms maps form names to their field declarations. At least one is required.
	Forms map[string]FormConfig `yaml:"forms"`
}

// LoggingConfig holds settings related to logging verbosity.
type LoggingConfig struct {
	// Level is one of "none", "error", "warn", "info", "debug". Defaults to "info".
	Level string `yaml:"level"`
}

// DatabaseConfig holds the PostgreSQL connection used for lookups.
type DatabaseConfig struct {
	// DSN is a pgx connection string. Environment variables are expanded.
	DSN string `yaml:"dsn"`
	// LookupTimeout bounds each unique/exists query, e.g. "2s". Defaults to "5s".
	LookupTimeout string `yaml:"lookupTimeout,omitempty"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string `yaml:"addr"`
}

// BatchConfig drives a batch run.
type BatchConfig struct {
	// Form names the entry of Forms each record is processed with. Required.
	Form string `yaml:"form"`
	// Source is the file of submissions.
	Source SourceConfig `yaml:"source"`
	// Destination receives the accepted records. Optional for validate-only runs.
	Destination *DestinationConfig `yaml:"destination,omitempty"`
	// Filter is an optional govaluate expression evaluated against each raw
	// record. Records for which it is false are skipped before validation.
	Filter string `yaml:"filter,omitempty"`
	// Cast controls whether accepted records are written cast. Defaults to true.
	Cast *bool `yaml:"cast,omitempty"`
	// ErrorHandling decides what happens to records that fail validation or casting.
	ErrorHandling *ErrorHandlingConfig `yaml:"errorHandling,omitempty"`
}

// SourceConfig details the input file.
type SourceConfig struct {
	// Type is one of "json", "csv", "xlsx", "yaml". Required.
	Type string `yaml:"type"`
	// File is the input path. Environment variables are expanded. Required.
	File string `yaml:"file"`
	// Delimiter is the CSV field separator (default ",").
	Delimiter string `yaml:"delimiter,omitempty"`
	// CommentChar makes the CSV reader skip lines starting with it.
	CommentChar string `yaml:"commentChar,omitempty"`
	// SheetName selects the XLSX sheet. Takes precedence over SheetIndex.
	SheetName string `yaml:"sheetName,omitempty"`
	// SheetIndex selects the XLSX sheet by 0-based position.
	SheetIndex *int `yaml:"sheetIndex,omitempty"`
}

// DestinationConfig details the output file.
type DestinationConfig struct {
	// Type is one of "json", "csv", "xlsx", "yaml". Required.
	Type string `yaml:"type"`
	// File is the output path. Environment variables are expanded. Required.
	File string `yaml:"file"`
	// Delimiter is the CSV field separator (default ",").
	Delimiter string `yaml:"delimiter,omitempty"`
	// SheetName is the XLSX sheet written to (default "Sheet1").
	SheetName string `yaml:"sheetName,omitempty"`
}

// ErrorHandlingConfig defines how failing records are managed.
type ErrorHandlingConfig struct {
	// Mode is "halt" (default) or "skip".
	Mode string `yaml:"mode"`
	// LogErrors logs each skipped record. Defaults to true in skip mode.
	LogErrors *bool `yaml:"logErrors,omitempty"`
	// ErrorFile receives skipped records as CSV with a validation_errors column.
	ErrorFile string `yaml:"errorFile,omitempty"`
}

// FormConfig declares one form.
type FormConfig struct {
	// Fields lists the accepted fields. Only these survive input filtering.
	Fields map[string]FieldConfig `yaml:"fields"`
	// Messages overrides message templates, keyed "rule" or "field.rule".
	Messages map[string]string `yaml:"messages,omitempty"`
}

// FieldConfig declares one form field.
type FieldConfig struct {
	// Rules is a pipe-separated rule chain such as "required|email". May be empty.
	Rules string `yaml:"rules,omitempty"`
	// Cast is a kind ("int", "float", "bool", "timestamp") or a transform
	// name such as "trim" or "expr:value * 100".
	Cast string `yaml:"cast,omitempty"`
	// Params configures a transform cast (e.g. old/new for replaceAll).
	Params map[string]interface{} `yaml:"params,omitempty"`
	// Default fills the field when it is absent from the submission.
	Default interface{} `yaml:"default,omitempty"`
}
