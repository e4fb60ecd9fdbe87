package logging

// Config selects how log entries are rendered and where they go.
type Config struct {
	Format string // FormatPretty or FormatJSONL
	Level  string // minimum level, LevelDebug through LevelError
	Output string // "stderr", "stdout", or a file path
}

const (
	// FormatPretty renders one human-readable line per entry.
	FormatPretty = "pretty"
	// FormatJSONL renders one JSON object per line for log pipelines.
	FormatJSONL = "jsonl"
)

func DefaultConfig() Config {
	return Config{
		Format: FormatPretty,
		Level:  LevelInfo,
		Output: "stderr",
	}
}

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

func levelPriority(level string) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1 // default to info
	}
}
