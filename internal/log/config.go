package log

// LoggerConfig configures the global logger.
type LoggerConfig struct {
	Level     string           `mapstructure:"level"`
	Pattern   string           `mapstructure:"pattern"`
	Time      string           `mapstructure:"time"`
	Appenders []AppenderConfig `mapstructure:"appenders"`
}

// AppenderConfig selects one output. Options are decoded per type.
type AppenderConfig struct {
	Type    string                 `mapstructure:"type"` // console | file
	Options map[string]interface{} `mapstructure:"options"`
}

const (
	DefaultPattern = "%time [%level] %field%msg%n"
	DefaultTime    = "2006-01-02 15:04:05"
)

// DefaultConfig logs warnings and above to stderr.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     "warn",
		Pattern:   DefaultPattern,
		Time:      DefaultTime,
		Appenders: []AppenderConfig{{Type: "console"}},
	}
}
