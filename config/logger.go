package config

// Logger configures the zap-backed subsystem loggers built by the
// logger package: one rolling file per subsystem, under App.Dir,
// sharing level/format/rotation policy.
type Logger struct {
	File       string `json:"file" mapstructure:"file" ini:"file" yaml:"file"`
	Level      string `json:"level" mapstructure:"level" ini:"level" yaml:"level"`
	Format     string `json:"format" mapstructure:"format" ini:"format" yaml:"format"`   // "json" | "console"
	Encoder    string `json:"encoder" mapstructure:"encoder" ini:"encoder" yaml:"encoder"` // "lowercase" | "capital"
	MaxAge     int    `json:"max_age" mapstructure:"max_age" ini:"max_age" yaml:"max_age"`
	MaxSize    int    `json:"max_size" mapstructure:"max_size" ini:"max_size" yaml:"max_size"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups" ini:"max_backups" yaml:"max_backups"`
}

func (*Logger) setDefault() {
	cv.SetDefault("logger.file", "jvspatiald.log")
	cv.SetDefault("logger.level", "info")
	cv.SetDefault("logger.format", "json")
	cv.SetDefault("logger.encoder", "lowercase")
	cv.SetDefault("logger.max_age", 7)
	cv.SetDefault("logger.max_size", 100)
	cv.SetDefault("logger.max_backups", 10)
}
