package config

// Mode selects debug vs. release behavior (verbose logging, pprof,
// gin's own debug/release router mode).
type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

// AppInfo identifies the running binary for logs, metrics labels, and
// the `GET /` banner.
type AppInfo struct {
	Name    string `json:"name" mapstructure:"name" ini:"name" yaml:"name"`
	Version string `json:"version" mapstructure:"version" ini:"version" yaml:"version"`
	Mode    Mode   `json:"mode" mapstructure:"mode" ini:"mode" yaml:"mode"`
	Dir     string `json:"dir" mapstructure:"dir" ini:"dir" yaml:"dir"` // log/data directory
}

func (*AppInfo) setDefault() {
	cv.SetDefault("app.name", "jvspatiald")
	cv.SetDefault("app.version", "dev")
	cv.SetDefault("app.mode", string(ModeRelease))
	cv.SetDefault("app.dir", "./data")
}

// Server configures the gin.Engine's HTTP listener.
type Server struct {
	Host            string   `json:"host" mapstructure:"host" ini:"host" yaml:"host"`
	Port            int      `json:"port" mapstructure:"port" ini:"port" yaml:"port"`
	ReadTimeout     int      `json:"read_timeout" mapstructure:"read_timeout" ini:"read_timeout" yaml:"read_timeout"`     // seconds
	WriteTimeout    int      `json:"write_timeout" mapstructure:"write_timeout" ini:"write_timeout" yaml:"write_timeout"` // seconds
	ShutdownTimeout int      `json:"shutdown_timeout" mapstructure:"shutdown_timeout" ini:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string `json:"cors_origins" mapstructure:"cors_origins" ini:"cors_origins" yaml:"cors_origins"`
	CORSMethods     []string `json:"cors_methods" mapstructure:"cors_methods" ini:"cors_methods" yaml:"cors_methods"`
	CORSHeaders     []string `json:"cors_headers" mapstructure:"cors_headers" ini:"cors_headers" yaml:"cors_headers"`
	LogLevel        string   `json:"log_level" mapstructure:"log_level" ini:"log_level" yaml:"log_level"`
}

func (*Server) setDefault() {
	cv.SetDefault("server.host", "0.0.0.0")
	cv.SetDefault("server.port", 8080)
	cv.SetDefault("server.read_timeout", 15)
	cv.SetDefault("server.write_timeout", 15)
	cv.SetDefault("server.shutdown_timeout", 10)
	cv.SetDefault("server.cors_origins", []string{"*"})
	cv.SetDefault("server.cors_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	cv.SetDefault("server.cors_headers", []string{"Origin", "Content-Type", "Authorization", "X-API-Key"})
	cv.SetDefault("server.log_level", "info")
}

// Debug toggles pprof and verbose request/response logging.
type Debug struct {
	Enable bool `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Pprof  bool `json:"pprof" mapstructure:"pprof" ini:"pprof" yaml:"pprof"`
}

func (*Debug) setDefault() {
	cv.SetDefault("debug.enable", false)
	cv.SetDefault("debug.pprof", false)
}

// Metrics controls the Prometheus exposition endpoint.
type Metrics struct {
	Enable bool   `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Path   string `json:"path" mapstructure:"path" ini:"path" yaml:"path"`
}

func (*Metrics) setDefault() {
	cv.SetDefault("metrics.enable", true)
	cv.SetDefault("metrics.path", "/metrics")
}
