package config

// Engine bounds the walker dispatch loop: depth/visit caps that
// produce a structured LimitError, and the per-walk default deadline
// applied when the caller's context carries none.
type Engine struct {
	MaxDepth         int    `json:"max_depth" mapstructure:"max_depth" ini:"max_depth" yaml:"max_depth"`
	MaxTotalVisits   int    `json:"max_total_visits" mapstructure:"max_total_visits" ini:"max_total_visits" yaml:"max_total_visits"`
	DefaultTimeout   string `json:"default_timeout" mapstructure:"default_timeout" ini:"default_timeout" yaml:"default_timeout"`
	RecordTrail      bool   `json:"record_trail" mapstructure:"record_trail" ini:"record_trail" yaml:"record_trail"`
}

func (*Engine) setDefault() {
	cv.SetDefault("engine.max_depth", 1000)
	cv.SetDefault("engine.max_total_visits", 100000)
	cv.SetDefault("engine.default_timeout", "30s")
	cv.SetDefault("engine.record_trail", false)
}

// RateLimit is the default sliding-window shape applied to endpoints
// that enable it without their own requests/window override.
type RateLimit struct {
	Requests int    `json:"requests" mapstructure:"requests" ini:"requests" yaml:"requests"`
	Window   string `json:"window" mapstructure:"window" ini:"window" yaml:"window"`
}

func (*RateLimit) setDefault() {
	cv.SetDefault("ratelimit.requests", 60)
	cv.SetDefault("ratelimit.window", "1m")
}

// Webhook configures idempotency caching and async dispatch shared by
// every endpoint registered with webhook=true.
type Webhook struct {
	IdempotencyTTL string `json:"idempotency_ttl" mapstructure:"idempotency_ttl" ini:"idempotency_ttl" yaml:"idempotency_ttl"`
	AsyncPoolSize  int    `json:"async_pool_size" mapstructure:"async_pool_size" ini:"async_pool_size" yaml:"async_pool_size"`
}

func (*Webhook) setDefault() {
	cv.SetDefault("webhook.idempotency_ttl", "24h")
	cv.SetDefault("webhook.async_pool_size", 50)
}

// Cron schedules the background sweep of expired idempotency records,
// grounded on the same scheduler the teacher uses for periodic jobs.
// IdempotencySweep is a Go duration string ("1h").
type Cron struct {
	IdempotencySweep string `json:"idempotency_sweep" mapstructure:"idempotency_sweep" ini:"idempotency_sweep" yaml:"idempotency_sweep"`
}

func (*Cron) setDefault() {
	cv.SetDefault("cron.idempotency_sweep", "1h")
}
