package config

// Storage selects and configures the graph/auth persistence backend.
// Backend is one of "memory", "sqlite", "postgres", "mongodb" and is
// overridable by the JVSPATIAL_STORAGE_BACKEND environment variable
// independent of the section's own env override, since it gates which
// of the sub-sections below even gets dialed.
type Storage struct {
	Backend  string `json:"backend" mapstructure:"backend" ini:"backend" yaml:"backend"`
	Sqlite   `json:"sqlite" mapstructure:"sqlite" ini:"sqlite" yaml:"sqlite"`
	Postgres `json:"postgres" mapstructure:"postgres" ini:"postgres" yaml:"postgres"`
	Mongo    `json:"mongo" mapstructure:"mongo" ini:"mongo" yaml:"mongo"`
}

func (s *Storage) setDefault() {
	cv.SetDefault("storage.backend", "memory")
	s.Sqlite.setDefault()
	s.Postgres.setDefault()
	s.Mongo.setDefault()
}

type Sqlite struct {
	Path string `json:"path" mapstructure:"path" ini:"path" yaml:"path"`
}

func (*Sqlite) setDefault() {
	cv.SetDefault("storage.sqlite.path", "jvspatial.db")
}

type Postgres struct {
	Host     string `json:"host" mapstructure:"host" ini:"host" yaml:"host"`
	Port     int    `json:"port" mapstructure:"port" ini:"port" yaml:"port"`
	User     string `json:"user" mapstructure:"user" ini:"user" yaml:"user"`
	Password string `json:"password" mapstructure:"password" ini:"password" yaml:"password"`
	DBName   string `json:"dbname" mapstructure:"dbname" ini:"dbname" yaml:"dbname"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode" ini:"sslmode" yaml:"sslmode"`
}

func (*Postgres) setDefault() {
	cv.SetDefault("storage.postgres.host", "127.0.0.1")
	cv.SetDefault("storage.postgres.port", 5432)
	cv.SetDefault("storage.postgres.user", "jvspatial")
	cv.SetDefault("storage.postgres.dbname", "jvspatial")
	cv.SetDefault("storage.postgres.sslmode", "disable")
}

type Mongo struct {
	URI      string `json:"uri" mapstructure:"uri" ini:"uri" yaml:"uri"`
	Database string `json:"database" mapstructure:"database" ini:"database" yaml:"database"`
}

func (*Mongo) setDefault() {
	cv.SetDefault("storage.mongo.uri", "mongodb://127.0.0.1:27017")
	cv.SetDefault("storage.mongo.database", "jvspatial")
}

// Redis, when Enable is set, is attached as a read-through cache in
// front of the storage.Adapter that holds webhook idempotency records.
// The rate limiter does not use it; its counters are always in process.
type Redis struct {
	Enable   bool   `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Addr     string `json:"addr" mapstructure:"addr" ini:"addr" yaml:"addr"`
	Password string `json:"password" mapstructure:"password" ini:"password" yaml:"password"`
	DB       int    `json:"db" mapstructure:"db" ini:"db" yaml:"db"`
}

func (*Redis) setDefault() {
	cv.SetDefault("redis.enable", false)
	cv.SetDefault("redis.addr", "127.0.0.1:6379")
	cv.SetDefault("redis.db", 0)
}
