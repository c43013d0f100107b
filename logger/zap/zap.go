// Package zap builds the logger.Logger subsystem vars on top of
// uber-go/zap, directly adapted from the teacher's logger/zap package:
// same encoder/writer/level construction and the same New/NewGorm/
// NewCasbin/NewGin family of constructors, trimmed to the subsystems
// this module actually logs from (logger/logger.go's var list) instead
// of the teacher's ~25 storage/broker-specific loggers.
package zap

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	casbinl "github.com/casbin/casbin/v2/log"
	"github.com/forbearing/jvspatial/config"
	"github.com/forbearing/jvspatial/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	gorml "gorm.io/gorm/logger"
)

const layoutTimeEncoder = "2006-01-02 15:04:05.000"

var (
	mode          config.Mode
	logFile       string
	logLevel      string
	logFormat     string
	logMaxAge     int
	logMaxSize    int
	logMaxBackups int
)

// Option configures encoder behavior for constructors.
// DisableMsg/DisableLevel hide "msg" and "level" fields; TSLayout sets time format.
type Option struct {
	DisableMsg   bool
	DisableLevel bool
	TSLayout     string
}

// Init initializes global loggers from config and wires subsystem loggers.
func Init() error {
	readConf()
	zap.ReplaceGlobals(zap.New(
		zapcore.NewCore(newLogEncoder(), newLogWriter(), newLogLevel()),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.FatalLevel),
	))

	logger.Engine = New("engine.log")
	logger.Storage = New("storage.log")
	logger.Endpoint = New("endpoint.log")
	logger.Webhook = New("webhook.log")
	logger.RateLimit = New("ratelimit.log")
	logger.Authn = New("authn.log")
	logger.Authz = New("authz.log", Option{DisableMsg: true})
	logger.Graph = New("graph.log")
	logger.Cron = New("cron.log")
	logger.Audit = New("audit.log")

	logger.Gin = NewGin("access.log")
	logger.Gorm = NewGorm("gorm.log")
	logger.Casbin = NewCasbin("casbin.log")

	return nil
}

// Clean flushes every subsystem logger's buffered entries.
func Clean() {
	_ = zap.L().Sync()
	logs := []logger.Logger{
		logger.Engine,
		logger.Storage,
		logger.Endpoint,
		logger.Webhook,
		logger.RateLimit,
		logger.Authn,
		logger.Authz,
		logger.Graph,
		logger.Cron,
		logger.Audit,
	}
	for _, l := range logs {
		if zl, ok := l.(*Logger); ok && zl != nil {
			_ = zl.zlog.Sync()
		}
	}
	if logger.Gin != nil {
		_ = logger.Gin.Sync()
	}
	if gl, ok := logger.Gorm.(*GormLogger); ok {
		if zl, ok := gl.l.(*Logger); ok {
			_ = zl.zlog.Sync()
		}
	}
	if cl, ok := logger.Casbin.(*CasbinLogger); ok {
		if zl, ok := cl.l.(*Logger); ok {
			_ = zl.zlog.Sync()
		}
	}
}

// New builds a logger.Logger backed by *zap.Logger.
// filename: target log file name ("/dev/stdout" for console)
func New(filename string, opts ...Option) *Logger {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	zl := zap.New(
		zapcore.NewCore(newLogEncoder(opts...), newLogWriter(opts...), newLogLevel(opts...)),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.FatalLevel),
	)
	return &Logger{zlog: zl}
}

// NewGorm builds a gorm logger.Interface backing storage/sqlstore.
func NewGorm(filename string) gorml.Interface {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	zl := zap.New(
		zapcore.NewCore(newLogEncoder(), newLogWriter(), newLogLevel()),
		zap.AddCaller(),
		zap.AddCallerSkip(5),
		zap.AddStacktrace(zapcore.FatalLevel),
	)
	return &GormLogger{l: &Logger{zlog: zl}}
}

// NewCasbin builds a casbin Logger (no caller field) backing authz/rbac.
func NewCasbin(filename string) casbinl.Logger {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	zl := zap.New(
		zapcore.NewCore(newLogEncoder(Option{DisableMsg: true}), newLogWriter(), newLogLevel()),
		zap.AddStacktrace(zapcore.FatalLevel),
	)
	return &CasbinLogger{l: &Logger{zlog: zl}}
}

// NewGin builds a *zap.Logger for gin access logs.
func NewGin(filename string) *zap.Logger {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	return zap.New(zapcore.NewCore(newLogEncoder(Option{DisableMsg: true, DisableLevel: true}), newLogWriter(), newLogLevel()))
}

// NewStdLog builds a *log.Logger backed by *zap.Logger.
func NewStdLog() *log.Logger {
	return zap.NewStdLog(NewZap(""))
}

// NewZap builds a *zap.Logger with optional filename and options.
func NewZap(filename string, opts ...Option) *zap.Logger {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	return zap.New(
		zapcore.NewCore(newLogEncoder(opts...), newLogWriter(opts...), newLogLevel(opts...)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.FatalLevel))
}

func newLogWriter(_ ...Option) zapcore.WriteSyncer {
	switch strings.TrimSpace(logFile) {
	case "/dev/stdout":
		return zapcore.AddSync(os.Stdout)
	case "/dev/stderr":
		return zapcore.AddSync(os.Stderr)
	case "":
		return zapcore.AddSync(os.Stdout)
	default:
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(config.App.Dir, logFile),
			MaxAge:     logMaxAge,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			LocalTime:  true,
		})
	}
}

func newLogLevel(_ ...Option) zapcore.Level {
	if len(logLevel) == 0 {
		return zapcore.InfoLevel
	}
	level := new(zapcore.Level)
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return zapcore.InfoLevel
	}
	return *level
}

func newLogEncoder(opt ...Option) zapcore.Encoder {
	encConfig := zap.NewProductionEncoderConfig()
	encConfig.EncodeTime = zapcore.TimeEncoderOfLayout(layoutTimeEncoder)
	encConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if len(opt) > 0 {
		o := opt[0]
		if o.DisableMsg {
			encConfig.MessageKey = ""
		}
		if o.DisableLevel {
			encConfig.LevelKey = ""
		}
		if len(o.TSLayout) > 0 {
			encConfig.EncodeTime = zapcore.TimeEncoderOfLayout(o.TSLayout)
		}
	}
	switch strings.ToLower(logFormat) {
	case "json":
		return zapcore.NewJSONEncoder(encConfig)
	case "text", "console":
		return zapcore.NewConsoleEncoder(encConfig)
	default:
		return zapcore.NewJSONEncoder(encConfig)
	}
}

func readConf() {
	mode = config.App.Mode
	logFile = config.App.Logger.File
	logLevel = config.App.Logger.Level
	logFormat = config.App.Logger.Format
	logMaxAge = config.App.Logger.MaxAge
	logMaxSize = config.App.Logger.MaxSize
	logMaxBackups = config.App.Logger.MaxBackups
}

// customConsoleEncoder appends extra fields in key=value form after
// the base console line. newLogEncoder does not use it: the
// "console"/"text" format gets zap's plain console encoder.
type customConsoleEncoder struct {
	zapcore.Encoder
}

func newCustomConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &customConsoleEncoder{zapcore.NewConsoleEncoder(cfg)}
}

func (e *customConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line, err := e.Encoder.EncodeEntry(ent, nil)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		line.TrimNewline()
		for _, f := range fields {
			line.AppendString("\t")
			line.AppendString(f.Key)
			line.AppendString("=")
			switch f.Type {
			case zapcore.StringType:
				line.AppendString(f.String)
			case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
				line.AppendString(strconv.FormatInt(f.Integer, 10))
			default:
				line.AppendString(fmt.Sprint(f.Interface))
			}
		}
		line.AppendString("\n")
	}
	return line, nil
}

