package log

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
	sugar  *zap.SugaredLogger
)

// Conf holds logger configuration options.
type Conf struct {
	Output     string // stdout or file
	Path       string
	Filename   string
	Level      string
	KeepDays   int
	RotateSize int // max size of a single log file (MB)
	RotateNum  int // number of rotated files to keep
}

// SetDefaults fills zero values with sane defaults.
func (c *Conf) SetDefaults() {
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.Path == "" {
		c.Path = "./logs"
	}
	if c.Filename == "" {
		c.Filename = "plinth.log"
	}
	if c.Level == "" {
		c.Level = "INFO"
	}
	if c.KeepDays <= 0 {
		c.KeepDays = 7
	}
	if c.RotateSize <= 0 {
		c.RotateSize = 100
	}
	if c.RotateNum <= 0 {
		c.RotateNum = 10
	}
}

type Logger struct {
	Log *zap.SugaredLogger
}

// NewLog initializes the logger and returns a zap.Logger.
func NewLog(conf *Conf) (*zap.Logger, error) {
	conf.SetDefaults()

	var writeSyncer zapcore.WriteSyncer
	switch conf.Output {
	case "file":
		writeSyncer = getFileLogWriter(conf)
	default:
		writeSyncer = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(getEncoder(), writeSyncer, parseLogLevel(conf.Level))
	newLogger := zap.New(core, zap.AddCallerSkip(1), zap.AddCaller())

	mu.Lock()
	logger = newLogger
	sugar = newLogger.Sugar()
	mu.Unlock()

	return newLogger, nil
}

// Init initializes the global logger instance.
func Init(conf *Conf) error {
	_, err := NewLog(conf)
	return err
}

// MustInit initializes the global logger, panicking on failure.
func MustInit(conf *Conf) {
	if err := Init(conf); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

// GetLogger returns the global sugared logger.
func GetLogger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()

	encoderConfig.TimeKey = "time"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = "caller"
	encoderConfig.MessageKey = "msg"
	encoderConfig.LineEnding = zapcore.DefaultLineEnding
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = customTimeEncoder
	encoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	return zapcore.NewConsoleEncoder(encoderConfig)
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}

// parseLogLevel converts a string level to a zapcore.Level, case-insensitive.
func parseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func std() *zap.SugaredLogger {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s == nil {
		MustInit(&Conf{})
		mu.RLock()
		s = sugar
		mu.RUnlock()
	}
	return s
}

func WithContext(_ context.Context) *zap.SugaredLogger { return std() }

func Debug(args ...interface{})                 { std().Debug(args...) }
func Debugf(format string, args ...interface{}) { std().Debugf(format, args...) }
func Debugw(msg string, kv ...interface{})      { std().Debugw(msg, kv...) }
func Info(args ...interface{})                  { std().Info(args...) }
func Infof(format string, args ...interface{})  { std().Infof(format, args...) }
func Infow(msg string, kv ...interface{})       { std().Infow(msg, kv...) }
func Warn(args ...interface{})                  { std().Warn(args...) }
func Warnf(format string, args ...interface{})  { std().Warnf(format, args...) }
func Warnw(msg string, kv ...interface{})       { std().Warnw(msg, kv...) }
func Error(args ...interface{})                 { std().Error(args...) }
func Errorf(format string, args ...interface{}) { std().Errorf(format, args...) }
func Errorw(msg string, kv ...interface{})      { std().Errorw(msg, kv...) }
func Fatal(args ...interface{})                 { std().Fatal(args...) }
func Fatalf(format string, args ...interface{}) { std().Fatalf(format, args...) }
func Fatalw(msg string, kv ...interface{})      { std().Fatalw(msg, kv...) }
