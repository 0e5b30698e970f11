package internal

// Internal logging utility.

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	logLevel LogLevel
	atom     zap.AtomicLevel
	sugar    *zap.SugaredLogger
}

type LogLevel int

const (
	// error levels that should almost always be printed
	LevelFatal LogLevel = iota // error that must stop the program (panics)
	LevelError                 // error that does not need to stop execution

	// debugging levels, okay to disable
	LevelWarn // something may be wrong, but not necessarily an error
	LevelInfo // nothing wrong, informational only

	// Production code by default only shows warnings and above.
	LogLevelDefault = LevelWarn

	// min, max levels for setting print level
	LevelMin = LevelFatal
	LevelMax = LevelInfo
)

var (
	levelToZap = []zapcore.Level{
		zapcore.FatalLevel,
		zapcore.ErrorLevel,
		zapcore.WarnLevel,
		zapcore.InfoLevel,
	}
)

func NewLogger() *Logger {
	atom := zap.NewAtomicLevelAt(levelToZap[LogLevelDefault])
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		atom)
	z := zap.New(core)
	return &Logger{logLevel: LogLevelDefault, atom: atom, sugar: z.Sugar()}
}

func (l *Logger) LogLevel() LogLevel {
	return l.logLevel
}

// SetLogLevel returns the old level
func (l *Logger) SetLogLevel(level LogLevel) LogLevel {
	if level < LevelMin || level > LevelMax {
		panic("trying to set invalid log level")
	}
	old := l.logLevel
	l.logLevel = level
	l.atom.SetLevel(levelToZap[level])
	return old
}

func (l *Logger) Info(v ...any)                 { l.sugar.Info(v...) }
func (l *Logger) Infof(format string, v ...any) { l.sugar.Infof(format, v...) }

func (l *Logger) Warn(v ...any)                 { l.sugar.Warn(v...) }
func (l *Logger) Warnf(format string, v ...any) { l.sugar.Warnf(format, v...) }

func (l *Logger) Error(v ...any)                 { l.sugar.Error(v...) }
func (l *Logger) Errorf(format string, v ...any) { l.sugar.Errorf(format, v...) }

func (l *Logger) Fatal(v ...any)                 { l.sugar.Fatal(v...) }
func (l *Logger) Fatalf(format string, v ...any) { l.sugar.Fatalf(format, v...) }
