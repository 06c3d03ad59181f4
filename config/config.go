// Package config carries the command-line settings shared by every subcommand.
package config

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mertwole/bencode-cli/bencode/decode"
	"github.com/mertwole/bencode-cli/bencode/encode"
)

// DefaultLogFile is where the inspector logs when no --log-file is given,
// since the terminal UI owns stderr.
const DefaultLogFile = "bencode-cli.log"

type Config struct {
	Debug         bool
	LogFile       string
	Encoding      string
	MaxDepth      int
	DuplicateKeys decode.DuplicateKeys
	LoggingPrefix string

	// console receives human-readable records when Debug is set.
	console io.Writer
	writer  io.Writer
}

type Option func(*Config)

func WithDebug(d bool) Option {
	return func(c *Config) {
		c.Debug = d
	}
}

func WithLogFile(path string) Option {
	return func(c *Config) {
		c.LogFile = path
	}
}

func WithEncoding(name string) Option {
	return func(c *Config) {
		c.Encoding = name
	}
}

func WithMaxDepth(depth int) Option {
	return func(c *Config) {
		c.MaxDepth = depth
	}
}

func WithDuplicateKeys(policy decode.DuplicateKeys) Option {
	return func(c *Config) {
		c.DuplicateKeys = policy
	}
}

func WithLoggingPrefix(p string) Option {
	return func(c *Config) {
		c.LoggingPrefix = p
	}
}

// WithConsole replaces stderr as the destination of debug console records.
func WithConsole(w io.Writer) Option {
	return func(c *Config) {
		c.console = w
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		Debug:         os.Getenv("BENCODE_DEBUG") == "1",
		MaxDepth:      decode.DefaultMaxDepth,
		DuplicateKeys: decode.LastWins,
		LoggingPrefix: "bencode-cli",
		console:       os.Stderr,
	}
	for _, o := range opts {
		o(c)
	}

	if c.LogFile != "" {
		c.writer = &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}

	return c
}

// Logger writes JSON records to the log file and, in debug mode, readable
// records to the console. Pass interactive to keep the console quiet while
// a terminal UI owns the screen.
func (c Config) Logger(source string, interactive bool) *zap.SugaredLogger {
	var p string
	if source == "" {
		p = c.LoggingPrefix
	} else {
		p = fmt.Sprintf("%s:%s", c.LoggingPrefix, source)
	}

	level := zapcore.InfoLevel
	if c.Debug {
		level = zapcore.DebugLevel
	}
	opts := []zap.Option{
		zap.Fields(zap.String("source", p)),
	}

	de := zap.NewDevelopmentEncoderConfig()
	cores := make([]zapcore.Core, 0, 2)
	if c.writer != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(de), zapcore.AddSync(c.writer), level))
	}
	if c.Debug && !interactive && c.console != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(de), zapcore.AddSync(c.console), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)
	return logger.Sugar()
}

func (c Config) DecodeOptions() []decode.Option {
	options := []decode.Option{
		decode.WithMaxDepth(c.MaxDepth),
		decode.WithDuplicateKeys(c.DuplicateKeys),
	}
	if c.Encoding != "" {
		options = append(options, decode.WithEncoding(c.Encoding))
	}

	return options
}

func (c Config) EncodeOptions() []encode.Option {
	options := []encode.Option{encode.WithMaxDepth(c.MaxDepth)}
	if c.Encoding != "" {
		options = append(options, encode.WithEncoding(c.Encoding))
	}

	return options
}

// ParseDuplicateKeys maps the --duplicate-keys flag value onto a policy.
func ParseDuplicateKeys(name string) (decode.DuplicateKeys, error) {
	for _, policy := range []decode.DuplicateKeys{decode.LastWins, decode.FirstWins, decode.RejectDuplicates} {
		if policy.String() == name {
			return policy, nil
		}
	}

	return decode.LastWins, fmt.Errorf("unknown duplicate key policy %q, expected last, first or reject", name)
}
