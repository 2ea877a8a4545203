// Package config loads server settings from flags and CHESSCORE_*
// environment variables. Flags win over the environment, which wins over
// the defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/benbeisheim/chesscore-backend/internal/notation"
)

const envPrefix = "CHESSCORE_"

type Config struct {
	Addr            string
	AllowOrigins    string
	DataDir         string
	InMemoryArchive bool
	LogLevel        string
	StartFEN        string
}

func Default() Config {
	return Config{
		Addr:         ":3000",
		AllowOrigins: "http://localhost:5173",
		LogLevel:     "info",
		StartFEN:     notation.InitialFEN,
	}
}

var levels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Load builds a Config from args (without the program name) and the
// process environment. Usage goes to stderr; -h returns flag.ErrHelp.
func Load(args []string) (Config, error) {
	return load(args, os.LookupEnv, os.Stderr)
}

func load(args []string, lookup func(string) (string, bool), usage io.Writer) (Config, error) {
	cfg := Default()
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("chesscore", flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.AllowOrigins, "origins", cfg.AllowOrigins, "comma separated CORS origins")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "archive directory (default: platform data dir)")
	fs.BoolVar(&cfg.InMemoryArchive, "memory", cfg.InMemoryArchive, "keep the archive in memory only")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	fs.StringVar(&cfg.StartFEN, "fen", cfg.StartFEN, "default starting position for new games")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"ADDR":      &cfg.Addr,
		"ORIGINS":   &cfg.AllowOrigins,
		"DATA_DIR":  &cfg.DataDir,
		"LOG_LEVEL": &cfg.LogLevel,
		"START_FEN": &cfg.StartFEN,
	}
	for name, dst := range str {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	if v, ok := lookup(envPrefix + "MEMORY"); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			cfg.InMemoryArchive = true
		case "0", "false", "no", "":
			cfg.InMemoryArchive = false
		default:
			return fmt.Errorf("%sMEMORY: invalid boolean %q", envPrefix, v)
		}
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: empty listen address")
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if _, err := notation.ParseFEN(c.StartFEN); err != nil {
		return fmt.Errorf("config: start position: %w", err)
	}
	// Credentialed CORS needs an explicit origin list.
	origins := c.Origins()
	if len(origins) == 0 {
		return errors.New("config: no CORS origins")
	}
	for _, o := range origins {
		if o == "*" {
			return errors.New("config: wildcard CORS origin is not allowed")
		}
	}
	return nil
}

// Origins splits AllowOrigins on commas, dropping blanks.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level returns the fiber log level named by LogLevel.
func (c Config) Level() log.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.LevelInfo
}
