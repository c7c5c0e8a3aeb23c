package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/RowanDark/hexkit/internal/codec"
	"github.com/RowanDark/hexkit/internal/hexify"
)

// Config captures the hexkit configuration resolved from defaults, optional
// files, and environment overrides.
type Config struct {
	Separator    string `yaml:"separator" toml:"separator" json:"separator"`
	MaxFieldLen  int    `yaml:"max_field_len" toml:"max_field_len" json:"max_field_len"`
	ASCIIOnly    bool   `yaml:"ascii_only" toml:"ascii_only" json:"ascii_only"`
	DefaultCodec string `yaml:"default_codec" toml:"default_codec" json:"default_codec"`
	RecipesDir   string `yaml:"recipes_dir" toml:"recipes_dir" json:"recipes_dir"`
	LogLevel     string `yaml:"log_level" toml:"log_level" json:"log_level"`
	HTTPAddr     string `yaml:"http_addr" toml:"http_addr" json:"http_addr"`
	GRPCAddr     string `yaml:"grpc_addr" toml:"grpc_addr" json:"grpc_addr"`
}

const (
	homeDirName   = ".hexkit"
	homeFileName  = "config.toml"
	localFileName = "hexkit.yml"
)

// Default returns the built-in configuration. Recipes are kept under home
// when it is known.
func Default(home string) Config {
	cfg := Config{
		Separator:    ":",
		MaxFieldLen:  hexify.DefaultMaxFieldLen,
		DefaultCodec: codec.KindBase64.String(),
		LogLevel:     "info",
		HTTPAddr:     "127.0.0.1:8420",
		GRPCAddr:     "127.0.0.1:50061",
	}
	if home != "" {
		cfg.RecipesDir = filepath.Join(home, homeDirName, "recipes")
	}
	return cfg
}

// Load resolves the configuration for the current user and working directory.
// The lookup order is:
//  1. built-in defaults
//  2. ~/.hexkit/config.toml (TOML)
//  3. ./hexkit.yml (YAML)
//  4. HEXKIT_* environment variables
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	wd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("determine working directory: %w", err)
	}
	return LoadFrom(home, wd)
}

// LoadFrom is Load with explicit home and working directories. An empty home
// skips the home config file.
func LoadFrom(home, wd string) (Config, error) {
	cfg := Default(home)

	if home != "" {
		path := filepath.Join(home, homeDirName, homeFileName)
		if err := applyFile(&cfg, path, toml.Unmarshal); err != nil {
			return Config{}, err
		}
	}
	if err := applyFile(&cfg, filepath.Join(wd, localFileName), yaml.Unmarshal); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// fileConfig mirrors Config with pointers so absent keys leave earlier
// layers untouched.
type fileConfig struct {
	Separator    *string `yaml:"separator" toml:"separator"`
	MaxFieldLen  *int    `yaml:"max_field_len" toml:"max_field_len"`
	ASCIIOnly    *bool   `yaml:"ascii_only" toml:"ascii_only"`
	DefaultCodec *string `yaml:"default_codec" toml:"default_codec"`
	RecipesDir   *string `yaml:"recipes_dir" toml:"recipes_dir"`
	LogLevel     *string `yaml:"log_level" toml:"log_level"`
	HTTPAddr     *string `yaml:"http_addr" toml:"http_addr"`
	GRPCAddr     *string `yaml:"grpc_addr" toml:"grpc_addr"`
}

func applyFile(cfg *Config, path string, unmarshal func([]byte, any) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Separator, fc.Separator, false)
	setString(&cfg.DefaultCodec, fc.DefaultCodec, true)
	setString(&cfg.RecipesDir, fc.RecipesDir, true)
	setString(&cfg.LogLevel, fc.LogLevel, true)
	setString(&cfg.HTTPAddr, fc.HTTPAddr, true)
	setString(&cfg.GRPCAddr, fc.GRPCAddr, true)
	if fc.MaxFieldLen != nil {
		cfg.MaxFieldLen = *fc.MaxFieldLen
	}
	if fc.ASCIIOnly != nil {
		cfg.ASCIIOnly = *fc.ASCIIOnly
	}
	return nil
}

// setString copies src into dst. The separator may legitimately be a space
// or tab, so it is never trimmed.
func setString(dst *string, src *string, trim bool) {
	if src == nil {
		return
	}
	if trim {
		*dst = strings.TrimSpace(*src)
		return
	}
	*dst = *src
}

func lookup(suffix string) (string, bool) {
	return os.LookupEnv("HEXKIT_" + suffix)
}

func applyEnvOverrides(cfg *Config) error {
	if val, ok := lookup("SEPARATOR"); ok && val != "" {
		cfg.Separator = val
	}
	for suffix, dst := range map[string]*string{
		"DEFAULT_CODEC": &cfg.DefaultCodec,
		"RECIPES_DIR":   &cfg.RecipesDir,
		"LOG_LEVEL":     &cfg.LogLevel,
		"HTTP_ADDR":     &cfg.HTTPAddr,
		"GRPC_ADDR":     &cfg.GRPCAddr,
	} {
		if val, ok := lookup(suffix); ok && strings.TrimSpace(val) != "" {
			*dst = strings.TrimSpace(val)
		}
	}
	if val, ok := lookup("MAX_FIELD_LEN"); ok && strings.TrimSpace(val) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("HEXKIT_MAX_FIELD_LEN: %w", err)
		}
		cfg.MaxFieldLen = n
	}
	if val, ok := lookup("ASCII_ONLY"); ok && strings.TrimSpace(val) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("HEXKIT_ASCII_ONLY: %w", err)
		}
		cfg.ASCIIOnly = b
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if len(c.Separator) != 1 {
		return fmt.Errorf("separator must be exactly one byte, got %q", c.Separator)
	}
	if c.MaxFieldLen <= 0 {
		return fmt.Errorf("max_field_len must be positive, got %d", c.MaxFieldLen)
	}
	if _, ok := codec.Lookup(c.DefaultCodec); !ok {
		return fmt.Errorf("default_codec %q is not one of %s", c.DefaultCodec, strings.Join(codec.Names(), ", "))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	return nil
}

// Policy returns the escaping policy described by the configuration.
func (c Config) Policy() hexify.Policy {
	p := hexify.DefaultPolicy()
	if len(c.Separator) > 0 {
		p.Separator = c.Separator[0]
	}
	p.ASCIIOnly = c.ASCIIOnly
	if c.MaxFieldLen > 0 {
		p.MaxFieldLen = c.MaxFieldLen
	}
	return p
}

// Codec returns the alphabet named by DefaultCodec, falling back to base64.
func (c Config) Codec() codec.Alphabet {
	if a, ok := codec.Lookup(c.DefaultCodec); ok {
		return a
	}
	return codec.Base64
}
