// Package config loads dashboard settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/naveenspark/cmsdash/pkg/paging"
)

const (
	DefaultAPIURL  = "http://localhost:1337"
	DefaultTimeout = 30 * time.Second
	stateDirName   = ".cmsdash"
	envFileName    = "config.env"
)

// Config holds every setting the dashboard reads at startup.
type Config struct {
	APIURL      string
	StateDir    string
	Token       string // overrides the stored session when set
	PageSize    int
	Locale      string
	RefreshPath string
	Timeout     time.Duration
	LogLevel    string
	LogFormat   string
}

// Load reads .env in the working directory and <stateDir>/config.env, then
// the environment. Variables already set in the environment win over both
// files. Invalid numbers and durations fall back to defaults.
func Load() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}
	stateDir, err := stateDir()
	if err != nil {
		return nil, err
	}
	if err := loadEnvFile(filepath.Join(stateDir, envFileName)); err != nil {
		return nil, err
	}
	// config.env may itself move the state directory.
	if dir := os.Getenv("CMSDASH_STATE_DIR"); dir != "" {
		stateDir = dir
	}

	return &Config{
		APIURL:      strings.TrimRight(getenv("CMSDASH_API_URL", DefaultAPIURL), "/"),
		StateDir:    stateDir,
		Token:       os.Getenv("CMSDASH_TOKEN"),
		PageSize:    getenvInt("CMSDASH_PAGE_SIZE", paging.DefaultSize),
		Locale:      getenv("CMSDASH_LOCALE", os.Getenv("LANG")),
		RefreshPath: os.Getenv("CMSDASH_REFRESH_PATH"),
		Timeout:     getenvDuration("CMSDASH_TIMEOUT", DefaultTimeout),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
	}, nil
}

// loadEnvFile loads path if it exists. godotenv.Load never overrides
// variables that are already set.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &FileError{Path: path, Err: err}
	}
	return nil
}

func stateDir() (string, error) {
	if dir := os.Getenv("CMSDASH_STATE_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &FileError{Path: "~", Err: err}
	}
	return filepath.Join(home, stateDirName), nil
}

// FileError reports an unreadable configuration source.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return "config: " + e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error { return e.Err }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
