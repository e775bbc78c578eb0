package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Metadata MetadataSettings `json:"metadata"`
	Trakt    TraktSettings    `json:"trakt"`
	Pipeline PipelineSettings `json:"pipeline"`
	Cache    CacheSettings    `json:"cache"`
	// GenreLabels overrides entries of the built-in TMDB genre-code → label
	// table. Keys are decimal genre codes.
	GenreLabels map[string]string `json:"genreLabels,omitempty"`
	Log         LogConfig         `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type MetadataSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"`
}

// TraktSettings holds the public-API client ID and a default user slug for
// the watchlist widgets. No OAuth: only public data is read.
type TraktSettings struct {
	ClientID    string `json:"clientId"`
	DefaultUser string `json:"defaultUser"`
}

// ResolveMode controls what happens to candidates the resolver cannot match.
type ResolveMode string

const (
	// ResolveModeLenient keeps unmatched candidates as origin-only cards.
	ResolveModeLenient ResolveMode = "lenient"
	// ResolveModeStrict drops unmatched candidates from the output.
	ResolveModeStrict ResolveMode = "strict"
)

type PipelineSettings struct {
	// MaxParallel caps concurrent resolver/enricher requests per invocation.
	// Clamped to 1..25 on load.
	MaxParallel int         `json:"maxParallel"`
	ResolveMode ResolveMode `json:"resolveMode"`
	PageSize    int         `json:"pageSize"`
}

type CacheSettings struct {
	ResponseTTLMinutes int `json:"responseTtlMinutes"`
}

// LogConfig represents file logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Host: "0.0.0.0", Port: 7788},
		Metadata: MetadataSettings{TMDBAPIKey: "", Language: "zh-CN"},
		Trakt:    TraktSettings{ClientID: "", DefaultUser: ""},
		Pipeline: PipelineSettings{MaxParallel: 12, ResolveMode: ResolveModeLenient, PageSize: 15},
		Cache:    CacheSettings{ResponseTTLMinutes: 60},
		Log: LogConfig{
			File:       "cache/logs/watchdeck.log",
			MaxSize:    50, // MB per file
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk or creates defaults if missing. Missing or
// out-of-range fields are backfilled so configs from older versions keep
// working.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	backfill(&s)
	return s, nil
}

func backfill(s *Settings) {
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port <= 0 {
		s.Server.Port = 7788
	}
	if strings.TrimSpace(s.Metadata.Language) == "" {
		s.Metadata.Language = "zh-CN"
	}
	if s.Pipeline.MaxParallel <= 0 {
		s.Pipeline.MaxParallel = 12
	}
	if s.Pipeline.MaxParallel > 25 {
		s.Pipeline.MaxParallel = 25
	}
	if s.Pipeline.ResolveMode != ResolveModeStrict {
		s.Pipeline.ResolveMode = ResolveModeLenient
	}
	if s.Pipeline.PageSize <= 0 {
		s.Pipeline.PageSize = 15
	}
	if s.Cache.ResponseTTLMinutes <= 0 {
		s.Cache.ResponseTTLMinutes = 60
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "cache/logs/watchdeck.log"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
