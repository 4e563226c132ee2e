package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server          ServerSettings          `json:"server"`
	Store           StoreSettings           `json:"store"`
	Activity        ActivitySettings        `json:"activity"`
	Metadata        MetadataSettings        `json:"metadata"`
	Recommendations RecommendationsSettings `json:"recommendations"`
	Sync            SyncSettings            `json:"sync"`
	Query           QuerySettings           `json:"query"`
	Log             LogConfig               `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StoreSettings selects the collection backend. When Redis.Addr is empty the
// local file-backed store under Directory is used; otherwise the remote
// redis store. The choice is made once at process start.
type StoreSettings struct {
	Directory string        `json:"directory"`
	Redis     RedisSettings `json:"redis"`
}

type RedisSettings struct {
	Addr      string `json:"addr"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"keyPrefix"`
}

// ActivitySettings configures the watch-activity service client.
type ActivitySettings struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

// MetadataSettings configures the metadata lookup service.
type MetadataSettings struct {
	BaseURL        string  `json:"baseUrl"`
	APIKey         string  `json:"apiKey"`
	RequestsPerSec float64 `json:"requestsPerSec"` // upstream enforces a request budget
}

// RecommendationsSettings configures the similar/recommended lookups.
type RecommendationsSettings struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

// SyncSettings controls reconciliation-time enrichment.
type SyncSettings struct {
	EnrichWorkers    int `json:"enrichWorkers"`
	EnrichTimeoutSec int `json:"enrichTimeoutSec"`
}

// QuerySettings controls collection pagination.
type QuerySettings struct {
	PageSize int `json:"pageSize"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7788},
		Store: StoreSettings{
			Directory: "cache",
			Redis:     RedisSettings{Addr: "", DB: 0, KeyPrefix: "collection:"},
		},
		Activity: ActivitySettings{BaseURL: "https://api.trakt.tv"},
		Metadata: MetadataSettings{
			BaseURL:        "https://www.omdbapi.com",
			RequestsPerSec: 2,
		},
		Recommendations: RecommendationsSettings{BaseURL: "https://api.trakt.tv"},
		Sync:            SyncSettings{EnrichWorkers: 4, EnrichTimeoutSec: 10},
		Query:           QuerySettings{PageSize: 50},
		Log: LogConfig{
			File:       "cache/logs/reelkeep.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
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

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file from disk or creates defaults if missing.
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

	s := DefaultSettings()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.Query.PageSize <= 0 {
		s.Query.PageSize = 50
	}
	if s.Sync.EnrichWorkers <= 0 {
		s.Sync.EnrichWorkers = 4
	}
	if s.Sync.EnrichTimeoutSec <= 0 {
		s.Sync.EnrichTimeoutSec = 10
	}
	if s.Metadata.RequestsPerSec <= 0 {
		s.Metadata.RequestsPerSec = 2
	}

	return s, nil
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
