// Package config loads service configuration from the embedded defaults,
// conf.yaml, .env and VOICELIST_ environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	appdefaults "github.com/veenjenga/Hands-and-Hope-sub001/config"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/logger"
	"github.com/veenjenga/Hands-and-Hope-sub001/pkg/audio"
)

const (
	envPrefix  = "voicelist"
	rootDirEnv = "VOICELIST_ROOT_DIR"
	redacted   = "********"
)

// SystemConfig is the listen host and port used when http_addr is unset.
type SystemConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// VoiceConfig tunes the voice engine.
type VoiceConfig struct {
	DuplicateWindow time.Duration     `mapstructure:"duplicate_window" yaml:"duplicate_window" validate:"gte=0"`
	RestartDelay    time.Duration     `mapstructure:"restart_delay" yaml:"restart_delay" validate:"gte=0"`
	TextDwell       time.Duration     `mapstructure:"text_dwell" yaml:"text_dwell" validate:"gte=0"`
	PlaybackTimeout time.Duration     `mapstructure:"playback_timeout" yaml:"playback_timeout" validate:"gte=0"`
	AddProductRoute string            `mapstructure:"add_product_route" yaml:"add_product_route" validate:"required,startswith=/"`
	Categories      []string          `mapstructure:"categories" yaml:"categories"`
	Routes          map[string]string `mapstructure:"routes" yaml:"routes" validate:"dive,startswith=/"`
	TourSteps       []string          `mapstructure:"tour_steps" yaml:"tour_steps"`
	TourFile        string            `mapstructure:"tour_file" yaml:"tour_file"`
}

// TTSConfig configures remote speech synthesis.
type TTSConfig struct {
	Provider      string        `mapstructure:"provider" yaml:"provider" validate:"oneof=elevenlabs none"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`
	VoiceID       string        `mapstructure:"voice_id" yaml:"voice_id"`
	ModelID       string        `mapstructure:"model_id" yaml:"model_id"`
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	RatePerSecond float64       `mapstructure:"rate_per_second" yaml:"rate_per_second" validate:"gte=0"`
	Burst         int           `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
}

// Enabled reports whether remote synthesis has what it needs to run.
func (t TTSConfig) Enabled() bool {
	return t.Provider == "elevenlabs" && t.APIKey != "" && t.VoiceID != ""
}

// AudioConfig is the Opus stream sent to clients.
type AudioConfig struct {
	SampleRate    int                  `mapstructure:"sample_rate" yaml:"sample_rate" validate:"oneof=8000 12000 16000 24000 48000"`
	FrameDuration int                  `mapstructure:"frame_duration" yaml:"frame_duration" validate:"oneof=10 20 40 60"`
	Opus          audio.EncoderOptions `mapstructure:"opus" yaml:"opus"`
}

// JournalConfig controls the per-session interaction journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// Config is the full service configuration.
type Config struct {
	RootDir        string        `mapstructure:"-" yaml:"-"`
	HTTPAddr       string        `mapstructure:"http_addr" yaml:"http_addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	TLSCertPath    string        `mapstructure:"tls_cert_path" yaml:"tls_cert_path"`
	TLSKeyPath     string        `mapstructure:"tls_key_path" yaml:"tls_key_path"`
	TLSRequired    bool          `mapstructure:"tls_required" yaml:"tls_required"`
	TLSDisable     bool          `mapstructure:"tls_disable" yaml:"tls_disable"`
	SystemConfig   SystemConfig  `mapstructure:"system_config" yaml:"system_config"`
	Log            logger.Config `mapstructure:"log" yaml:"log"`
	Voice          VoiceConfig   `mapstructure:"voice" yaml:"voice"`
	TTS            TTSConfig     `mapstructure:"tts" yaml:"tts"`
	Audio          AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Journal        JournalConfig `mapstructure:"journal" yaml:"journal"`
}

// Redacted returns a copy of c with secrets masked.
func (c Config) Redacted() Config {
	if c.TTS.APIKey != "" {
		c.TTS.APIKey = redacted
	}
	return c
}

// Load reads conf.yaml from the resolved root directory, if present.
func Load() (Config, error) {
	rootDir, err := resolveRootDir()
	if err != nil {
		return Config{}, err
	}
	v, err := newViper(rootDir)
	if err != nil {
		return Config{}, err
	}
	v.SetConfigName("conf")
	v.SetConfigType("yaml")
	v.AddConfigPath(rootDir)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}
	return finish(v, rootDir)
}

// LoadConfig reads configPath, or behaves like Load when it is empty.
func LoadConfig(configPath string) (Config, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		return Load()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, err
	}

	rootDir := strings.TrimSpace(os.Getenv(rootDirEnv))
	if rootDir == "" {
		rootDir = filepath.Dir(absPath)
		if filepath.Base(rootDir) == "config" {
			rootDir = filepath.Dir(rootDir)
		}
	}

	v, err := newViper(rootDir)
	if err != nil {
		return Config{}, err
	}
	v.SetConfigFile(absPath)
	if err := v.MergeInConfig(); err != nil {
		return Config{}, err
	}
	return finish(v, rootDir)
}

func newViper(rootDir string) (*viper.Viper, error) {
	if err := godotenv.Load(filepath.Join(rootDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return nil, fmt.Errorf("load embedded config: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

func finish(v *viper.Viper, rootDir string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.RootDir = rootDir
	applyProviderEnv(&cfg)
	deriveHTTPAddr(&cfg)
	derivePaths(&cfg)
	if err := loadTour(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its field constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.TLSRequired && cfg.TLSDisable {
		return errors.New("invalid config: tls_required and tls_disable are both set")
	}
	return nil
}

// applyProviderEnv fills the ElevenLabs credentials from the provider's own
// variable names when the prefixed keys are unset.
func applyProviderEnv(cfg *Config) {
	if cfg.TTS.APIKey == "" {
		cfg.TTS.APIKey = strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY"))
	}
	if cfg.TTS.VoiceID == "" {
		cfg.TTS.VoiceID = strings.TrimSpace(os.Getenv("ELEVENLABS_VOICE_ID"))
	}
}

func deriveHTTPAddr(cfg *Config) {
	if cfg.HTTPAddr != "" {
		return
	}
	host := cfg.SystemConfig.Host
	port := cfg.SystemConfig.Port
	if port == 0 {
		port = 8101
	}
	if host == "" {
		cfg.HTTPAddr = fmt.Sprintf(":%d", port)
		return
	}
	cfg.HTTPAddr = net.JoinHostPort(host, strconv.Itoa(port))
}

func derivePaths(cfg *Config) {
	cfg.TLSCertPath = resolvePath(cfg.RootDir, cfg.TLSCertPath, filepath.Join("certs", "server.crt"))
	cfg.TLSKeyPath = resolvePath(cfg.RootDir, cfg.TLSKeyPath, filepath.Join("certs", "server.key"))
	cfg.Journal.Dir = resolvePath(cfg.RootDir, cfg.Journal.Dir, filepath.Join("data", "journal"))
	if cfg.Log.File.Path != "" {
		cfg.Log.File.Path = resolvePath(cfg.RootDir, cfg.Log.File.Path, "")
	}
	if cfg.Voice.TourFile != "" {
		cfg.Voice.TourFile = resolvePath(cfg.RootDir, cfg.Voice.TourFile, "")
	}
}

func loadTour(cfg *Config) error {
	if len(cfg.Voice.TourSteps) > 0 || cfg.Voice.TourFile == "" {
		return nil
	}
	steps, err := LoadTourScript(cfg.Voice.TourFile)
	if err != nil {
		return err
	}
	cfg.Voice.TourSteps = steps
	return nil
}

func resolveRootDir() (string, error) {
	if root := strings.TrimSpace(os.Getenv(rootDirEnv)); root != "" {
		return filepath.Abs(root)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for i := 0; i < 6; i++ {
		if fileExists(filepath.Join(dir, "conf.yaml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return wd, nil
}

func resolvePath(rootDir string, configured string, fallback string) string {
	path := strings.TrimSpace(configured)
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
