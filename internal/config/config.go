package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/serebryakov7/obd-logger/internal/elm327"
	"github.com/serebryakov7/obd-logger/internal/recorder"
)

// Режимы проверки соединения
const (
	ConnectionCheckStrict  = "strict"
	ConnectionCheckLenient = "lenient"
)

type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Sampling SamplingConfig `yaml:"sampling"`
	Output   OutputConfig   `yaml:"output"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Journal  JournalConfig  `yaml:"journal"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type SerialConfig struct {
	Port         string        `yaml:"port"`
	Baud         int           `yaml:"baud"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	Protocol     string        `yaml:"protocol"`
}

type SamplingConfig struct {
	Profile  string        `yaml:"profile"`
	Interval time.Duration `yaml:"interval"`
	// ConnectionCheck: strict, lenient или пусто (по профилю)
	ConnectionCheck string `yaml:"connection_check"`
}

type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Fsync        bool   `yaml:"fsync"`
	PrimaryTag   string `yaml:"primary_tag"`
	AlternateTag string `yaml:"alternate_tag"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultJournalPath - журнал сессий по умолчанию. Пустой journal.path выключает журнал,
// поэтому значение подставляется до разбора файла, а не в applyDefaults.
const DefaultJournalPath = "obd_sessions.db"

// Default возвращает конфигурацию по умолчанию без файла
func Default() *Config {
	cfg := Config{Journal: JournalConfig{Path: DefaultJournalPath}}
	cfg.applyDefaults()
	return &cfg
}

// Load читает YAML, дополняет значениями по умолчанию и проверяет
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{Journal: JournalConfig{Path: DefaultJournalPath}}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Serial.Port == "" {
		c.Serial.Port = "/dev/ttyUSB0"
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = elm327.DefaultBaud
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = elm327.DefaultReadTimeout
	}
	if c.Serial.QueryTimeout == 0 {
		c.Serial.QueryTimeout = elm327.DefaultQueryTimeout
	}
	if c.Serial.Protocol == "" {
		c.Serial.Protocol = elm327.DefaultProtocol
	}
	if c.Sampling.Profile == "" {
		c.Sampling.Profile = recorder.DefaultProfile
	}
	if c.Sampling.Interval == 0 {
		c.Sampling.Interval = recorder.DefaultInterval
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if c.Output.PrimaryTag == "" {
		c.Output.PrimaryTag = recorder.DefaultPrimaryTag
	}
	if c.Output.AlternateTag == "" {
		c.Output.AlternateTag = recorder.DefaultAlternateTag
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "vehicle/obd/rows"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
}

// Validate проверяет значения после применения флагов
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port обязателен")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud должен быть положительным: %d", c.Serial.Baud)
	}
	if c.Sampling.Interval <= 0 {
		return fmt.Errorf("sampling.interval должен быть положительным: %v", c.Sampling.Interval)
	}
	if _, err := recorder.LookupProfile(c.Sampling.Profile); err != nil {
		return fmt.Errorf("sampling.profile: %w", err)
	}
	switch c.Sampling.ConnectionCheck {
	case "", ConnectionCheckStrict, ConnectionCheckLenient:
	default:
		return fmt.Errorf("sampling.connection_check: ожидается %s или %s, получено %q",
			ConnectionCheckStrict, ConnectionCheckLenient, c.Sampling.ConnectionCheck)
	}
	if c.Output.PrimaryTag == c.Output.AlternateTag {
		return fmt.Errorf("output.primary_tag и output.alternate_tag совпадают: %s", c.Output.PrimaryTag)
	}
	return nil
}

// Strict определяет режим проверки соединения: явная настройка или значение профиля
func (c *Config) Strict(p recorder.Profile) bool {
	switch c.Sampling.ConnectionCheck {
	case ConnectionCheckStrict:
		return true
	case ConnectionCheckLenient:
		return false
	default:
		return p.Strict
	}
}

// ELM327 возвращает настройки адаптера
func (c *Config) ELM327() elm327.Config {
	return elm327.Config{
		Port:         c.Serial.Port,
		Baud:         c.Serial.Baud,
		ReadTimeout:  c.Serial.ReadTimeout,
		QueryTimeout: c.Serial.QueryTimeout,
		Protocol:     c.Serial.Protocol,
	}
}
