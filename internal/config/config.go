package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults match the field layout of an AWS VPC flow log (version 2) record.
const (
	DefaultDstPortIndex  = 6
	DefaultProtocolIndex = 7
	DefaultMinFields     = 14
)

// DotEnvFile is loaded from the working directory when present.
const DotEnvFile = ".env"

// Environment variables that override secrets from the YAML file.
const (
	EnvClickHousePassword = "FLOW_TAGGER_CLICKHOUSE_PASSWORD"
	EnvNATSURL            = "FLOW_TAGGER_NATS_URL"
)

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// InputConfig names the lookup table and flow log files.
type InputConfig struct {
	LookupPath  string `yaml:"lookup_path"`
	FlowLogPath string `yaml:"flow_log_path"`
}

// ClassifierConfig describes the flow-log layout and protocol table.
type ClassifierConfig struct {
	DstPortIndex  int            `yaml:"dst_port_index"`
	ProtocolIndex int            `yaml:"protocol_index"`
	MinFields     int            `yaml:"min_fields"`
	Protocols     map[int]string `yaml:"protocols"`
}

// TextConfig holds the configuration for the text report writer.
type TextConfig struct {
	Path string `yaml:"path"`
}

// GobConfig holds the configuration for the gob snapshot writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds the connection details for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds the configuration for the NATS report publisher.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig holds the configuration for the Prometheus textfile writer.
type MetricsConfig struct {
	Path string `yaml:"path"`
}

// ChartConfig holds the configuration for the tag chart writer.
type ChartConfig struct {
	Path   string  `yaml:"path"`
	Title  string  `yaml:"title"`
	Width  float64 `yaml:"width_inch"`
	Height float64 `yaml:"height_inch"`
}

// WriterDef defines a single output writer.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Text       TextConfig       `yaml:"text"`
	Gob        GobConfig        `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Chart      ChartConfig      `yaml:"chart"`
}

// APIConfig holds the configuration for the query API server.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Input      InputConfig      `yaml:"input"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Writers    []WriterDef      `yaml:"writers"`
	API        APIConfig        `yaml:"api"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Secrets found in a local .env file or the environment override the YAML values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, nil
}

// Parse decodes YAML configuration, fills in defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Classifier.MinFields == 0 {
		c.Classifier.MinFields = DefaultMinFields
	}
	if c.Classifier.DstPortIndex == 0 && c.Classifier.ProtocolIndex == 0 {
		c.Classifier.DstPortIndex = DefaultDstPortIndex
		c.Classifier.ProtocolIndex = DefaultProtocolIndex
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file '%s': %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	password := os.Getenv(EnvClickHousePassword)
	natsURL := os.Getenv(EnvNATSURL)
	for i := range c.Writers {
		if password != "" {
			c.Writers[i].ClickHouse.Password = password
		}
		if natsURL != "" {
			c.Writers[i].NATS.URL = natsURL
		}
	}
}

// Validate checks that the classifier layout is usable.
func (c *Config) Validate() error {
	cl := c.Classifier
	if cl.MinFields <= 0 {
		return fmt.Errorf("classifier.min_fields must be positive, got %d", cl.MinFields)
	}
	if cl.DstPortIndex < 0 || cl.DstPortIndex >= cl.MinFields {
		return fmt.Errorf("classifier.dst_port_index %d is outside [0, %d)", cl.DstPortIndex, cl.MinFields)
	}
	if cl.ProtocolIndex < 0 || cl.ProtocolIndex >= cl.MinFields {
		return fmt.Errorf("classifier.protocol_index %d is outside [0, %d)", cl.ProtocolIndex, cl.MinFields)
	}
	if cl.DstPortIndex == cl.ProtocolIndex {
		return fmt.Errorf("classifier.dst_port_index and classifier.protocol_index must differ")
	}
	for _, w := range c.Writers {
		if strings.TrimSpace(w.Type) == "" {
			return fmt.Errorf("writer definition without a type")
		}
	}
	return nil
}

// FindWriter returns the first enabled writer definition of the given type.
func (c *Config) FindWriter(writerType string) (*WriterDef, bool) {
	for i := range c.Writers {
		if c.Writers[i].Enabled && c.Writers[i].Type == writerType {
			return &c.Writers[i], true
		}
	}
	return nil, false
}
