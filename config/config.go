package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	// Storefront identifies this tracking node to the ops plane.
	Storefront string `yaml:"storefront"`

	Kitchen   KitchenConfig   `yaml:"kitchen"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
}

// KitchenConfig defines the kitchen status API connection.
type KitchenConfig struct {
	BaseURL      string        `yaml:"base_url"      json:"base_url"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"       json:"timeout"`
}

// DatabaseConfig selects the persistence driver.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig defines the live-view mirror. An empty address disables it.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// WebConfig defines the web server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// MessagingConfig defines the ops messaging plane.
type MessagingConfig struct {
	Enabled             bool          `yaml:"enabled"               json:"enabled"`
	Backend             string        `yaml:"backend"               json:"backend"` // "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"                  json:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"                 json:"kafka"`
	StatusTopic         string        `yaml:"status_topic"          json:"status_topic"`
	ControlTopic        string        `yaml:"control_topic"         json:"control_topic"`
	HeartbeatInterval   time.Duration `yaml:"heartbeat_interval"    json:"heartbeat_interval"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval" json:"outbox_drain_interval"`
	NodeID              string        `yaml:"node_id"               json:"node_id"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"    json:"broker"`
	Port     int    `yaml:"port"      json:"port"`
	ClientID string `yaml:"client_id" json:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"  json:"brokers"`
	GroupID string   `yaml:"group_id" json:"group_id"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Storefront: "storefront-1",
		Kitchen: KitchenConfig{
			BaseURL:      "http://localhost:8089",
			PollInterval: 4 * time.Second,
			Timeout:      10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "blazingpizzas.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "blazingpizzas",
				User:     "blazingpizzas",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8084,
		},
		Messaging: MessagingConfig{
			Enabled:             false,
			Backend:             "mqtt",
			StatusTopic:         "pizzas/status",
			ControlTopic:        "pizzas/control",
			HeartbeatInterval:   30 * time.Second,
			OutboxDrainInterval: 5 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "blazingpizzas",
			},
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NodeID returns the configured node ID, or falls back to the storefront name.
func (c *Config) NodeID() string {
	if c.Messaging.NodeID != "" {
		return c.Messaging.NodeID
	}
	return c.Storefront
}

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
