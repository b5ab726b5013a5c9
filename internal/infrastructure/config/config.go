// Package config loads the harness configuration from YAML, then lets
// RESHADOW_* environment variables override it. Secrets (MQTT password,
// InfluxDB token) belong in the environment rather than the file; TLS
// keys are referenced by path only.
//
//	cfg, err := config.Load("configs/config.yaml")
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "RESHADOW_CONFIG"

// deviceIDPattern matches the MAC-derived thing name, e.g. AA:BB:CC:DD:EE:FF.
var deviceIDPattern = regexp.MustCompile(`^[0-9A-F]{2}(:[0-9A-F]{2}){5}$`)

// Config is the root of configs/config.yaml.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Harness  HarnessConfig  `yaml:"harness"`
}

// DeviceConfig identifies the radiator under test.
type DeviceConfig struct {
	// ID is the thing name scoping every shadow topic.
	ID string `yaml:"id"`

	// Firmware is the path of the image expected on the device, if any.
	Firmware string `yaml:"firmware"`
}

// MQTTConfig is the broker link. Durations are in seconds.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	TLS       MQTTTLSConfig       `yaml:"tls"`
	QoS       int                 `yaml:"qos"`
	KeepAlive int                 `yaml:"keep_alive"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTTLSConfig names PEM files for mutual TLS.
type MQTTTLSConfig struct {
	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// MQTTReconnectConfig bounds paho's reconnect backoff, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains the SQLite frame journal settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig enables telemetry export. FlushInterval is in seconds.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig selects level (debug|info|warn|error), format (json|text)
// and output (stdout|stderr).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HarnessConfig tunes how the harness waits on the device.
type HarnessConfig struct {
	// ReceiveTimeout is the default receive budget in seconds.
	ReceiveTimeout int `yaml:"receive_timeout"`
}

// Load builds a Config from defaults, then the YAML file at path, then
// the environment, and validates the result.
//
// Returns:
//   - *Config: Validated configuration
//   - error: Wrapped read, parse or validation failure
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "reshadow-harness",
			},
			QoS:       1,
			KeepAlive: 60,
			Reconnect: MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 60},
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "./data/reshadow.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{BatchSize: 100, FlushInterval: 10},
		Logging:  LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Harness:  HarnessConfig{ReceiveTimeout: 10},
	}
}

// envOverrides maps each RESHADOW_* variable onto its field. Empty values
// are skipped.
func envOverrides(cfg *Config) map[string]func(string) {
	return map[string]func(string){
		"RESHADOW_DEVICE_ID":       func(v string) { cfg.Device.ID = strings.ToUpper(v) },
		"RESHADOW_DEVICE_FIRMWARE": func(v string) { cfg.Device.Firmware = v },
		"RESHADOW_MQTT_HOST":       func(v string) { cfg.MQTT.Broker.Host = v },
		"RESHADOW_MQTT_PORT": func(v string) {
			if port, err := strconv.Atoi(v); err == nil {
				cfg.MQTT.Broker.Port = port
			}
		},
		"RESHADOW_MQTT_USERNAME":  func(v string) { cfg.MQTT.Auth.Username = v },
		"RESHADOW_MQTT_PASSWORD":  func(v string) { cfg.MQTT.Auth.Password = v },
		"RESHADOW_DATABASE_PATH":  func(v string) { cfg.Database.Path = v },
		"RESHADOW_INFLUXDB_TOKEN": func(v string) { cfg.InfluxDB.Token = v },
	}
}

func applyEnvOverrides(cfg *Config) {
	for name, set := range envOverrides(cfg) {
		if v := os.Getenv(name); v != "" {
			set(v)
		}
	}
}

// Validate reports every problem at once, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	check(c.Device.ID == "", "device.id is required (set RESHADOW_DEVICE_ID environment variable)")
	check(c.Device.ID != "" && !deviceIDPattern.MatchString(c.Device.ID), "device.id must be an upper-case MAC address (AA:BB:CC:DD:EE:FF)")

	check(c.MQTT.Broker.Host == "", "mqtt.broker.host is required")
	check(c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535, "mqtt.broker.port must be between 1 and 65535")
	check(c.MQTT.QoS < 0 || c.MQTT.QoS > 2, "mqtt.qos must be 0, 1, or 2")
	check((c.MQTT.TLS.CertFile == "") != (c.MQTT.TLS.KeyFile == ""), "mqtt.tls.cert_file and mqtt.tls.key_file must be set together")

	check(c.Database.Enabled && c.Database.Path == "", "database.path is required when the journal is enabled")

	if c.InfluxDB.Enabled {
		check(c.InfluxDB.URL == "", "influxdb.url is required when influxdb is enabled")
		check(c.InfluxDB.Bucket == "", "influxdb.bucket is required when influxdb is enabled")
	}

	check(c.Harness.ReceiveTimeout <= 0, "harness.receive_timeout must be positive")

	return errors.Join(errs...)
}

// GetReceiveTimeout returns harness.receive_timeout as a Duration.
func (c *Config) GetReceiveTimeout() time.Duration {
	return time.Duration(c.Harness.ReceiveTimeout) * time.Second
}
