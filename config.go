package main

import (
	"crypto/tls"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"

	"HomelyBridge/internal/db"
	"HomelyBridge/internal/jobs"
	"HomelyBridge/pkg/homelyapi"
)

// Config represents a complete configuration
type Config struct {
	Host   string           `toml:"host,omitempty"`
	Port   uint16           `toml:"port,omitempty"`
	Log    LogConfig        `toml:"log,omitempty"`
	TLS    TLSConfig        `toml:"tls,omitempty"`
	Redis  db.Config        `toml:"redis"`
	Homely homelyapi.Config `toml:"homely,omitempty"`
	Jobs   jobs.Config      `toml:"jobs,omitempty"`
}

// LogConfig represents a configuration for the global logger
type LogConfig struct {
	Level string `toml:"level,omitempty"`
	Path  string `toml:"path,omitempty"`
}

// TLSConfig represents a configuration for TLS of the HTTP server
type TLSConfig struct {
	CertificatePath string `toml:"certificate_path,omitempty"`
	PrivateKeyPath  string `toml:"private_key_path,omitempty"`
}

// LoadConfig loads a configuration from the file at the given path
func LoadConfig(path string) (c Config) {
	f, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}
	if err = toml.Unmarshal(f, &c); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	c.setupLogger()
	c.setupDefaults()
	return
}

// setupLogger sets up the global logger configuration
func (c *Config) setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}
	log.SetLevel(level)
	log.Debugf("log level set to %s", strings.ToUpper(level.String()))
	if level >= log.DebugLevel {
		log.SetReportCaller(true)
	}

	if c.Log.Path != "" {
		f, err := os.OpenFile(c.Log.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}
}

// setupDefaults fills in the defaults of the HTTP server configuration
func (c *Config) setupDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// tlsConfig builds the TLS configuration of the HTTP server, or nil when
// TLS is not configured
func (c *Config) tlsConfig() *tls.Config {
	if c.TLS.CertificatePath == "" || c.TLS.PrivateKeyPath == "" {
		return nil
	}

	cert, err := tls.LoadX509KeyPair(c.TLS.CertificatePath, c.TLS.PrivateKeyPath)
	if err != nil {
		log.Fatalf("failed to load TLS certificate: %v", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}
}
