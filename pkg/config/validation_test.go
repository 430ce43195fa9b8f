package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO"},
		Storage: StorageConfig{Type: "memory"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected oneof validation error, got: %v", err)
	}
}

func TestValidate_InvalidStorageType(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Type = "ftp"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid storage type")
	}
}

func TestValidate_MissingBackendSection(t *testing.T) {
	tests := []struct {
		name        string
		storageType string
	}{
		{"local", "local"},
		{"s3", "s3"},
		{"badger", "badger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Storage.Type = tt.storageType

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("Expected error when %s section is missing", tt.storageType)
			}
			if !strings.Contains(err.Error(), "section is missing") {
				t.Errorf("Expected 'section is missing' error, got: %v", err)
			}
		})
	}
}

func TestValidate_MemoryNeedsNoSection(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Memory = nil

	if err := Validate(cfg); err != nil {
		t.Fatalf("Memory backend should not require an options section: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected default level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected default storage type 'memory', got %q", cfg.Storage.Type)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug"},
		Storage: StorageConfig{Type: "badger"},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Storage.Type != "badger" {
		t.Errorf("Expected storage type 'badger', got %q", cfg.Storage.Type)
	}
}
