package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "postgres") {
		t.Errorf("error should name the driver, got %q", err.Error())
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}
}

func TestValidate_SQLiteWithoutAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sqlite driver should not require addrs: %v", err)
	}
}

func TestVectorWeightZeroIsKept(t *testing.T) {
	var cfg Config
	cfg.HTTP.Port = 8080
	cfg.Database.Addrs = []string{"localhost:6379"}
	w := 0.0
	cfg.Search.VectorWeight = &w
	cfg.ApplyDefaults()

	if *cfg.Search.VectorWeight != 0 {
		t.Errorf("vector weight = %v, want explicit 0 preserved", *cfg.Search.VectorWeight)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("vector weight 0 should be valid: %v", err)
	}
}

func TestValidate_VectorWeightOutOfRange(t *testing.T) {
	cfg := validConfig()
	w := 1.5
	cfg.Search.VectorWeight = &w
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for vector weight above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Search.VectorWeight == nil || *cfg.Search.VectorWeight != 0.7 {
		t.Errorf("default vector weight = %v, want 0.7", cfg.Search.VectorWeight)
	}
	if cfg.Search.RRFK != 60 {
		t.Errorf("default rrf_k = %d, want 60", cfg.Search.RRFK)
	}
	if cfg.Search.Limit != 10 {
		t.Errorf("default limit = %d, want 10", cfg.Search.Limit)
	}
	if cfg.Search.RerankTopK != 20 {
		t.Errorf("default rerank_top_k = %d, want 20", cfg.Search.RerankTopK)
	}
	if cfg.Agent.MaxIterations != 5 {
		t.Errorf("default max_iterations = %d, want 5", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.Temperature != 0.2 {
		t.Errorf("default temperature = %v, want 0.2", cfg.Agent.Temperature)
	}
	if cfg.Database.KeyPrefix != "lore:" {
		t.Errorf("default key prefix = %q, want %q", cfg.Database.KeyPrefix, "lore:")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LORE_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("api_key: ${LORE_TEST_KEY}")))
	if got != "api_key: secret" {
		t.Errorf("expandEnvVars = %q", got)
	}

	got = string(expandEnvVars([]byte("port: ${LORE_MISSING:-8080}")))
	if got != "port: 8080" {
		t.Errorf("expandEnvVars with default = %q", got)
	}
}
