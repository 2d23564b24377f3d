package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		Host     string `koanf:"host"`
		BasePort int    `koanf:"base_port"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
		WithOverrides(map[string]any{"log.level": "debug"}),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
	if len(l.overrides) != 1 {
		t.Errorf("overrides len = %d, want 1", len(l.overrides))
	}
}

func TestLoader_LoadFile(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "0.0.0.0"
  base_port: 9000
log:
  level: debug
`)

	l := NewLoader()
	if err := l.LoadFile(configPath); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if host := l.GetString("server.host"); host != "0.0.0.0" {
		t.Errorf("server.host = %q, want %q", host, "0.0.0.0")
	}
	if port := l.GetInt("server.base_port"); port != 9000 {
		t.Errorf("server.base_port = %d, want 9000", port)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should fail for missing file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v, want nil", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("WARMD_SERVER_BASE_PORT", "9100")
	t.Setenv("WARMD_LOG_LEVEL", "warn")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetInt("server.base_port"); port != 9100 {
		t.Errorf("server.base_port = %d, want 9100", port)
	}
	if level := l.GetString("log.level"); level != "warn" {
		t.Errorf("log.level = %q, want %q", level, "warn")
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want %q", port, "9090")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"WARMD_SERVER_HOST", "server.host"},
		{"WARMD_SERVER_MAX_LINE_LENGTH", "server.max_line_length"},
		{"WARMD_PROJECT_RECLAIM_STALE_LOCK", "project.reclaim_stale_lock"},
		{"WARMD_DEBUG", "debug"},
	}

	for _, tt := range tests {
		if got := EnvKey("WARMD_", tt.name); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()

	data := map[string]any{
		"server.host": "localhost",
		"debug":       true,
	}

	if err := l.LoadMap(data); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if host := l.GetString("server.host"); host != "localhost" {
		t.Errorf("server.host = %q, want %q", host, "localhost")
	}

	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "from-file"
  base_port: 7000
log:
  level: error
`)

	t.Setenv("WARMD_SERVER_HOST", "from-env")
	t.Setenv("WARMD_LOG_LEVEL", "warn")

	l := NewLoader(
		WithConfigFile(configPath),
		WithOverrides(map[string]any{"log.level": "debug"}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Environment overrides file
	if cfg.Server.Host != "from-env" {
		t.Errorf("Host = %q, want %q (env should override file)", cfg.Server.Host, "from-env")
	}
	// File value survives when nothing overrides it
	if cfg.Server.BasePort != 7000 {
		t.Errorf("BasePort = %d, want 7000", cfg.Server.BasePort)
	}
	// Overrides beat env
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want %q (overrides should win)", cfg.Log.Level, "debug")
	}
}

func TestLoader_Unmarshal_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  base_port: 9000
`)

	l := NewLoader(WithConfigFile(configPath))

	var cfg testConfig
	cfg.Server.Host = "127.0.0.1"
	cfg.Log.Level = "info"

	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.BasePort != 9000 {
		t.Errorf("BasePort = %d, want 9000", cfg.Server.BasePort)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, preset default should survive", cfg.Server.Host)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, preset default should survive", cfg.Log.Level)
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()

	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_All(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	all := l.All()
	if len(all) < 2 {
		t.Errorf("All() returned %d keys, want at least 2", len(all))
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	keys := l.Keys()
	if len(keys) < 2 {
		t.Errorf("Keys() returned %d keys, want at least 2", len(keys))
	}
}

func TestLoader_GetInt(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"port": 8080,
	})

	if port := l.GetInt("port"); port != 8080 {
		t.Errorf("GetInt(port) = %d, want %d", port, 8080)
	}
}
