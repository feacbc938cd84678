package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	require.NoError(t, config.ValidateConfig())
	assert.Equal(t, ":3000", config.ListenAddr)
	assert.Equal(t, 15*time.Second, config.EndpointTimeout)
	require.Len(t, config.Endpoints, 4)
	assert.Equal(t, "TeraBox API 1", config.Endpoints[0].Name)
	assert.Equal(t, "TeraBox API 5", config.Endpoints[3].Name)
	assert.False(t, config.StrictHosts)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("TERAPLAY_LISTEN", "127.0.0.1:8080")
	t.Setenv("TERAPLAY_ENDPOINT_TIMEOUT", "3s")
	t.Setenv("TERAPLAY_LOG_FORMAT", "JSON")
	t.Setenv("TERAPLAY_ENDPOINTS", "Primary=https://a.example/?url=, Backup=https://b.example/resolve?link=")

	config, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", config.ListenAddr)
	assert.Equal(t, 3*time.Second, config.EndpointTimeout)
	assert.Equal(t, LogFormatJSON, config.LogFormat)
	assert.Equal(t, []ResolverEndpoint{
		{Name: "Primary", URLTemplate: "https://a.example/?url="},
		{Name: "Backup", URLTemplate: "https://b.example/resolve?link="},
	}, config.Endpoints)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teraplay.yaml")
	content := `
listen: ":9000"
strict_hosts: true
debug: true
endpoints:
  - name: Only
    url: https://only.example/?url=
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", config.ListenAddr)
	assert.True(t, config.StrictHosts)
	assert.True(t, config.EnableDebug)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, []ResolverEndpoint{{Name: "Only", URLTemplate: "https://only.example/?url="}}, config.Endpoints)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "config", validationErr.Field)
}

func TestParseEndpointList(t *testing.T) {
	endpoints, err := ParseEndpointList("A=https://a/?url=&x=1,,B=https://b/?q=")
	require.NoError(t, err)
	assert.Equal(t, []ResolverEndpoint{
		{Name: "A", URLTemplate: "https://a/?url=&x=1"},
		{Name: "B", URLTemplate: "https://b/?q="},
	}, endpoints)

	endpoints, err = ParseEndpointList("")
	require.NoError(t, err)
	assert.Empty(t, endpoints)

	_, err = ParseEndpointList("missing-separator")
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no_endpoints_is_allowed", func(c *Config) { c.Endpoints = nil }, false},
		{"zero_timeout", func(c *Config) { c.EndpointTimeout = 0 }, true},
		{"zero_body_limit", func(c *Config) { c.RequestBodyLimit = 0 }, true},
		{"empty_endpoint_name", func(c *Config) { c.Endpoints[0].Name = " " }, true},
		{"relative_endpoint_url", func(c *Config) { c.Endpoints[1].URLTemplate = "/api?url=" }, true},
		{"ftp_endpoint_url", func(c *Config) { c.Endpoints[1].URLTemplate = "ftp://x/?url=" }, true},
		{"bad_log_format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"strict_without_domains", func(c *Config) { c.StrictHosts = true; c.AllowedDomains = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.ValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
