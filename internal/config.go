package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ListenAddr       string
	Endpoints        []ResolverEndpoint
	EndpointTimeout  time.Duration
	RequestBodyLimit int64
	StrictHosts      bool
	AllowedDomains   []string
	ProxyURL         string

	// Logging configuration
	LogLevel    string
	LogFormat   string
	EnableDebug bool
	QuietMode   bool
	LogFile     string
}

// Config keys, also usable as TERAPLAY_<KEY> environment variables
const (
	KeyListen           = "listen"
	KeyEndpoints        = "endpoints"
	KeyEndpointTimeout  = "endpoint_timeout"
	KeyRequestBodyLimit = "body_limit"
	KeyStrictHosts      = "strict_hosts"
	KeyProxy            = "proxy"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyLogFile          = "log_file"
	KeyDebug            = "debug"
	KeyQuiet            = "quiet"

	EnvPrefix = "TERAPLAY"
)

// DefaultEndpoints are the public resolver services, in trial order
func DefaultEndpoints() []ResolverEndpoint {
	return []ResolverEndpoint{
		{Name: "TeraBox API 1", URLTemplate: "https://terabox-udayscriptsx-api.smx.workers.dev/?url="},
		{Name: "TeraBox API 2", URLTemplate: "https://terabox-phi-api.smx.workers.dev/?url="},
		{Name: "TeraBox API 3", URLTemplate: "https://terabox-teraboxx-api.smx.workers.dev/?url="},
		{Name: "TeraBox API 5", URLTemplate: "https://terabox-vercel-api.smx.workers.dev/?url="},
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:       ":3000",
		Endpoints:        DefaultEndpoints(),
		EndpointTimeout:  15 * time.Second,
		RequestBodyLimit: 64 * 1024,
		StrictHosts:      false,
		AllowedDomains: []string{
			"terabox.com",
			"terabox.app",
			"teraboxapp.com",
			"1024terabox.com",
			"1024tera.com",
			"terasharelink.com",
			"terafileshare.com",
			"freeterabox.com",
			"4funbox.com",
			"mirrobox.com",
			"nephobox.com",
			"momerybox.com",
			"pan.baidu.com",
		},

		LogLevel:    "info",
		LogFormat:   LogFormatText,
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "", // Empty means stderr
	}
}

// SetDefaults registers the defaults on a viper instance so that config
// files, environment variables and bound flags layer on top of them.
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault(KeyListen, def.ListenAddr)
	v.SetDefault(KeyEndpointTimeout, def.EndpointTimeout)
	v.SetDefault(KeyRequestBodyLimit, def.RequestBodyLimit)
	v.SetDefault(KeyStrictHosts, def.StrictHosts)
	v.SetDefault(KeyProxy, def.ProxyURL)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFormat, def.LogFormat)
	v.SetDefault(KeyLogFile, def.LogFile)
	v.SetDefault(KeyDebug, def.EnableDebug)
	v.SetDefault(KeyQuiet, def.QuietMode)
}

// LoadConfig reads configuration from defaults, an optional config file and
// TERAPLAY_* environment variables. An empty configFile searches for
// teraplay.{yaml,toml,json} in the working directory; a missing file is fine.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("teraplay")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, NewValidationErrorWithValue("config", fmt.Sprintf("failed to read config file: %v", err), configFile).
				WithSuggestion("Check that the file exists and is valid YAML, TOML or JSON")
		}
	}

	config := DefaultConfig()
	config.ListenAddr = v.GetString(KeyListen)
	config.EndpointTimeout = v.GetDuration(KeyEndpointTimeout)
	config.RequestBodyLimit = v.GetInt64(KeyRequestBodyLimit)
	config.StrictHosts = v.GetBool(KeyStrictHosts)
	config.ProxyURL = v.GetString(KeyProxy)
	config.LogLevel = v.GetString(KeyLogLevel)
	config.LogFormat = strings.ToLower(v.GetString(KeyLogFormat))
	config.LogFile = v.GetString(KeyLogFile)
	config.EnableDebug = v.GetBool(KeyDebug)
	config.QuietMode = v.GetBool(KeyQuiet)

	if config.EnableDebug {
		config.LogLevel = "debug"
	}

	endpoints, err := loadEndpoints(v)
	if err != nil {
		return nil, err
	}
	if endpoints != nil {
		config.Endpoints = endpoints
	}

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEndpoints returns nil when no override is configured. The environment
// form is TERAPLAY_ENDPOINTS="Name=https://host/?url=,Other=https://..."
func loadEndpoints(v *viper.Viper) ([]ResolverEndpoint, error) {
	if !v.IsSet(KeyEndpoints) {
		return nil, nil
	}

	if raw, ok := v.Get(KeyEndpoints).(string); ok {
		return ParseEndpointList(raw)
	}

	var endpoints []ResolverEndpoint
	if err := v.UnmarshalKey(KeyEndpoints, &endpoints); err != nil {
		return nil, NewValidationError(KeyEndpoints, fmt.Sprintf("invalid endpoint list: %v", err)).
			WithSuggestion("Use a list of {name, url} entries")
	}
	return endpoints, nil
}

// ParseEndpointList parses "Name=template,Name=template". Only the first "="
// of each item separates the name, templates usually end in "?url=".
func ParseEndpointList(raw string) ([]ResolverEndpoint, error) {
	endpoints := []ResolverEndpoint{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, template, found := strings.Cut(item, "=")
		if !found {
			return nil, NewValidationErrorWithValue(KeyEndpoints, "endpoint entry must be Name=URL", item)
		}
		endpoints = append(endpoints, ResolverEndpoint{
			Name:        strings.TrimSpace(name),
			URLTemplate: strings.TrimSpace(template),
		})
	}
	return endpoints, nil
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	if c.EndpointTimeout <= 0 {
		return NewValidationErrorWithValue(KeyEndpointTimeout, "must be greater than zero", c.EndpointTimeout).
			WithSuggestion("Use a duration such as 15s")
	}

	if c.RequestBodyLimit <= 0 {
		return NewValidationErrorWithValue(KeyRequestBodyLimit, "must be greater than zero", c.RequestBodyLimit)
	}

	for i, endpoint := range c.Endpoints {
		if strings.TrimSpace(endpoint.Name) == "" {
			return NewValidationError(KeyEndpoints, "endpoint name cannot be empty").
				WithContext("index", i)
		}
		parsed, err := url.Parse(endpoint.URLTemplate)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return NewValidationErrorWithValue(KeyEndpoints, "endpoint URL must be an absolute http(s) URL", endpoint.URLTemplate).
				WithContext("endpoint", endpoint.Name)
		}
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return NewValidationErrorWithValue(KeyLogFormat, "unsupported log format", c.LogFormat).
			WithSuggestion("Use text or json")
	}

	if c.StrictHosts && len(c.AllowedDomains) == 0 {
		return fmt.Errorf("allowed domains list cannot be empty when strict_hosts is enabled")
	}

	return nil
}
