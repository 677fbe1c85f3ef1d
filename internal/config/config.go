// Package config loads gateway configuration from the process environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ORTConfig controls ONNX Runtime execution provider selection for
// executors that support it (the CPU/CUDA/TensorRT/DirectML family).
type ORTConfig struct {
	ProviderPriority []string `mapstructure:"provider_priority"`
	ProviderExclude  []string `mapstructure:"provider_exclude"`
	DeviceID         int      `mapstructure:"device_id"`
}

// Config is the full set of knobs the gateway reads at startup. Every field
// has an environment variable (SPEACHES_-prefixed, except the HF_HUB_CACHE
// and HF_HUB_OFFLINE passthroughs); nothing is read from a file.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	APIKey     string `mapstructure:"api_key"`
	LogLevel   string `mapstructure:"log_level"`
	LogPretty  bool   `mapstructure:"log_pretty"`

	ModelIdleTimeout time.Duration `mapstructure:"model_idle_timeout"`
	MaxModels        int           `mapstructure:"max_models"`

	HFHubCache   string `mapstructure:"hf_hub_cache"`
	HFHubOffline bool   `mapstructure:"hf_hub_offline"`

	ModelAliasFile string `mapstructure:"model_alias_file"`

	TranscriptCacheSize int           `mapstructure:"transcript_cache_size"`
	TranscriptCacheTTL  time.Duration `mapstructure:"transcript_cache_ttl"`

	ORT ORTConfig `mapstructure:"ort"`
}

// Load reads SPEACHES_* (and a handful of HF_* passthroughs for compatibility
// with the model cache layout) environment variables into a Config, applying
// the same defaults the upstream service ships with.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	v.SetDefault("model_idle_timeout", 300*time.Second)
	v.SetDefault("max_models", 0)

	v.SetDefault("hf_hub_cache", "")
	v.SetDefault("hf_hub_offline", false)

	v.SetDefault("model_alias_file", "")

	v.SetDefault("transcript_cache_size", 4096)
	v.SetDefault("transcript_cache_ttl", time.Hour)

	v.SetDefault("ort.provider_priority", []string{"cuda", "cpu"})
	v.SetDefault("ort.provider_exclude", []string{})
	v.SetDefault("ort.device_id", 0)

	bind := func(key, env string) {
		_ = v.BindEnv(key, env)
	}
	bind("listen_addr", "SPEACHES_LISTEN_ADDR")
	bind("api_key", "SPEACHES_API_KEY")
	bind("log_level", "SPEACHES_LOG_LEVEL")
	bind("log_pretty", "SPEACHES_LOG_PRETTY")
	bind("model_idle_timeout", "SPEACHES_MODEL_IDLE_TIMEOUT")
	bind("max_models", "SPEACHES_MAX_MODELS")
	bind("hf_hub_cache", "HF_HUB_CACHE")
	bind("hf_hub_offline", "HF_HUB_OFFLINE")
	bind("model_alias_file", "SPEACHES_MODEL_ALIAS_FILE")
	bind("transcript_cache_size", "SPEACHES_TRANSCRIPT_CACHE_SIZE")
	bind("transcript_cache_ttl", "SPEACHES_TRANSCRIPT_CACHE_TTL")
	bind("ort.provider_priority", "SPEACHES_ORT_PROVIDER_PRIORITY")
	bind("ort.provider_exclude", "SPEACHES_ORT_PROVIDER_EXCLUDE")
	bind("ort.device_id", "SPEACHES_ORT_DEVICE_ID")

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(secondsDurationHook())); err != nil {
		return nil, err
	}

	return &cfg, nil
}
