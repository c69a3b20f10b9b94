package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingRule overrides one entry of an adapter's built-in pricing table.
// Rules are matched in file order against the provider's product/model name.
type PricingRule struct {
	Provider      string  `mapstructure:"provider"`
	Match         string  `mapstructure:"match"`
	InputPerMTok  float64 `mapstructure:"input_per_mtok"`
	OutputPerMTok float64 `mapstructure:"output_per_mtok"`
}

type PricingConfig struct {
	Rules []PricingRule `mapstructure:"rules"`
}

// PricingHolder exposes the current pricing overrides. Provider rates change
// without a release, so the file is watched and swapped atomically.
type PricingHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingHolder() (*PricingHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/devcosts/config")
	v.AddConfigPath("/etc/devcosts")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEVCOSTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// no pricing file: adapters fall back to their built-in tables
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}

	holder := &PricingHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PricingHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

// Set replaces the current pricing config. Intended for tests.
func (h *PricingHolder) Set(cfg PricingConfig) {
	h.current.Store(cfg)
}
