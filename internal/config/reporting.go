package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReportingConfig holds the operator-tunable knobs of the reporting core.
// Values ship with safe defaults so the service is usable without a config
// file; a mounted reporting.yml overrides them and is hot-reloaded.
type ReportingConfig struct {
	// MaxDownlineDepth caps hierarchy traversal. The org graph is expected
	// to be a forest, but traversal must terminate on bad data.
	MaxDownlineDepth int `mapstructure:"maxDownlineDepth"`

	// AuditPageSize is the fixed page size of the audit log listing.
	AuditPageSize int `mapstructure:"auditPageSize"`

	// ExportRowLimit bounds CSV/PDF exports.
	ExportRowLimit int `mapstructure:"exportRowLimit"`

	// ProductionStatuses are the coverage statuses counted as production.
	ProductionStatuses []string `mapstructure:"productionStatuses"`
}

func DefaultReportingConfig() ReportingConfig {
	return ReportingConfig{
		MaxDownlineDepth: 50,
		AuditPageSize:    25,
		ExportRowLimit:   10_000,
		ProductionStatuses: []string{
			"active",
			"active_switch",
			"pending",
			"pending_effectuation",
		},
	}
}

type ReportingConfigHolder struct {
	current atomic.Value // holds ReportingConfig
}

func NewReportingConfigHolder() (*ReportingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("reporting")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/agencydesk/config")
	v.AddConfigPath("/etc/agencydesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AGENCYDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultReportingConfig()
	v.SetDefault("reporting.maxDownlineDepth", defaults.MaxDownlineDepth)
	v.SetDefault("reporting.auditPageSize", defaults.AuditPageSize)
	v.SetDefault("reporting.exportRowLimit", defaults.ExportRowLimit)
	v.SetDefault("reporting.productionStatuses", defaults.ProductionStatuses)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg ReportingConfig
	if err := v.UnmarshalKey("reporting", &cfg); err != nil {
		return nil, err
	}
	if err := validateReportingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ReportingConfigHolder{}
	holder.current.Store(cfg)

	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ReportingConfig
		if err := v.UnmarshalKey("reporting", &updated); err != nil {
			log.Printf("[reporting-config] reload failed: %v", err)
			return
		}
		if err := validateReportingConfig(updated); err != nil {
			log.Printf("[reporting-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[reporting-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// StaticReportingConfig wraps a fixed config in a holder. Used by tests
// and by tools that must not watch the filesystem.
func StaticReportingConfig(cfg ReportingConfig) *ReportingConfigHolder {
	holder := &ReportingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ReportingConfigHolder) Current() ReportingConfig {
	if v, ok := h.current.Load().(ReportingConfig); ok {
		return v
	}
	return DefaultReportingConfig()
}

func validateReportingConfig(cfg ReportingConfig) error {
	if cfg.MaxDownlineDepth <= 0 {
		return errors.New("reporting.maxDownlineDepth must be positive")
	}
	if cfg.AuditPageSize <= 0 {
		return errors.New("reporting.auditPageSize must be positive")
	}
	if cfg.ExportRowLimit <= 0 {
		return errors.New("reporting.exportRowLimit must be positive")
	}
	return nil
}
