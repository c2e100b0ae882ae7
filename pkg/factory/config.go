package factory

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/free5gc/profilecheck/internal/model"
)

// Config is the top-level configuration loaded from config/profilecheck.yaml.
type Config struct {
	Info       InfoSection       `yaml:"info"`
	Profile    ProfileSection    `yaml:"profile"`
	Validation ValidationSection `yaml:"validation"`
	Store      StoreSection      `yaml:"store"`
	Logging    LoggingSection    `yaml:"logging"`
}

// ---------- info ----------

type InfoSection struct {
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// ---------- profile ----------

type ProfileSection struct {
	DefaultTemplateFile string   `yaml:"defaultTemplateFile,omitempty"` // JSON; built-in template when empty
	RateKeys            []string `yaml:"rateKeys,omitempty"`            // member names coerced to numbers
}

// ---------- validation ----------

type ValidationSection struct {
	EnableSchemaCheck *bool  `yaml:"enableSchemaCheck,omitempty"` // default true
	SchemaFile        string `yaml:"schemaFile,omitempty"`        // JSON Schema; built-in when empty
	CheckImsiFormat   *bool  `yaml:"checkImsiFormat,omitempty"`   // default true
	CheckRates        *bool  `yaml:"checkRates,omitempty"`        // default true
}

func (section ValidationSection) SchemaCheckEnabled() bool { return boolOrTrue(section.EnableSchemaCheck) }
func (section ValidationSection) ImsiFormatEnabled() bool  { return boolOrTrue(section.CheckImsiFormat) }
func (section ValidationSection) RateCheckEnabled() bool   { return boolOrTrue(section.CheckRates) }

// ---------- store ----------

type StoreSection struct {
	Driver            string `yaml:"driver"`                     // "memory"
	SeedFile          string `yaml:"seedFile,omitempty"`         // JSON array of existing profiles
	MaxItems          int    `yaml:"maxItems,omitempty"`         // 0 means unlimited
	LongsAsStrings    bool   `yaml:"longsAsStrings,omitempty"`   // echo rates as strings on create/update
	EnforceUniqueImsi bool   `yaml:"enforceUniqueImsi,omitempty"` // reject duplicate IMSI on write
}

// ---------- logging ----------

type LoggingSection struct {
	Level        string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	ReportCaller bool   `yaml:"reportCaller,omitempty"`
}

// ---------- defaults ----------

func boolOrTrue(flag *bool) bool {
	return flag == nil || *flag
}

func applyDefaults(cfg *Config) {
	// profile
	if len(cfg.Profile.RateKeys) == 0 {
		cfg.Profile.RateKeys = append([]string(nil), model.RateKeys...)
	}
	// store
	if strings.TrimSpace(cfg.Store.Driver) == "" {
		cfg.Store.Driver = "memory"
	}
	// logging
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
}

// ---------- validation helpers ----------

func isValidOptionalFile(path string) bool {
	if path == "" {
		return true
	}
	if strings.TrimSpace(path) != path || strings.ContainsRune(path, 0) {
		return false
	}
	if filepath.IsAbs(path) {
		valid, _ := govalidator.IsFilePath(path)
		return valid
	}
	return true
}

// ---------- Validate ----------

func validateConfig(cfg *Config) error {
	// profile
	if !isValidOptionalFile(cfg.Profile.DefaultTemplateFile) {
		return fmt.Errorf("profile.defaultTemplateFile is invalid: %q", cfg.Profile.DefaultTemplateFile)
	}
	seen := make(map[string]struct{}, len(cfg.Profile.RateKeys))
	for i, key := range cfg.Profile.RateKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("profile.rateKeys[%d] is empty", i)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("profile.rateKeys[%d] duplicated: %q", i, key)
		}
		seen[key] = struct{}{}
	}

	// validation
	if !isValidOptionalFile(cfg.Validation.SchemaFile) {
		return fmt.Errorf("validation.schemaFile is invalid: %q", cfg.Validation.SchemaFile)
	}
	if cfg.Validation.SchemaFile != "" && !cfg.Validation.SchemaCheckEnabled() {
		return fmt.Errorf("validation.schemaFile set while validation.enableSchemaCheck is false")
	}

	// store
	if !govalidator.IsIn(cfg.Store.Driver, "memory") {
		return fmt.Errorf("store.driver unsupported: %q", cfg.Store.Driver)
	}
	if !isValidOptionalFile(cfg.Store.SeedFile) {
		return fmt.Errorf("store.seedFile is invalid: %q", cfg.Store.SeedFile)
	}
	if cfg.Store.MaxItems < 0 {
		return fmt.Errorf("store.maxItems must be >= 0")
	}

	// logging
	if !govalidator.IsIn(strings.ToLower(cfg.Logging.Level), "trace", "debug", "info", "warn", "error") {
		return fmt.Errorf("logging.level unsupported: %q", cfg.Logging.Level)
	}
	return nil
}
