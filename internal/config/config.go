// Package config provides YAML-based configuration loading for Amanex.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Amanex configuration, loaded from config.yaml.
// Token and AdminID may also come from the BOT_TOKEN / ADMIN_ID environment
// variables, which take precedence over the file.
type Config struct {
	Token      string          `yaml:"token"`
	AdminID    int64           `yaml:"admin_id"`
	Database   DatabaseConfig  `yaml:"database"`
	Listings   ListingsConfig  `yaml:"listings"`
	Dashboard  DashboardConfig `yaml:"dashboard"`
	Digest     DigestConfig    `yaml:"digest"`
	Payments   []PaymentMethod `yaml:"payments"`
	Categories []Category      `yaml:"categories"`
}

// DatabaseConfig holds connection settings. Driver "sqlite" (default) uses
// Path; driver "mysql" uses Host/Port/User/Name.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
}

// ListingsConfig controls listing creation and browsing.
type ListingsConfig struct {
	DefaultStatus string `yaml:"default_status"` // "active" or "pending"
	PageSize      int    `yaml:"page_size"`
}

// DashboardConfig holds settings for the keepalive HTTP server.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DigestConfig schedules the operator digest of pending listings and paid
// orders. Cron is a standard 5-field expression.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// PaymentMethod describes one accepted payment channel. Keywords drive the
// tolerant button-label matching: any label containing one of them resolves
// to Key. Destination is the operator's receiving account shown to buyers;
// it may be overridden per-method via the <KEY>_DESTINATION env var.
type PaymentMethod struct {
	Key          string   `yaml:"key"`
	Label        string   `yaml:"label"`
	Note         string   `yaml:"note"`
	Destination  string   `yaml:"destination"`
	DetailPrompt string   `yaml:"detail_prompt"` // what sellers are asked for
	Keywords     []string `yaml:"keywords"`
}

// Category is a browsable listing category with its subcategory choices.
// The "other" key is special: the sell flow skips subcategory selection.
type Category struct {
	Key           string   `yaml:"key"`
	Label         string   `yaml:"label"`
	Subcategories []string `yaml:"subcategories"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the built-in defaults (env overlays still apply).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PaymentByKey returns the payment method with the given canonical key.
func (c *Config) PaymentByKey(key string) (PaymentMethod, bool) {
	for _, m := range c.Payments {
		if m.Key == key {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// CategoryByKey returns the category with the given key.
func (c *Config) CategoryByKey(key string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return Category{}, false
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "amanex.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "amanex"
	}
	if c.Listings.DefaultStatus == "" {
		c.Listings.DefaultStatus = "active"
	}
	if c.Listings.PageSize == 0 {
		c.Listings.PageSize = 30
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Digest.Cron == "" {
		c.Digest.Cron = "0 9 * * *"
	}
	if len(c.Payments) == 0 {
		c.Payments = DefaultPayments()
	}
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories()
	}
}

// applyEnv overlays environment variables onto the loaded file values.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("BOT_TOKEN")); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_ID")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.AdminID = id
		}
	}
	for i := range c.Payments {
		envKey := strings.ToUpper(c.Payments[i].Key) + "_DESTINATION"
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			c.Payments[i].Destination = v
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Token == "" {
		errs = append(errs, "token is required (file or BOT_TOKEN)")
	}
	if c.AdminID == 0 {
		errs = append(errs, "admin_id is required (file or ADMIN_ID)")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "mysql" {
		errs = append(errs, fmt.Sprintf("database.driver %q is not sqlite or mysql", c.Database.Driver))
	}
	if s := c.Listings.DefaultStatus; s != "active" && s != "pending" {
		errs = append(errs, fmt.Sprintf("listings.default_status %q is not active or pending", s))
	}
	for i, m := range c.Payments {
		if m.Key == "" {
			errs = append(errs, fmt.Sprintf("payments[%d].key is required", i))
		}
		if m.Label == "" {
			errs = append(errs, fmt.Sprintf("payments[%d].label is required", i))
		}
	}
	for i, cat := range c.Categories {
		if cat.Key == "" {
			errs = append(errs, fmt.Sprintf("categories[%d].key is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DefaultPayments returns the built-in payment method catalog.
func DefaultPayments() []PaymentMethod {
	return []PaymentMethod{
		{
			Key:          "syriatel",
			Label:        "SyriaTel Cash",
			Note:         "inside Syria only",
			DetailPrompt: "the phone number",
			Keywords:     []string{"syriatel", "سيرياتيل"},
		},
		{
			Key:          "mtn",
			Label:        "MTN Cash",
			Note:         "inside Syria only",
			DetailPrompt: "the phone number",
			Keywords:     []string{"mtn"},
		},
		{
			Key:          "madfouati",
			Label:        "Madfouati",
			Note:         "inside Syria only",
			DetailPrompt: "the phone number",
			Keywords:     []string{"madfouati", "مدفوعاتي"},
		},
		{
			Key:          "trustwallet",
			Label:        "Trust Wallet — USDT TRC20",
			Note:         "USDT only, TRC20 network",
			DetailPrompt: "the wallet address (USDT-TRC20)",
			Keywords:     []string{"trust"},
		},
		{
			Key:          "tonkeeper",
			Label:        "Tonkeeper — USDT TRC20",
			Note:         "USDT only, TRC20 network",
			DetailPrompt: "the wallet address (USDT-TRC20)",
			Keywords:     []string{"tonkeeper", "ton"},
		},
	}
}

// DefaultCategories returns the built-in category set.
func DefaultCategories() []Category {
	return []Category{
		{
			Key:   "social",
			Label: "📱 Social Media",
			Subcategories: []string{
				"Facebook", "Instagram", "TikTok", "Telegram", "YouTube", "Other",
			},
		},
		{
			Key:   "games",
			Label: "🎮 Games",
			Subcategories: []string{
				"PUBG Mobile", "Free Fire", "Clash of Clans", "Clash Royale",
				"Call of Duty: Mobile", "Fortnite", "Genshin Impact", "Roblox",
				"Valorant", "Mobile Legends", "Lords Mobile", "Township", "Other",
			},
		},
		{
			Key:   "other",
			Label: "✏️ Something Else",
		},
	}
}
