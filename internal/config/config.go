package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a books directory.
const FileName = "coopbooks.yaml"

// EnvDatabaseURL overrides Database.URL when set.
const EnvDatabaseURL = "COOPBOOKS_DATABASE_URL"

// Config represents the top-level coopbooks.yaml configuration.
type Config struct {
	Cooperative CooperativeConfig `yaml:"cooperative"`
	Fiscal      FiscalConfig      `yaml:"fiscal"`
	Accounts    AccountsConfig    `yaml:"accounts"`
	Dividend    DividendConfig    `yaml:"dividend"`
	Tolerance   ToleranceConfig   `yaml:"tolerance"`
	Database    DatabaseConfig    `yaml:"database,omitempty"`
	Git         GitConfig         `yaml:"git"`
}

// CooperativeConfig identifies the cooperative.
type CooperativeConfig struct {
	Name  string `yaml:"name"`
	Chart string `yaml:"chart"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// AccountsConfig maps posting roles to chart-of-accounts codes. Member savings
// and shares are tracked on the members themselves, not in accounts.
type AccountsConfig struct {
	Cash           string `yaml:"cash"`
	InterestIncome string `yaml:"interest_income"`
	FineIncome     string `yaml:"fine_income"`
	OtherIncome    string `yaml:"other_income"`
	OtherExpense   string `yaml:"other_expense"`
}

// Role returns the posting role a code is configured for, such as "cash".
func (a AccountsConfig) Role(code string) (string, bool) {
	for _, r := range []struct{ role, code string }{
		{"cash", a.Cash},
		{"interest_income", a.InterestIncome},
		{"fine_income", a.FineIncome},
		{"other_income", a.OtherIncome},
		{"other_expense", a.OtherExpense},
	} {
		if code != "" && r.code == code {
			return r.role, true
		}
	}
	return "", false
}

// DividendConfig holds default distribution rates, all in percent except
// InterestShare which is the fraction of a repayment treated as interest.
type DividendConfig struct {
	Rate          decimal.Decimal `yaml:"rate"`
	AvgReturnRate decimal.Decimal `yaml:"avg_return_rate"`
	InterestShare decimal.Decimal `yaml:"interest_share"`
}

// ToleranceConfig holds the absolute variance below which books count as balanced.
type ToleranceConfig struct {
	BalanceSheet decimal.Decimal `yaml:"balance_sheet"`
	CashCount    decimal.Decimal `yaml:"cash_count"`
}

// DatabaseConfig points at an optional SQL backing store.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Period returns the fiscal year that starts in the given calendar year as a
// closed date range.
func (f FiscalConfig) Period(year int) (from, to time.Time, err error) {
	start := f.YearStart
	if start == "" {
		start = "01-01"
	}
	md, err := time.Parse("01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing fiscal year_start %q: %w", f.YearStart, err)
	}
	from = time.Date(year, md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
	to = from.AddDate(1, 0, -1)
	return from, to, nil
}

// Load reads a coopbooks.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadDir reads coopbooks.yaml from a books directory, applying any .env file
// found next to it and the environment overrides.
func LoadDir(dir string) (*Config, error) {
	envPath := filepath.Join(dir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}

	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new cooperative.
func Default(name, chart string) *Config {
	if chart == "" {
		chart = "savings_cooperative"
	}
	return &Config{
		Cooperative: CooperativeConfig{
			Name:  name,
			Chart: chart,
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Accounts: AccountsConfig{
			Cash:           "1010",
			InterestIncome: "4010",
			FineIncome:     "4020",
			OtherIncome:    "4090",
			OtherExpense:   "5090",
		},
		Dividend: DividendConfig{
			Rate:          decimal.RequireFromString("4.5"),
			AvgReturnRate: decimal.RequireFromString("10"),
			InterestShare: decimal.RequireFromString("0.15"),
		},
		Tolerance: ToleranceConfig{
			BalanceSheet: decimal.NewFromInt(1),
			CashCount:    decimal.Zero,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Coopbooks",
			AuthorEmail: "books@coopbooks.local",
		},
	}
}
