package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
)

// Environment keys.
const (
	FileEnv   = "CREDIT_CONFIG"
	EnvPrefix = "CREDIT_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if CREDIT_CONFIG is set
//  3. env (prefix CREDIT_, "__" separates sections)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CREDIT_STORE__DATABASE_URL -> store.database_url
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := replaceCurves(k, &cfg.Policy); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// replaceCurves decodes configured curves into empty values. Unmarshalling
// onto the defaults would keep trailing default knots when the configured
// curve is shorter.
func replaceCurves(k *koanf.Koanf, p *policy.Policy) error {
	curves := map[string]*policy.Curve{
		"policy.benchmarks.revenue_growth":    &p.Benchmarks.RevenueGrowth,
		"policy.benchmarks.days_to_pay":       &p.Benchmarks.DaysToPay,
		"policy.benchmarks.margin":            &p.Benchmarks.Margin,
		"policy.benchmarks.debt_age":          &p.Benchmarks.DebtAge,
		"policy.benchmarks.repayment_ratio":   &p.Benchmarks.RepaymentRatio,
		"policy.benchmarks.tenure_months":     &p.Benchmarks.TenureMonths,
		"policy.capacity.risk_modifier_curve": &p.Capacity.RiskModifierCurve,
	}
	for path, dst := range curves {
		if !k.Exists(path) {
			continue
		}
		var c policy.Curve
		if err := k.Unmarshal(path, &c); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
		*dst = c
	}
	return nil
}
