package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
	"github.com/yungbote/studentbridge-backend/internal/utils"
)

// EngineConfig holds the tunables of the risk engine. Trigger thresholds are
// deliberately configuration rather than constants; the defaults below are
// the shipped policy.
type EngineConfig struct {
	TriggerThresholds map[types.RiskCategory]types.RiskLevel `yaml:"-"`
	RawThresholds     map[string]string                      `yaml:"trigger_thresholds"`

	SweepInterval    time.Duration `yaml:"-"`
	RawSweepInterval string        `yaml:"sweep_interval"`
	SweepConcurrency int           `yaml:"sweep_concurrency"`

	CallTimeout    time.Duration `yaml:"-"`
	RawCallTimeout string        `yaml:"call_timeout"`

	LockTTL    time.Duration `yaml:"-"`
	RawLockTTL string        `yaml:"lock_ttl"`
}

func DefaultThresholds() map[types.RiskCategory]types.RiskLevel {
	return map[types.RiskCategory]types.RiskLevel{
		types.CategoryAcademic:          types.RiskModerate,
		types.CategoryEmotional:         types.RiskHigh,
		types.CategorySkillDevelopment:  types.RiskModerate,
		types.CategoryCareerPreparation: types.RiskHigh,
		types.CategoryAttendance:        types.RiskHigh,
		types.CategoryBehavioral:        types.RiskHigh,
		types.CategoryFinancial:         types.RiskHigh,
		types.CategorySocialEmotional:   types.RiskHigh,
	}
}

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		TriggerThresholds: DefaultThresholds(),
		SweepInterval:     15 * time.Minute,
		SweepConcurrency:  4,
		CallTimeout:       45 * time.Second,
		LockTTL:           30 * time.Second,
	}
}

// LoadEngineConfig reads ENGINE_CONFIG_PATH if set (YAML), then applies env
// overrides. A missing or unreadable file is recoverable: defaults apply.
func LoadEngineConfig(log *logger.Logger) EngineConfig {
	cfg := defaultEngineConfig()

	path := utils.GetEnv("ENGINE_CONFIG_PATH", "", log)
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if log != nil {
				log.Warn("Failed to load engine config file, using defaults", "path", path, "error", err)
			}
		}
	}

	cfg.SweepConcurrency = utils.GetEnvAsInt("SWEEP_CONCURRENCY", cfg.SweepConcurrency, log)
	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = 1
	}
	if sec := utils.GetEnvAsInt("SWEEP_INTERVAL_SECONDS", 0, log); sec > 0 {
		cfg.SweepInterval = time.Duration(sec) * time.Second
	}
	if sec := utils.GetEnvAsInt("COLLABORATOR_TIMEOUT_SECONDS", 0, log); sec > 0 {
		cfg.CallTimeout = time.Duration(sec) * time.Second
	}
	if sec := utils.GetEnvAsInt("INTERVENTION_LOCK_TTL_SECONDS", 0, log); sec > 0 {
		cfg.LockTTL = time.Duration(sec) * time.Second
	}
	return cfg
}

func (c *EngineConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var parsed EngineConfig
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse engine config: %w", err)
	}

	for key, val := range parsed.RawThresholds {
		cat, ok := types.ParseRiskCategory(key)
		if !ok {
			return fmt.Errorf("unknown risk category %q in trigger_thresholds", key)
		}
		lvl, ok := types.ParseRiskLevel(val)
		if !ok {
			return fmt.Errorf("unknown risk level %q for category %q", val, key)
		}
		c.TriggerThresholds[cat] = lvl
	}
	if parsed.SweepConcurrency > 0 {
		c.SweepConcurrency = parsed.SweepConcurrency
	}
	if d, err := parseDuration(parsed.RawSweepInterval); err == nil && d > 0 {
		c.SweepInterval = d
	}
	if d, err := parseDuration(parsed.RawCallTimeout); err == nil && d > 0 {
		c.CallTimeout = d
	}
	if d, err := parseDuration(parsed.RawLockTTL); err == nil && d > 0 {
		c.LockTTL = d
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	return time.ParseDuration(s)
}
