package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/results"
)

// ScoringProfile is a named aggregation policy defined in YAML, so risk
// thresholds and domain weights can change per deployment without a
// recompile. Zero-valued fields fall back to the default policy.
type ScoringProfile struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	DomainWeights map[string]float64 `yaml:"domain_weights,omitempty" json:"domain_weights,omitempty"`

	CriticalBelow int `yaml:"critical_below,omitempty" json:"critical_below,omitempty"`
	HighBelow     int `yaml:"high_below,omitempty" json:"high_below,omitempty"`
	MediumBelow   int `yaml:"medium_below,omitempty" json:"medium_below,omitempty"`
	CleanLowAt    int `yaml:"clean_low_at,omitempty" json:"clean_low_at,omitempty"`

	CacheTTLSeconds int `yaml:"cache_ttl_seconds,omitempty" json:"cache_ttl_seconds,omitempty"`
}

// LoadScoringProfile loads profile_<name>.yaml from the profiles directory.
func LoadScoringProfile(profilesDir, name string) (*ScoringProfile, error) {
	name = strings.ToLower(name)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", name))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scoring profile %q: %w", name, err)
	}

	var profile ScoringProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse scoring profile %q: %w", name, err)
	}

	if profile.Name == "" {
		profile.Name = name
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("scoring profile %q: %w", name, err)
	}

	return &profile, nil
}

// LoadAllScoringProfiles loads every profile_*.yaml in the directory.
func LoadAllScoringProfiles(profilesDir string) (map[string]*ScoringProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*ScoringProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile ScoringProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if profile.Name == "" {
			base := filepath.Base(path)
			profile.Name = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("scoring profile %s: %w", path, err)
		}

		profiles[profile.Name] = &profile
	}

	return profiles, nil
}

// Validate rejects profiles whose thresholds cannot classify consistently.
func (p *ScoringProfile) Validate() error {
	c, h, m := p.CriticalBelow, p.HighBelow, p.MediumBelow
	def := results.DefaultPolicy()
	if c == 0 {
		c = def.CriticalBelow
	}
	if h == 0 {
		h = def.HighBelow
	}
	if m == 0 {
		m = def.MediumBelow
	}
	if c > h || h > m {
		return fmt.Errorf("thresholds must ascend: critical_below %d, high_below %d, medium_below %d", c, h, m)
	}
	for domain, w := range p.DomainWeights {
		if w <= 0 {
			return fmt.Errorf("domain weight for %q must be positive, got %v", domain, w)
		}
	}
	return nil
}

// Policy converts the profile into an aggregation policy. Fields the
// profile leaves unset keep their default values.
func (p *ScoringProfile) Policy() results.Policy {
	policy := results.DefaultPolicy()

	if len(p.DomainWeights) > 0 {
		weights := make(map[contracts.Domain]float64, len(p.DomainWeights))
		for domain, w := range p.DomainWeights {
			weights[contracts.Domain(domain)] = w
		}
		policy.DomainWeights = weights
	}
	if p.CriticalBelow > 0 {
		policy.CriticalBelow = p.CriticalBelow
	}
	if p.HighBelow > 0 {
		policy.HighBelow = p.HighBelow
	}
	if p.MediumBelow > 0 {
		policy.MediumBelow = p.MediumBelow
	}
	if p.CleanLowAt > 0 {
		policy.CleanLowAt = p.CleanLowAt
	}
	if p.CacheTTLSeconds > 0 {
		policy.CacheTTL = time.Duration(p.CacheTTLSeconds) * time.Second
	}

	return policy
}
