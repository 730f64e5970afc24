package screenconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/movers/pkg/config"
)

// Load reads a YAML rule file over base and validates the result.
// Keys absent from the file keep base's values.
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string, base *Config) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data, base)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse decodes YAML over a copy of base and validates the result
func Parse(data []byte, base *Config) (*Config, error) {
	var cfg Config
	if base != nil {
		cfg = *base
		cfg.Rule.EnabledPredicates = append([]string{}, base.Rule.EnabledPredicates...)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.Rule.EnabledPredicates = normalizePredicates(cfg.Rule.EnabledPredicates)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve returns the effective rule: env settings, overlaid by RULE_FILE when set
func Resolve(cfg *config.Config) (*Config, error) {
	base := FromEnv(cfg.Screening)
	if cfg.Screening.RuleFile == "" {
		if err := Validate(base); err != nil {
			return nil, err
		}
		return base, nil
	}

	resolved, _, err := Load(cfg.Screening.RuleFile, base)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
