// Package config loads scrub-db configuration through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/scrub-db/internal/common"
	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/model"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "SCRUBDB"

// Config is the run configuration. It is read once and not modified while a
// dump is processed.
type Config struct {
	AutoDetect            bool              `yaml:"auto_detect"`
	PreserveRelationships bool              `yaml:"preserve_relationships"`
	CustomRules           map[string]string `yaml:"custom_rules"`
	HashSalt              string            `yaml:"hash_salt,omitempty"`
	Dialect               string            `yaml:"dialect,omitempty"`
}

// Configure registers defaults and environment handling on v.
func Configure(v *viper.Viper) {
	v.SetDefault("auto_detect", true)
	v.SetDefault("preserve_relationships", true)
	v.SetDefault("hash_salt", "")
	v.SetDefault("dialect", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load builds a Config from v and validates it. Unknown method names and
// dialects are configuration errors.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AutoDetect:            v.GetBool("auto_detect"),
		PreserveRelationships: v.GetBool("preserve_relationships"),
		CustomRules:           make(map[string]string),
		HashSalt:              v.GetString("hash_salt"),
		Dialect:               v.GetString("dialect"),
	}

	// viper splits keys on dots, so "users.email" arrives as a nested map.
	if err := flattenRules(cfg.CustomRules, "", v.Get("custom_rules")); err != nil {
		return nil, err
	}

	if _, err := cfg.Rules(); err != nil {
		return nil, err
	}
	if _, err := model.ParseDatabaseType(cfg.Dialect); err != nil {
		return nil, fmt.Errorf("%w: dialect: %w", common.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func flattenRules(out map[string]string, prefix string, raw any) error {
	switch value := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, nested := range value {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenRules(out, key, nested); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return fmt.Errorf("%w: custom_rules must be a mapping", common.ErrInvalidConfig)
		}
		out[strings.ToLower(prefix)] = value
		return nil
	default:
		return fmt.Errorf("%w: custom_rules[%s] must be a method name, got %T", common.ErrInvalidConfig, prefix, raw)
	}
}

// Rules resolves every custom rule to its method.
func (c *Config) Rules() (map[string]model.Method, error) {
	keys := make([]string, 0, len(c.CustomRules))
	for k := range c.CustomRules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rules := make(map[string]model.Method, len(keys))
	for _, k := range keys {
		m, err := model.ParseMethod(c.CustomRules[k])
		if err != nil {
			return nil, fmt.Errorf("custom_rules[%s]: %w", k, err)
		}
		rules[strings.ToLower(k)] = m
	}
	return rules, nil
}

// PassesThrough reports whether nothing would ever be anonymized.
func (c *Config) PassesThrough() bool {
	return !c.AutoDetect && len(c.CustomRules) == 0
}

// Options converts the configuration into rewrite session options.
func (c *Config) Options() (dump.Options, error) {
	rules, err := c.Rules()
	if err != nil {
		return dump.Options{}, err
	}
	d, err := model.ParseDatabaseType(c.Dialect)
	if err != nil {
		return dump.Options{}, err
	}

	opts := dump.DefaultOptions()
	opts.Rules = rules
	opts.AutoDetect = c.AutoDetect
	opts.PreserveRelationships = c.PreserveRelationships
	opts.Salt = c.HashSalt
	opts.Dialect = d
	return opts, nil
}

// Example returns the configuration written by "scrub-db init".
func Example() *Config {
	return &Config{
		AutoDetect:            true,
		PreserveRelationships: true,
		CustomRules: map[string]string{
			"email":           model.MethodFakeEmail.String(),
			"phone":           model.MethodFakePhone.String(),
			"ssn":             model.MethodMaskSSN.String(),
			"users.full_name": model.MethodFakeName.String(),
			"api_token":       model.MethodHash.String(),
		},
	}
}

const exampleHeader = `# scrub-db configuration
#
# custom_rules maps "column" or "table.column" to a method:
#   %s
`

// WriteExample writes the example configuration to path. An existing file is
// only replaced when force is set.
func WriteExample(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return common.NewUserError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), err)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, exampleHeader, strings.Join(model.MethodNames(), ", ")); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(Example()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
