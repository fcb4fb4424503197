// Package rules loads the rule catalog: the human-readable metadata
// (title, severity, remediation) attached to every rule key.
package rules

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/ecohtml/internal/errors"
)

// Repository is the rule repository key issues are reported under.
const Repository = "creedengo-html"

//go:embed metadata/*.yml
var metadataFS embed.FS

// Severity levels, lowest to highest.
var severities = []string{"Info", "Minor", "Major", "Critical", "Blocker"}

// Remediation describes how fixing an issue is priced.
type Remediation struct {
	Func         string `yaml:"func" json:"func"`
	ConstantCost string `yaml:"constant_cost" json:"constant_cost"`
}

// Rule is the metadata of one rule.
type Rule struct {
	Key            string      `yaml:"key" json:"key"`
	Title          string      `yaml:"title" json:"title"`
	Type           string      `yaml:"type" json:"type"`
	Status         string      `yaml:"status" json:"status"`
	Severity       string      `yaml:"severity" json:"severity"`
	Remediation    Remediation `yaml:"remediation" json:"remediation"`
	Tags           []string    `yaml:"tags" json:"tags"`
	DeprecatedKeys []string    `yaml:"deprecated_keys" json:"deprecated_keys,omitempty"`
	Description    string      `yaml:"description" json:"description"`
}

// Cost returns the constant remediation cost in minutes.
func (r Rule) Cost() (float64, bool) {
	if r.Remediation.ConstantCost == "" {
		return 0, false
	}
	minutes, err := parseCost(r.Remediation.ConstantCost)
	if err != nil {
		return 0, false
	}
	return minutes, true
}

// parseCost understands the "5min", "1h", "2h30min" and "1d" notation of
// rule metadata. A day is 8 working hours.
func parseCost(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "min", "m")
	if strings.HasSuffix(s, "d") {
		var days float64
		if _, err := fmt.Sscanf(s, "%gd", &days); err != nil {
			return 0, err
		}
		return days * 8 * 60, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Minutes(), nil
}

// Catalog indexes rules by key and by deprecated key.
type Catalog struct {
	rules []Rule
	byKey map[string]int
}

// Load parses the embedded rule metadata.
func Load() (*Catalog, error) {
	files, err := metadataFS.ReadDir("metadata")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeCatalogInvalid, "cannot list rule metadata", err)
	}

	var all []Rule
	for _, f := range files {
		data, err := metadataFS.ReadFile("metadata/" + f.Name())
		if err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeCatalogInvalid, "cannot read rule metadata", err)
		}
		var rs []Rule
		if err := yaml.Unmarshal(data, &rs); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeCatalogInvalid, "invalid rule metadata "+f.Name(), err)
		}
		all = append(all, rs...)
	}
	return New(all)
}

// MustLoad is Load for package-level initialization.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML rule metadata.
func Parse(data []byte) (*Catalog, error) {
	var rs []Rule
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeCatalogInvalid, "invalid rule metadata: "+err.Error())
	}
	return New(rs)
}

// New validates rules and builds a catalog sorted by key.
func New(rs []Rule) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]int)}

	sorted := make([]Rule, len(rs))
	copy(sorted, rs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	for i, r := range sorted {
		if err := validate(r); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[r.Key]; dup {
			return nil, errors.NewValidationError(errors.ErrCodeCatalogInvalid, "duplicate rule key "+r.Key)
		}
		c.byKey[r.Key] = i
		for _, dk := range r.DeprecatedKeys {
			c.byKey[deprecatedRuleKey(dk)] = i
		}
	}
	c.rules = sorted
	return c, nil
}

// deprecatedRuleKey strips the repository prefix of "repo:key".
func deprecatedRuleKey(k string) string {
	if i := strings.LastIndex(k, ":"); i >= 0 {
		return k[i+1:]
	}
	return k
}

func validate(r Rule) error {
	if r.Key == "" {
		return errors.NewValidationError(errors.ErrCodeCatalogInvalid, "rule without key")
	}
	if r.Title == "" {
		return errors.NewValidationError(errors.ErrCodeCatalogInvalid, "rule "+r.Key+" has no title")
	}
	known := false
	for _, s := range severities {
		if s == r.Severity {
			known = true
			break
		}
	}
	if !known {
		return errors.NewValidationError(
			errors.ErrCodeCatalogInvalid,
			fmt.Sprintf("rule %s has unknown severity %q", r.Key, r.Severity),
		)
	}
	if r.Remediation.ConstantCost != "" {
		if _, err := parseCost(r.Remediation.ConstantCost); err != nil {
			return errors.NewValidationError(
				errors.ErrCodeCatalogInvalid,
				fmt.Sprintf("rule %s has invalid remediation cost %q", r.Key, r.Remediation.ConstantCost),
			)
		}
	}
	return nil
}

// Lookup finds a rule by its key or one of its deprecated keys.
func (c *Catalog) Lookup(key string) (Rule, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// All returns every rule, sorted by key.
func (c *Catalog) All() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
