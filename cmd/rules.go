package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/ecohtml/internal/checks"
	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/report"
	"github.com/conneroisu/ecohtml/internal/rules"
	"github.com/conneroisu/ecohtml/internal/sensor"
)

type rulesOptions struct {
	*globalOptions
	format report.Format
}

func newRulesCmd(global *globalOptions) *cobra.Command {
	opts := &rulesOptions{globalOptions: global, format: report.FormatText}

	cmd := &cobra.Command{
		Use:   "rules [key...]",
		Short: "List the rules of the catalog",
		Long: `List the rules ecohtml knows, with their severity, remediation cost and
whether the current configuration runs them. Deprecated keys are accepted.

Examples:
  ecohtml rules                  # List all rules
  ecohtml rules EC8000           # Show one rule by a deprecated key
  ecohtml rules --format yaml    # Output the catalog as YAML`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd, args, opts)
		},
	}

	cmd.Flags().VarP(newFormatValue(&opts.format), "format", "f", "Output format (text, json, yaml)")

	return cmd
}

func runRules(cmd *cobra.Command, args []string, opts *rulesOptions) error {
	s, err := opts.load(cmd, map[string]string{"format": "output.format"})
	if err != nil {
		return err
	}

	selected, err := selectRules(s.catalog, args)
	if err != nil {
		return err
	}

	active, err := sensor.Activate(s.catalog, checks.All(), s.cfg.Rules.Enabled, s.cfg.Rules.Disabled)
	if err != nil {
		return err
	}
	running := make(map[string]bool, len(active))
	for _, d := range active {
		running[d.Key] = true
	}

	format, err := report.ParseFormat(s.cfg.Output.Format)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(selected)
	case report.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(selected); err != nil {
			return err
		}
		return enc.Close()
	default:
		return outputRulesTable(w, selected, running, len(args) > 0)
	}
}

// selectRules returns the rules named by keys, or the whole catalog.
func selectRules(catalog *rules.Catalog, keys []string) ([]rules.Rule, error) {
	if len(keys) == 0 {
		return catalog.All(), nil
	}

	out := make([]rules.Rule, 0, len(keys))
	for _, key := range keys {
		rule, ok := catalog.Lookup(key)
		if !ok {
			return nil, errors.NewConfigError(errors.ErrCodeUnknownRule, fmt.Sprintf("unknown rule %q", key))
		}
		out = append(out, rule)
	}
	return out, nil
}

// outputRulesTable writes rs as a table. With detail set each rule is
// followed by its tags and description.
func outputRulesTable(out io.Writer, rs []rules.Rule, running map[string]bool, detail bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "KEY\tSEVERITY\tCOST\tACTIVE\tTITLE")
	for _, rule := range rs {
		cost := "-"
		if rule.Remediation.ConstantCost != "" {
			cost = rule.Remediation.ConstantCost
		}
		active := "no"
		if running[rule.Key] {
			active = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rule.Key, rule.Severity, cost, active, rule.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if detail {
		for _, rule := range rs {
			fmt.Fprintf(out, "\n%s\nTags: %s\n", rule.Key, strings.Join(rule.Tags, ", "))
			if len(rule.DeprecatedKeys) > 0 {
				fmt.Fprintf(out, "Deprecated keys: %s\n", strings.Join(rule.DeprecatedKeys, ", "))
			}
			fmt.Fprintf(out, "\n%s", rule.Description)
		}
		return nil
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d rules (repository %s)\n", len(rs), rules.Repository)
	return err
}
