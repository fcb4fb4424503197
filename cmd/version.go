package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ecohtml/internal/config"
	"github.com/conneroisu/ecohtml/internal/rules"
	"github.com/conneroisu/ecohtml/internal/version"
)

type versionOptions struct {
	*globalOptions
	format   string
	short    bool
	detailed bool
}

func newVersionCmd(global *globalOptions) *cobra.Command {
	opts := &versionOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for ecohtml including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)
- Rule repository and number of rules

Examples:
  ecohtml version               # Show short version
  ecohtml version --detailed    # Show detailed version info
  ecohtml version --format json # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionCommand(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&opts.short, "short", false, "Show short version only")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "Show detailed version information")

	return cmd
}

func runVersionCommand(cmd *cobra.Command, opts *versionOptions) error {
	catalog, err := rules.Load()
	if err != nil {
		return err
	}
	info := version.GetBuildInfo(rules.Repository, len(catalog.All()))
	out := cmd.OutOrStdout()

	switch opts.format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "text":
		switch {
		case opts.short:
			fmt.Fprintln(out, version.GetShortVersion())
		case opts.detailed:
			fmt.Fprintln(out, version.GetDetailedVersion(info))
		default:
			mode := config.ColorAuto
			if opts.noColor {
				mode = config.ColorNever
			}
			fmt.Fprintln(out, version.Banner(useColor(mode, out)))
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", opts.format)
	}
}
