package cmd

import (
	"github.com/spf13/pflag"

	"github.com/conneroisu/ecohtml/internal/report"
)

// analysisFlags are the flags shared by the commands that run the sensor.
type analysisFlags struct {
	format   report.Format
	workers  int
	charset  string
	suffixes []string
	exclude  []string
	enable   []string
	disable  []string
	measures bool
}

// analysisBindings maps each analysis flag onto its configuration key.
var analysisBindings = map[string]string{
	"format":   "output.format",
	"workers":  "analysis.workers",
	"charset":  "analysis.charset",
	"suffixes": "analysis.suffixes",
	"exclude":  "analysis.exclude_patterns",
	"rules":    "rules.enabled",
	"disable":  "rules.disabled",
	"measures": "output.measures",
}

func addAnalysisFlags(fs *pflag.FlagSet, f *analysisFlags) {
	f.format = report.FormatText
	fs.VarP(newFormatValue(&f.format), "format", "f", "Output format (text, json, yaml)")
	fs.IntVarP(&f.workers, "workers", "w", 1, "Number of files analyzed at once")
	fs.StringVar(&f.charset, "charset", "utf-8", "Charset of the pages; empty to sniff from BOM or <meta>")
	fs.StringSliceVar(&f.suffixes, "suffixes", nil, "Extensions analyzed besides html and jsp files (e.g. php,vue)")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "Patterns of files and directories to skip")
	fs.StringSliceVar(&f.enable, "rules", nil, "Only run these rules")
	fs.StringSliceVar(&f.disable, "disable", nil, "Never run these rules")
	fs.BoolVar(&f.measures, "measures", false, "Include per-file measures in the text report")
}

// formatValue is a pflag.Value accepting report format names only.
type formatValue struct {
	format *report.Format
}

func newFormatValue(format *report.Format) *formatValue {
	return &formatValue{format: format}
}

func (v *formatValue) String() string {
	if v.format == nil {
		return ""
	}
	return string(*v.format)
}

func (v *formatValue) Set(s string) error {
	format, err := report.ParseFormat(s)
	if err != nil {
		return err
	}
	*v.format = format
	return nil
}

func (v *formatValue) Type() string {
	return "format"
}
