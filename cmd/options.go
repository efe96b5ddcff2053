package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pipeline-predict/internal/config"
	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
)

var (
	optionsInputs inputFlags
	optionsFormat string
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the filter values offered for a pipeline export",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context(), cfg, optionsInputs)
		if err != nil {
			return err
		}
		opts := opportunity.Options(records, paramsFromConfig(cfg).AllowedSegmentations)
		return writeOptions(cmd.OutOrStdout(), opts, optionsFormat)
	},
}

// loadRecords loads and normalizes the pipeline table only.
func loadRecords(ctx context.Context, c *config.Config, f inputFlags) ([]model.Opportunity, error) {
	f.pacing = ""
	in, err := loadInputs(ctx, c, f)
	if err != nil {
		return nil, err
	}
	res, err := opportunity.Normalize(in.Pipeline, paramsFromConfig(c).Rates)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

func writeOptions(w io.Writer, opts opportunity.FilterOptions, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(opts)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(opts); err != nil {
			return eris.Wrap(err, "encode options")
		}
		return enc.Close()
	case "", "text":
		fmt.Fprintf(w, "Coverage Segmentation: %s\n", strings.Join(opts.Segmentations, ", "))
		fmt.Fprintf(w, "1st Line from CRO: %s\n", strings.Join(opts.OwnerLines, ", "))
		fmt.Fprintf(w, "Close Quarter: %s\n", strings.Join(opts.Quarters, ", "))
		return nil
	default:
		return eris.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func init() {
	optionsInputs.register(optionsCmd)
	optionsCmd.Flags().StringVar(&optionsFormat, "format", "text", "output format: text, json, yaml")
	rootCmd.AddCommand(optionsCmd)
}
