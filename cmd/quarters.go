package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
	"github.com/sells-group/pipeline-predict/internal/quarter"
)

var quartersInputs inputFlags

var quartersCmd = &cobra.Command{
	Use:   "quarters [LABEL...]",
	Short: "Print close quarter labels with their sort keys in order",
	Long:  "Prints each label with its sort key, ordered chronologically. Labels come from the arguments, or from the Close Quarter column of --pipeline.",
	Example: `  pipeline-predict quarters Q1-25 Q4-24 TBD
  pipeline-predict quarters --pipeline opps.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		labels := args
		if quartersInputs.pipeline != "" || quartersInputs.source == sourceSalesforce {
			records, err := loadRecords(cmd.Context(), cfg, quartersInputs)
			if err != nil {
				return err
			}
			labels = append(labels, distinctQuarters(records)...)
		}
		writeQuarters(cmd.OutOrStdout(), labels)
		return nil
	},
}

// distinctQuarters returns each close quarter once, nulls excluded.
func distinctQuarters(records []model.Opportunity) []string {
	seen := opportunity.Set{}
	var out []string
	for _, r := range records {
		q := r.Value(model.FieldCloseQuarter)
		if !q.Valid || seen.Has(q) {
			continue
		}
		seen[q.Value] = struct{}{}
		out = append(out, q.Value)
	}
	return out
}

func writeQuarters(w io.Writer, labels []string) {
	for _, l := range quarter.Sort(labels) {
		fmt.Fprintf(w, "%s\t%d\n", l, quarter.SortKey(l))
	}
}

func init() {
	quartersInputs.register(quartersCmd)
	rootCmd.AddCommand(quartersCmd)
}
