package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pipeline-predict/internal/config"
	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/forecast"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
	"github.com/sells-group/pipeline-predict/internal/report"
	"github.com/sells-group/pipeline-predict/pkg/notion"
)

const (
	sourceFile       = "file"
	sourceSalesforce = "salesforce"
)

// inputFlags locate the two input tables.
type inputFlags struct {
	pipeline    string
	pacing      string
	source      string
	sheet       string
	pacingSheet string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pipeline, "pipeline", "", "opportunity export (CSV/XLSX path or URL)")
	cmd.Flags().StringVar(&f.pacing, "pacing", "", "pacing export (CSV/XLSX path or URL)")
	cmd.Flags().StringVar(&f.source, "source", sourceFile, "opportunity source: file or salesforce")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "pipeline XLSX sheet name (default: first sheet)")
	cmd.Flags().StringVar(&f.pacingSheet, "pacing-sheet", "", "pacing XLSX sheet name (default: first sheet)")
}

var (
	reportInputs      inputFlags
	reportRates       map[string]string
	reportSegments    []string
	reportOwnerLines  []string
	reportQuarters    []string
	reportAvgSize     float64
	reportWeeks       int
	reportElapsed     int
	reportTarget      float64
	reportProjected   float64
	reportActuals     []float64
	reportFormat      string
	reportOutput      string
	reportPublish     bool
	reportPublishName string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the forecast report from pipeline and pacing exports",
	Example: `  pipeline-predict report --pipeline opps.csv --pacing pacing.xlsx
  pipeline-predict report --source salesforce --pacing pacing.csv --rate Upside=40 --format html -o report.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		p, err := reportParams(cmd, paramsFromConfig(cfg))
		if err != nil {
			return err
		}

		format, err := report.ParseFormat(reportFormat)
		if err != nil {
			return err
		}

		in, err := loadInputs(ctx, cfg, reportInputs)
		if err != nil {
			return err
		}

		r, err := report.Build(in, p)
		if err != nil {
			return err
		}
		zap.L().Info("report built",
			zap.Int("failures", len(r.Failures)),
			zap.Int("warnings", len(r.Warnings)),
			zap.Int("dropped", len(r.Dropped)),
		)

		if err := writeReport(r, format, reportOutput, cmd.OutOrStdout()); err != nil {
			return err
		}

		if reportPublish {
			return publishReport(ctx, cfg, r, reportPublishName)
		}
		return nil
	},
}

// reportParams overlays command-line flags onto base.
func reportParams(cmd *cobra.Command, base report.Params) (report.Params, error) {
	p := base
	flags := cmd.Flags()

	if len(reportRates) > 0 {
		rates, err := forecast.ParseRates(p.Rates, reportRates)
		if err != nil {
			return p, err
		}
		p.Rates = rates
	}

	if flags.Changed("segment") || flags.Changed("owner-line") || flags.Changed("quarter") {
		sel := opportunity.Selection{}
		if flags.Changed("segment") {
			sel.Segmentations = opportunity.NewSet(reportSegments...)
		}
		if flags.Changed("owner-line") {
			sel.OwnerLines = opportunity.NewSet(reportOwnerLines...)
		}
		if flags.Changed("quarter") {
			sel.Quarters = opportunity.NewSet(reportQuarters...)
		}
		p.Selection = &sel
	}

	if flags.Changed("avg-opp-size") {
		p.AvgUnitSize = reportAvgSize
	}
	if flags.Changed("weeks") {
		p.WeeksTotal = reportWeeks
	}
	if flags.Changed("weeks-elapsed") {
		v := reportElapsed
		p.WeeksElapsed = &v
	}
	if flags.Changed("target") {
		v := reportTarget
		p.TargetTotal = &v
	}
	if flags.Changed("projected") {
		v := reportProjected
		p.ProjectedTotal = &v
	}
	if flags.Changed("actual") {
		p.ActualToDate = append([]float64(nil), reportActuals...)
	}

	return p, p.Validate()
}

// loadInputs reads the pipeline and pacing tables concurrently. A missing
// pacing path leaves that table nil; the report then omits the pacing
// sections.
func loadInputs(ctx context.Context, c *config.Config, f inputFlags) (report.Inputs, error) {
	var in report.Inputs
	fetch := newFetcher(c)

	switch f.source {
	case sourceFile:
		if f.pipeline == "" {
			return in, eris.New("--pipeline is required when --source=file")
		}
	case sourceSalesforce:
	default:
		return in, eris.Errorf("unknown --source %q (want file or salesforce)", f.source)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var t *fetcher.Table
		var err error
		if f.source == sourceSalesforce {
			client, cerr := initSalesforce(c)
			if cerr != nil {
				return cerr
			}
			t, err = loadSalesforcePipeline(gctx, client, c.Salesforce)
		} else {
			t, err = fetcher.LoadSource(gctx, fetch, f.pipeline, fetcher.LoadOptions{Header: true, Sheet: f.sheet})
		}
		if err != nil {
			return eris.Wrap(err, "load pipeline")
		}
		in.Pipeline = t
		return nil
	})

	if f.pacing != "" {
		g.Go(func() error {
			t, err := fetcher.LoadSource(gctx, fetch, f.pacing, fetcher.LoadOptions{Sheet: f.pacingSheet})
			if err != nil {
				return eris.Wrap(err, "load pacing")
			}
			in.Pacing = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report.Inputs{}, err
	}
	return in, nil
}

func writeReport(r *report.Report, format report.Format, path string, stdout io.Writer) error {
	if path == "" || path == "-" {
		return report.Write(stdout, r, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := report.Write(f, r, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}
	zap.L().Info("report written", zap.String("path", path), zap.String("format", string(format)))
	return nil
}

func publishReport(ctx context.Context, c *config.Config, r *report.Report, title string) error {
	if err := c.Validate("notion"); err != nil {
		return err
	}
	client, err := notion.NewClient(c.Notion.Token, c.Notion.ReportDB)
	if err != nil {
		return err
	}
	page, err := notion.PublishSummary(ctx, client, notionSummary(r, title))
	if err != nil {
		return err
	}
	zap.L().Info("report published to notion", zap.String("page_id", string(page.ID)))
	return nil
}

// notionSummary condenses a report into the reports database row.
func notionSummary(r *report.Report, title string) notion.Summary {
	if title == "" {
		title = fmt.Sprintf("Pipeline forecast %s", r.GeneratedAt.Format("2006-01-02"))
	}
	s := notion.Summary{Title: title, GeneratedAt: r.GeneratedAt}

	if r.Summary != nil {
		s.Pipeline = r.Summary.Pipeline
		s.Predicted = r.Summary.Predicted
		s.Opportunities = r.Summary.Opportunities
		s.Lines = append(s.Lines,
			"Opportunities: "+report.Count(float64(r.Summary.Opportunities)),
			"Total pipeline: "+report.Currency(r.Summary.Pipeline),
			"Predicted value: "+report.Currency(r.Summary.Predicted),
		)
	}
	if r.Gap != nil {
		target, projected := r.Gap.Target, r.Gap.Projected
		s.Target = &target
		s.Projected = &projected
		s.Lines = append(s.Lines,
			"Target: "+report.Currency(target),
			"Gap: "+report.Currency(r.Gap.Amount),
		)
		if r.Gap.UnitsNeeded.Defined {
			units := r.Gap.UnitsNeeded.Value
			s.GapUnits = &units
			s.Lines = append(s.Lines, "Opportunities needed: "+report.CountOf(r.Gap.UnitsNeeded))
		}
	}
	for _, w := range r.Warnings {
		s.Lines = append(s.Lines, "Warning: "+w)
	}
	return s
}

func init() {
	reportInputs.register(reportCmd)
	f := reportCmd.Flags()
	f.StringToStringVar(&reportRates, "rate", nil, "conversion rate override, e.g. Upside=0.4 or Commit=85%")
	f.StringSliceVar(&reportSegments, "segment", nil, "coverage segmentations to include (default: all offered)")
	f.StringSliceVar(&reportOwnerLines, "owner-line", nil, "1st line owners to include (default: all)")
	f.StringSliceVar(&reportQuarters, "quarter", nil, "close quarters to include (default: all)")
	f.Float64Var(&reportAvgSize, "avg-opp-size", 0, "average opportunity size for gap closure (default from config)")
	f.IntVar(&reportWeeks, "weeks", 0, "weeks in the quarter (default from config)")
	f.IntVar(&reportElapsed, "weeks-elapsed", 0, "weeks elapsed (default from the pacing export)")
	f.Float64Var(&reportTarget, "target", 0, "quarter target override (default: pacing ALL target)")
	f.Float64Var(&reportProjected, "projected", 0, "projected total override (default: filtered predicted value)")
	f.Float64SliceVar(&reportActuals, "actual", nil, "weekly actual-to-date values, week 1 first")
	f.StringVar(&reportFormat, "format", "markdown", "output format: markdown, html, json, yaml")
	f.StringVarP(&reportOutput, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&reportPublish, "publish", false, "publish the summary to the Notion reports database")
	f.StringVar(&reportPublishName, "publish-title", "", "Notion page title (default: dated title)")
	rootCmd.AddCommand(reportCmd)
}
