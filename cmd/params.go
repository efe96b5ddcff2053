package main

import (
	"time"

	"github.com/sells-group/pipeline-predict/internal/config"
	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/forecast"
	"github.com/sells-group/pipeline-predict/internal/pacing"
	"github.com/sells-group/pipeline-predict/internal/report"
)

// paramsFromConfig builds the starting report parameters from configuration.
func paramsFromConfig(c *config.Config) report.Params {
	p := report.DefaultParams()

	if len(c.Rates) > 0 {
		rates := forecast.RateTable{}
		for k, v := range c.Rates {
			rates = rates.With(k, v)
		}
		p.Rates = rates
	}
	if len(c.Filters.AllowedSegmentations) > 0 {
		p.AllowedSegmentations = append([]string(nil), c.Filters.AllowedSegmentations...)
	}

	p.Pacing = pacing.Options{
		MarkerColumn:  c.Pacing.MarkerColumn,
		CurrentColumn: c.Pacing.CurrentColumn,
		MarkerValue:   c.Pacing.MarkerValue,
		WeeklyMarker:  c.Pacing.WeeklyMarker,
		WeeklyRows:    c.Pacing.WeeklyRows,
		TargetSource:  c.Pacing.TargetSource,
		CurrentSource: c.Pacing.CurrentSource,
		MetricGroup:   c.Pacing.MetricGroup,
		MetricType:    c.Pacing.MetricType,
		Segments:      append([]string(nil), c.Pacing.Segments...),
	}

	if c.Projection.WeeksTotal > 0 {
		p.WeeksTotal = c.Projection.WeeksTotal
	}
	p.AvgUnitSize = c.Projection.AvgUnitSize
	return p
}

// newFetcher builds the downloader used for inputs given as URLs.
func newFetcher(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: c.Fetch.MaxRetries,
		RateLimit:  c.Fetch.RateLimit,
	})
}
