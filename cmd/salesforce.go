package main

import (
	"context"
	"os"
	"strings"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/config"
	"github.com/sells-group/pipeline-predict/internal/fetcher"
	sfpkg "github.com/sells-group/pipeline-predict/pkg/salesforce"
)

func initSalesforce(c *config.Config) (sfpkg.Client, error) {
	if err := c.Validate("salesforce"); err != nil {
		return nil, err
	}

	pemData, err := os.ReadFile(c.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         c.Salesforce.LoginURL,
		Username:       c.Salesforce.Username,
		ConsumerKey:    c.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(c.Salesforce.RateLimit)), nil
}

// salesforceFieldMap applies configured custom field names to the defaults.
func salesforceFieldMap(c config.SalesforceConfig) sfpkg.FieldMap {
	f := sfpkg.DefaultFieldMap()
	f.Segmentation = strings.TrimSpace(c.SegmentationField)
	f.OwnerLine = strings.TrimSpace(c.OwnerLineField)
	return f
}

// loadSalesforcePipeline pulls open opportunities as a pipeline table.
func loadSalesforcePipeline(ctx context.Context, client sfpkg.Client, c config.SalesforceConfig) (*fetcher.Table, error) {
	fields := salesforceFieldMap(c)

	missing, err := sfpkg.CheckFields(ctx, client, fields)
	if err != nil {
		return nil, eris.Wrap(err, "salesforce: describe opportunity")
	}
	if len(missing) > 0 {
		zap.L().Warn("salesforce: opportunity fields not found, columns will be blank",
			zap.Strings("fields", missing),
		)
		for _, name := range missing {
			switch name {
			case fields.Segmentation:
				fields.Segmentation = ""
			case fields.OwnerLine:
				fields.OwnerLine = ""
			default:
				return nil, eris.Errorf("salesforce: required opportunity field %s not found", name)
			}
		}
	}

	return sfpkg.FetchOpportunities(ctx, client, sfpkg.OpportunityQuery{
		Where:  c.OpportunitySOQLWhere,
		Limit:  c.OpportunityLimit,
		Fields: fields,
	})
}
