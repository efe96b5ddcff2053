package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
)

func TestWriteQuarters(t *testing.T) {
	var buf bytes.Buffer
	writeQuarters(&buf, []string{"Q1-25", "TBD", "Q4-24", "Q2-2025"})
	assert.Equal(t, "Q4-24\t244\nQ1-25\t251\nQ2-2025\t252\nTBD\t9999\n", buf.String())
}

func TestDistinctQuarters(t *testing.T) {
	records := []model.Opportunity{
		{CloseQuarter: "Q1-25"},
		{CloseQuarter: ""},
		{CloseQuarter: "Q4-24"},
		{CloseQuarter: "Q1-25"},
	}
	assert.Equal(t, []string{"Q1-25", "Q4-24"}, distinctQuarters(records))
}

func TestWriteOptions(t *testing.T) {
	opts := opportunity.FilterOptions{
		Segmentations: []string{"Enterprise"},
		OwnerLines:    []string{"East", "West"},
		Quarters:      []string{"Q4-24", "Q1-25"},
	}

	var text bytes.Buffer
	require.NoError(t, writeOptions(&text, opts, "text"))
	assert.Contains(t, text.String(), "1st Line from CRO: East, West")
	assert.Contains(t, text.String(), "Close Quarter: Q4-24, Q1-25")

	var js bytes.Buffer
	require.NoError(t, writeOptions(&js, opts, "json"))
	assert.JSONEq(t, `{"segmentations":["Enterprise"],"owner_lines":["East","West"],"quarters":["Q4-24","Q1-25"]}`, js.String())

	var y bytes.Buffer
	require.NoError(t, writeOptions(&y, opts, "yaml"))
	assert.Contains(t, y.String(), "owner_lines:")
	assert.Contains(t, y.String(), "- West")

	assert.Error(t, writeOptions(&bytes.Buffer{}, opts, "xml"))
}

func TestSalesforceFieldMap(t *testing.T) {
	c := loadTestConfig(t)
	f := salesforceFieldMap(c.Salesforce)
	assert.Equal(t, "Coverage_Segmentation__c", f.Segmentation)
	assert.Equal(t, "First_Line_from_CRO__c", f.OwnerLine)

	c.Salesforce.OwnerLineField = " "
	assert.Empty(t, salesforceFieldMap(c.Salesforce).OwnerLine)
}
