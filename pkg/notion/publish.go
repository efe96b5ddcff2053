package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Reports database property names.
const (
	PropGenerated     = "Generated"
	PropPipeline      = "Pipeline"
	PropPredicted     = "Predicted"
	PropOpportunities = "Opportunities"
	PropTarget        = "Target"
	PropProjected     = "Projected"
	PropGapUnits      = "Gap Units"
)

// Summary is the forecast snapshot written to the reports database.
// Nil pointers leave the property unset.
type Summary struct {
	Title         string
	GeneratedAt   time.Time
	Pipeline      float64
	Predicted     float64
	Opportunities int
	Target        *float64
	Projected     *float64
	GapUnits      *float64
	// Lines become paragraph blocks in the page body on create.
	Lines []string
}

// PublishSummary upserts a page titled s.Title. An existing page has its
// properties updated; its body is left untouched.
func PublishSummary(ctx context.Context, c Client, s Summary) (*notionapi.Page, error) {
	if s.Title == "" {
		return nil, eris.New("notion: summary title is required")
	}

	existing, err := FindByTitle(ctx, c, s.Title)
	if err != nil {
		return nil, eris.Wrap(err, "notion: publish summary")
	}

	props := summaryProperties(s)
	if existing != nil {
		page, err := c.UpdateReport(ctx, string(existing.ID), props)
		if err != nil {
			return nil, eris.Wrap(err, "notion: publish summary")
		}
		zap.L().Info("notion: updated report page",
			zap.String("title", s.Title),
			zap.String("page_id", string(page.ID)),
		)
		return page, nil
	}

	page, err := c.CreateReport(ctx, props, summaryBlocks(s))
	if err != nil {
		return nil, eris.Wrap(err, "notion: publish summary")
	}
	zap.L().Info("notion: created report page",
		zap.String("title", s.Title),
		zap.String("page_id", string(page.ID)),
	)
	return page, nil
}

func summaryProperties(s Summary) notionapi.Properties {
	props := notionapi.Properties{
		TitleProperty: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{richText(s.Title)},
		},
		PropPipeline:      numberProperty(s.Pipeline),
		PropPredicted:     numberProperty(s.Predicted),
		PropOpportunities: numberProperty(float64(s.Opportunities)),
	}
	if !s.GeneratedAt.IsZero() {
		d := notionapi.Date(s.GeneratedAt)
		props[PropGenerated] = notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &d},
		}
	}
	if s.Target != nil {
		props[PropTarget] = numberProperty(*s.Target)
	}
	if s.Projected != nil {
		props[PropProjected] = numberProperty(*s.Projected)
	}
	if s.GapUnits != nil {
		props[PropGapUnits] = numberProperty(*s.GapUnits)
	}
	return props
}

func summaryBlocks(s Summary) []notionapi.Block {
	if len(s.Lines) == 0 {
		return nil
	}
	blocks := []notionapi.Block{
		notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeHeading2},
			Heading2:   notionapi.Heading{RichText: []notionapi.RichText{richText("Summary")}},
		},
	}
	for _, line := range s.Lines {
		blocks = append(blocks, notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
			Paragraph:  notionapi.Paragraph{RichText: []notionapi.RichText{richText(line)}},
		})
	}
	return blocks
}

func numberProperty(v float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: v}
}

func richText(s string) notionapi.RichText {
	return notionapi.RichText{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}
}
