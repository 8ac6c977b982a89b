package service

import (
	"context"

	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

// Unbounded asks Aggregate to keep every record in the preview.
const Unbounded = -1

// Aggregator folds per-resource outcomes into one pipeline result.
type Aggregator struct {
	logger logger.Logger
}

// NewAggregator creates an Aggregator logging skipped resources to l.
func NewAggregator(l logger.Logger) *Aggregator {
	if l == nil {
		l = logger.Named("aggregate")
	}
	return &Aggregator{logger: l}
}

// Aggregate flattens successful outcomes in dispatch order. The preview holds the first
// previewLimit records (all of them when previewLimit is Unbounded). Failures are logged and counted.
func (a *Aggregator) Aggregate(ctx context.Context, outcomes []model.Outcome, previewLimit int) model.PipelineResult {
	res := model.PipelineResult{
		Resources:      len(outcomes),
		UploadedSinks:  []string{},
		PreviewRecords: []model.Row{},
	}
	for _, o := range outcomes {
		if o.Failed() {
			res.Failed++
			a.logger.Warn(ctx, "resource skipped",
				logger.String("resource_id", o.Descriptor.ID),
				logger.String("url", o.Descriptor.URL),
				logger.Error(o.Err),
			)
			continue
		}
		for _, r := range o.Rows {
			if previewLimit < 0 || len(res.PreviewRecords) < previewLimit {
				res.PreviewRecords = append(res.PreviewRecords, r)
			}
		}
		res.TotalRecordCount += len(o.Rows)
		if o.SinkURI != "" {
			res.UploadedSinks = append(res.UploadedSinks, o.SinkURI)
		}
	}
	return res
}
