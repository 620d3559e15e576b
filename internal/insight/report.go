package insight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"transitinsight/internal/types"
)

// ReportConcurrencyLimit bounds concurrent sections in one report.
const ReportConcurrencyLimit = 4

// Report runs several sections over the same rows and filter concurrently.
// Each section gets its own context and bundle; payloads come back in the
// order of ids. The first wiring error cancels the rest.
func (e *Engine) Report(ctx context.Context, rows []types.Row, ids []string, filters types.Filters) ([]*NarrativePayload, error) {
	for _, id := range ids {
		if _, ok := e.sections[id]; !ok {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundSection,
				"section not found", ErrUnknownSection, map[string]any{"section": id})
		}
	}

	out := make([]*NarrativePayload, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ReportConcurrencyLimit)

	for i, id := range ids {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			p, err := e.RunSection(rows, id, filters)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
