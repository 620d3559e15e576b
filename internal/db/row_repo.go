package db

import (
	"context"

	"transitinsight/internal/types"
)

// RowRepository reads area observations. Each observation is stored as a
// pair of JSONB objects so that new dimensions and measures need no
// migration:
//
//	CREATE TABLE area_observations (
//	    dataset    TEXT    NOT NULL,
//	    position   INTEGER NOT NULL,
//	    dimensions JSONB   NOT NULL DEFAULT '{}',
//	    measures   JSONB   NOT NULL DEFAULT '{}',
//	    PRIMARY KEY (dataset, position)
//	);
type RowRepository struct {
	db DBTX
}

// NewRowRepository creates a new RowRepository backed by the given
// database connection (pool or transaction).
func NewRowRepository(db DBTX) *RowRepository {
	return &RowRepository{db: db}
}

// Rows returns every observation of the dataset in stored order. A dataset
// with no observations is reported as not found.
func (r *RowRepository) Rows(ctx context.Context, dataset string) ([]types.Row, error) {
	rows, err := r.db.Query(ctx, `
		SELECT dimensions, measures
		FROM area_observations
		WHERE dataset = $1
		ORDER BY position ASC`, dataset)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query observations", err)
	}
	defer rows.Close()

	var results []types.Row
	for rows.Next() {
		var row types.Row
		if err := rows.Scan(&row.Dimensions, &row.Measures); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan observation row", err)
		}
		if row.Dimensions == nil {
			row.Dimensions = map[string]string{}
		}
		if row.Measures == nil {
			row.Measures = map[string]float64{}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating observation rows", err)
	}

	if len(results) == 0 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundDataset,
			"dataset has no observations", nil, map[string]any{"dataset": dataset})
	}
	return results, nil
}

// Datasets lists the dataset names with their observation counts.
func (r *RowRepository) Datasets(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT dataset, COUNT(*)
		FROM area_observations
		GROUP BY dataset`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list datasets", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan dataset row", err)
		}
		out[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating dataset rows", err)
	}
	return out, nil
}
