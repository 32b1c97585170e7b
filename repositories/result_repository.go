package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/sheets"
)

var ErrResultNotFound = errors.New("match result not found")

var resultIDColumns = []string{"result_id", "id"}

type ResultRepository interface {
	GetByID(ctx context.Context, id string) (*models.MatchResult, error)
	ListByMatch(ctx context.Context, matchID string) ([]*models.MatchResult, error)
	Create(ctx context.Context, result *models.MatchResult) error
	Update(ctx context.Context, result *models.MatchResult) error
}

type sheetResultRepository struct {
	store *sheets.RowStore
}

func NewSheetResultRepository(store *sheets.RowStore) ResultRepository {
	return &sheetResultRepository{store: store}
}

func (r *sheetResultRepository) GetByID(ctx context.Context, id string) (*models.MatchResult, error) {
	results, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		if result.ID == id {
			return result, nil
		}
	}
	return nil, ErrResultNotFound
}

func (r *sheetResultRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.MatchResult, error) {
	results, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*models.MatchResult, 0)
	for _, result := range results {
		if result.MatchID == matchID {
			filtered = append(filtered, result)
		}
	}
	return filtered, nil
}

func (r *sheetResultRepository) list(ctx context.Context) ([]*models.MatchResult, error) {
	rows, schema, err := r.store.ReadAll(ctx, SheetResults)
	if err != nil {
		return nil, fmt.Errorf("list match results: %w", err)
	}
	results := make([]*models.MatchResult, 0, len(rows))
	for _, row := range rows {
		result := decodeResult(schema, row)
		if result.ID == "" {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *sheetResultRepository) Create(ctx context.Context, result *models.MatchResult) error {
	schema, err := r.store.Schema(ctx, SheetResults)
	if err != nil {
		return fmt.Errorf("create match result: %w", err)
	}
	row := encodeResult(schema, result, make(sheets.Row, len(schema.Headers())))
	if err := r.store.AppendRows(ctx, SheetResults, []sheets.Row{row}); err != nil {
		return fmt.Errorf("create match result %s: %w", result.ID, err)
	}
	return nil
}

func (r *sheetResultRepository) Update(ctx context.Context, result *models.MatchResult) error {
	schema, err := r.store.Schema(ctx, SheetResults)
	if err != nil {
		return fmt.Errorf("update match result %s: %w", result.ID, err)
	}
	keyColumn, err := resolveKeyColumn(schema, resultIDColumns...)
	if err != nil {
		return err
	}
	err = r.store.UpdateByKey(ctx, SheetResults, keyColumn, result.ID,
		func(schema *sheets.Schema, row sheets.Row) (sheets.Row, error) {
			return encodeResult(schema, result, row), nil
		})
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return fmt.Errorf("match result %s: %w", result.ID, ErrResultNotFound)
		}
		return fmt.Errorf("update match result %s: %w", result.ID, err)
	}
	return nil
}

func decodeResult(schema *sheets.Schema, row sheets.Row) *models.MatchResult {
	return &models.MatchResult{
		ID:         row.Get(schema.IndexOf(resultIDColumns...)),
		MatchID:    row.Get(schema.IndexOf("match_id")),
		PlayerID:   row.Get(schema.IndexOf("player_id")),
		OpponentID: row.Get(schema.IndexOf("opponent_id")),
		Result:     models.ReportedOutcome(row.Get(schema.IndexOf("result"))),
		Status:     models.ResultStatus(row.Get(schema.IndexOf("status"))),
		ReportedAt: parseTime(row.Get(schema.IndexOf("reported_at"))),
		ApprovedBy: parseStringPtr(row.Get(schema.IndexOf("approved_by"))),
		ApprovedAt: parseTimePtr(row.Get(schema.IndexOf("approved_at"))),
	}
}

func encodeResult(schema *sheets.Schema, result *models.MatchResult, row sheets.Row) sheets.Row {
	row = row.Set(schema.IndexOf(resultIDColumns...), result.ID)
	row = row.Set(schema.IndexOf("match_id"), result.MatchID)
	row = row.Set(schema.IndexOf("player_id"), result.PlayerID)
	row = row.Set(schema.IndexOf("opponent_id"), result.OpponentID)
	row = row.Set(schema.IndexOf("result"), string(result.Result))
	row = row.Set(schema.IndexOf("status"), string(result.Status))
	row = row.Set(schema.IndexOf("reported_at"), formatTime(result.ReportedAt))
	row = row.Set(schema.IndexOf("approved_by"), derefString(result.ApprovedBy))
	row = row.Set(schema.IndexOf("approved_at"), formatTimePtr(result.ApprovedAt))
	return row
}
