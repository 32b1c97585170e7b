package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/sheets"
)

var ErrTournamentNotFound = errors.New("tournament not found")

var tournamentIDColumns = []string{"id", "tournament_id"}

type TournamentRepository interface {
	List(ctx context.Context) ([]*models.Tournament, error)
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	Create(ctx context.Context, tournament *models.Tournament) error
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id string) error
}

type sheetTournamentRepository struct {
	store *sheets.RowStore
}

func NewSheetTournamentRepository(store *sheets.RowStore) TournamentRepository {
	return &sheetTournamentRepository{store: store}
}

func (r *sheetTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	rows, schema, err := r.store.ReadAll(ctx, SheetTournaments)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	tournaments := make([]*models.Tournament, 0, len(rows))
	for _, row := range rows {
		t := decodeTournament(schema, row)
		if t.ID == "" {
			continue
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, nil
}

func (r *sheetTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	tournaments, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrTournamentNotFound
}

func (r *sheetTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	schema, err := r.store.Schema(ctx, SheetTournaments)
	if err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	row := encodeTournament(schema, tournament, make(sheets.Row, len(schema.Headers())))
	if err := r.store.AppendRows(ctx, SheetTournaments, []sheets.Row{row}); err != nil {
		return fmt.Errorf("create tournament %s: %w", tournament.ID, err)
	}
	return nil
}

func (r *sheetTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	schema, err := r.store.Schema(ctx, SheetTournaments)
	if err != nil {
		return fmt.Errorf("update tournament %s: %w", tournament.ID, err)
	}
	keyColumn, err := resolveKeyColumn(schema, tournamentIDColumns...)
	if err != nil {
		return err
	}
	err = r.store.UpdateByKey(ctx, SheetTournaments, keyColumn, tournament.ID,
		func(schema *sheets.Schema, row sheets.Row) (sheets.Row, error) {
			return encodeTournament(schema, tournament, row), nil
		})
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return fmt.Errorf("tournament %s: %w", tournament.ID, ErrTournamentNotFound)
		}
		return fmt.Errorf("update tournament %s: %w", tournament.ID, err)
	}
	return nil
}

func (r *sheetTournamentRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.store.DeleteRows(ctx, SheetTournaments,
		func(schema *sheets.Schema, row sheets.Row) bool {
			return row.Get(schema.IndexOf(tournamentIDColumns...)) == id
		})
	if err != nil {
		return fmt.Errorf("delete tournament %s: %w", id, err)
	}
	if deleted == 0 {
		return fmt.Errorf("tournament %s: %w", id, ErrTournamentNotFound)
	}
	return nil
}

func decodeTournament(schema *sheets.Schema, row sheets.Row) *models.Tournament {
	return &models.Tournament{
		ID:                  row.Get(schema.IndexOf(tournamentIDColumns...)),
		Name:                row.Get(schema.IndexOf("tournament_name", "name")),
		Date:                row.Get(schema.IndexOf("date")),
		StartTime:           row.Get(schema.IndexOf("start_time")),
		Location:            parseStringPtr(row.Get(schema.IndexOf("location"))),
		Status:              models.TournamentStatus(row.Get(schema.IndexOf("status"))),
		MaxParticipants:     parseInt(row.Get(schema.IndexOf("max_participants"))),
		CurrentParticipants: parseInt(row.Get(schema.IndexOf("current_participants"))),
		Type:                row.Get(schema.IndexOf("tournament_type", "type")),
		Description:         parseStringPtr(row.Get(schema.IndexOf("description"))),
		CreatedAt:           parseTime(row.Get(schema.IndexOf("created_at"))),
		EndedAt:             parseTimePtr(row.Get(schema.IndexOf("ended_at"))),
	}
}

func encodeTournament(schema *sheets.Schema, t *models.Tournament, row sheets.Row) sheets.Row {
	row = row.Set(schema.IndexOf(tournamentIDColumns...), t.ID)
	row = row.Set(schema.IndexOf("tournament_name", "name"), t.Name)
	row = row.Set(schema.IndexOf("date"), t.Date)
	row = row.Set(schema.IndexOf("start_time"), t.StartTime)
	row = row.Set(schema.IndexOf("location"), derefString(t.Location))
	row = row.Set(schema.IndexOf("status"), string(t.Status))
	row = row.Set(schema.IndexOf("max_participants"), formatInt(t.MaxParticipants))
	row = row.Set(schema.IndexOf("current_participants"), formatInt(t.CurrentParticipants))
	row = row.Set(schema.IndexOf("tournament_type", "type"), t.Type)
	row = row.Set(schema.IndexOf("description"), derefString(t.Description))
	row = row.Set(schema.IndexOf("created_at"), formatTime(t.CreatedAt))
	row = row.Set(schema.IndexOf("ended_at"), formatTimePtr(t.EndedAt))
	return row
}
