package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/storage"
)

// ExportService сериализует годовые снапшоты в CSV и выгружает их в
// объектное хранилище. Реализует ArchiveExporter.
type ExportService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewExportService(uploader storage.FileUploader, logger *slog.Logger) *ExportService {
	return &ExportService{uploader: uploader, logger: logger}
}

func (s *ExportService) ExportYearlySnapshot(ctx context.Context, year int, entries []models.YearlyArchive) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"year", "player_id", "nickname", "final_rating", "final_rank", "badges", "wins", "losses"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			strconv.Itoa(e.Year),
			e.PlayerID,
			e.Nickname,
			strconv.Itoa(e.FinalRating),
			strconv.Itoa(e.FinalRank),
			e.Badges,
			strconv.Itoa(e.Wins),
			strconv.Itoa(e.Losses),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	key := fmt.Sprintf("archives/yearly/%d.csv", year)
	result, err := s.uploader.Upload(ctx, key, "text/csv", &buf)
	if err != nil {
		return "", fmt.Errorf("upload yearly snapshot: %w", err)
	}
	s.logger.InfoContext(ctx, "yearly snapshot exported",
		slog.Int("year", year),
		slog.String("key", result.Key),
		slog.String("location", result.Location))
	return result.Location, nil
}
