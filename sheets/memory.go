package sheets

import (
	"context"
	"fmt"
	"sync"
)

// memoryClient — табличное хранилище в памяти для тестов и локального
// запуска. Семантика диапазонов совпадает с postgresClient.
type memoryClient struct {
	mu     sync.RWMutex
	sheets map[string][]Row
}

func NewMemoryClient() TabularStoreClient {
	return &memoryClient{sheets: make(map[string][]Row)}
}

func (c *memoryClient) ReadRange(_ context.Context, sheet string, rng RowRange) ([]Row, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, ok := c.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", sheet, ErrSheetNotFound)
	}

	start, end := clampRange(rng, len(rows))
	if start > end {
		return []Row{}, nil
	}
	out := make([]Row, 0, end-start+1)
	for _, row := range rows[start-1 : end] {
		out = append(out, cloneRow(row))
	}
	return out, nil
}

func (c *memoryClient) WriteRange(_ context.Context, sheet string, rng RowRange, data []Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %q: %w", sheet, ErrSheetNotFound)
	}

	start := normalizeStart(rng)
	for len(rows) < start-1 {
		rows = append(rows, Row{})
	}
	for i, row := range data {
		idx := start - 1 + i
		if idx < len(rows) {
			rows[idx] = cloneRow(row)
		} else {
			rows = append(rows, cloneRow(row))
		}
	}
	if rng.End == 0 && start-1+len(data) < len(rows) {
		rows = rows[:start-1+len(data)]
	}
	c.sheets[sheet] = rows
	return nil
}

func (c *memoryClient) AppendRows(_ context.Context, sheet string, data []Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %q: %w", sheet, ErrSheetNotFound)
	}
	for _, row := range data {
		rows = append(rows, cloneRow(row))
	}
	c.sheets[sheet] = rows
	return nil
}

func (c *memoryClient) ClearRange(_ context.Context, sheet string, rng RowRange) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %q: %w", sheet, ErrSheetNotFound)
	}
	start, end := clampRange(rng, len(rows))
	if start > end {
		return nil
	}
	c.sheets[sheet] = append(rows[:start-1], rows[end:]...)
	return nil
}

func (c *memoryClient) DeleteRowRange(_ context.Context, sheet string, start, end int) error {
	if start < 2 || end < start {
		return fmt.Errorf("invalid row range %d..%d for sheet %q", start, end, sheet)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %q: %w", sheet, ErrSheetNotFound)
	}
	if start > len(rows) {
		return fmt.Errorf("sheet %q rows %d..%d: %w", sheet, start, end, ErrRowNotFound)
	}
	if end > len(rows) {
		end = len(rows)
	}
	c.sheets[sheet] = append(rows[:start-1], rows[end:]...)
	return nil
}

func (c *memoryClient) EnsureSheetExists(_ context.Context, sheet string, headers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sheets[sheet]; ok {
		return nil
	}
	c.sheets[sheet] = []Row{cloneRow(Row(headers))}
	return nil
}

func clampRange(rng RowRange, total int) (start, end int) {
	start = normalizeStart(rng)
	end = rng.End
	if end == 0 || end > total {
		end = total
	}
	return start, end
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	copy(out, row)
	return out
}
