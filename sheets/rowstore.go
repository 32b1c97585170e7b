package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const defaultRetryBackoff = 2 * time.Second

// RowStore — generic CRUD поверх именованного листа. Обновление строки
// устроено как чтение всего диапазона данных, правка и запись диапазона
// целиком обратно — у хранилища нет построчных блокировок. Внутри одного
// процесса окно read-modify-write сериализуется мьютексом листа; между
// процессами потерянное обновление по-прежнему возможно, это принятый
// риск для низкой конкуренции.
type RowStore struct {
	client   TabularStoreClient
	resolver *SchemaResolver
	backoff  time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRowStore(client TabularStoreClient, resolver *SchemaResolver) *RowStore {
	return &RowStore{
		client:   client,
		resolver: resolver,
		backoff:  defaultRetryBackoff,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *RowStore) Schema(ctx context.Context, sheet string) (*Schema, error) {
	return s.resolver.Resolve(ctx, sheet)
}

// ReadAll возвращает все строки данных листа (без заголовка) и его схему.
func (s *RowStore) ReadAll(ctx context.Context, sheet string) ([]Row, *Schema, error) {
	schema, err := s.resolver.Resolve(ctx, sheet)
	if err != nil {
		return nil, nil, err
	}
	var rows []Row
	err = s.withRetry(ctx, func() error {
		var readErr error
		rows, readErr = s.client.ReadRange(ctx, sheet, DataRange)
		return readErr
	})
	if err != nil {
		return nil, nil, fmt.Errorf("read all %q: %w", sheet, err)
	}
	return rows, schema, nil
}

func (s *RowStore) AppendRows(ctx context.Context, sheet string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.withRetry(ctx, func() error {
		return s.client.AppendRows(ctx, sheet, rows)
	})
	if err != nil {
		return fmt.Errorf("append to %q: %w", sheet, err)
	}
	return nil
}

// UpdateByKey находит строку по значению ключевой колонки, применяет
// мутатор и записывает диапазон данных целиком обратно. ErrRowNotFound,
// если ключ не найден; SchemaError, если ключевой колонки нет.
func (s *RowStore) UpdateByKey(ctx context.Context, sheet, keyColumn, keyValue string, mutate func(*Schema, Row) (Row, error)) error {
	unlock := s.lockSheet(sheet)
	defer unlock()

	rows, schema, err := s.ReadAll(ctx, sheet)
	if err != nil {
		return err
	}
	keyIdx, err := schema.Require(keyColumn)
	if err != nil {
		return err
	}

	found := false
	for i, row := range rows {
		if row.Get(keyIdx) != keyValue {
			continue
		}
		updated, mutErr := mutate(schema, row)
		if mutErr != nil {
			return fmt.Errorf("update %q key %s=%s: %w", sheet, keyColumn, keyValue, mutErr)
		}
		rows[i] = updated
		found = true
		break
	}
	if !found {
		return fmt.Errorf("update %q key %s=%s: %w", sheet, keyColumn, keyValue, ErrRowNotFound)
	}

	err = s.withRetry(ctx, func() error {
		return s.client.WriteRange(ctx, sheet, DataRange, rows)
	})
	if err != nil {
		return fmt.Errorf("write back %q: %w", sheet, err)
	}
	return nil
}

// UpdateAll применяет мутатор к каждой строке данных и записывает
// диапазон обратно. Возвращает число изменённых строк. Мутатор может
// вернуть строку без изменений.
func (s *RowStore) UpdateAll(ctx context.Context, sheet string, mutate func(*Schema, Row) (Row, bool, error)) (int, error) {
	unlock := s.lockSheet(sheet)
	defer unlock()

	rows, schema, err := s.ReadAll(ctx, sheet)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, row := range rows {
		updated, didChange, mutErr := mutate(schema, row)
		if mutErr != nil {
			return 0, fmt.Errorf("update all %q row %d: %w", sheet, i+2, mutErr)
		}
		if didChange {
			rows[i] = updated
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	err = s.withRetry(ctx, func() error {
		return s.client.WriteRange(ctx, sheet, DataRange, rows)
	})
	if err != nil {
		return 0, fmt.Errorf("write back %q: %w", sheet, err)
	}
	return changed, nil
}

// DeleteRows удаляет строки данных, для которых предикат вернул true.
// Возвращает число удалённых строк.
func (s *RowStore) DeleteRows(ctx context.Context, sheet string, predicate func(*Schema, Row) bool) (int, error) {
	unlock := s.lockSheet(sheet)
	defer unlock()

	rows, schema, err := s.ReadAll(ctx, sheet)
	if err != nil {
		return 0, err
	}

	kept := make([]Row, 0, len(rows))
	deleted := 0
	for _, row := range rows {
		if predicate(schema, row) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	if deleted == 0 {
		return 0, nil
	}

	err = s.withRetry(ctx, func() error {
		return s.client.WriteRange(ctx, sheet, DataRange, kept)
	})
	if err != nil {
		return 0, fmt.Errorf("delete from %q: %w", sheet, err)
	}
	return deleted, nil
}

// Clear стирает все строки данных листа, заголовок остаётся.
func (s *RowStore) Clear(ctx context.Context, sheet string) error {
	unlock := s.lockSheet(sheet)
	defer unlock()

	err := s.withRetry(ctx, func() error {
		return s.client.ClearRange(ctx, sheet, DataRange)
	})
	if err != nil {
		return fmt.Errorf("clear %q: %w", sheet, err)
	}
	return nil
}

func (s *RowStore) lockSheet(sheet string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sheet]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sheet] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// withRetry повторяет вызов один раз с паузой при троттлинге хранилища,
// дальше ошибка всплывает наверх.
func (s *RowStore) withRetry(ctx context.Context, call func() error) error {
	err := call()
	if err == nil || !errors.Is(err, ErrRateLimit) {
		return err
	}
	select {
	case <-time.After(s.backoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return call()
}
