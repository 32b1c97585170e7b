package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Schema — отображение имён колонок листа на индексы, построенное по
// строке заголовка. Позиции колонок — не контракт, имена — контракт.
type Schema struct {
	sheet   string
	headers []string
	index   map[string]int
}

func (s *Schema) Sheet() string { return s.sheet }

func (s *Schema) Headers() []string {
	out := make([]string, len(s.headers))
	copy(out, s.headers)
	return out
}

// IndexOf ищет первую подходящую колонку из списка кандидатов
// (например, "id" и "player_id" для одного логического поля).
// Возвращает -1, если ни одна не найдена, и никогда не паникует:
// писатели обязаны трактовать -1 как "колонки нет — пропустить".
func (s *Schema) IndexOf(candidates ...string) int {
	for _, name := range candidates {
		if idx, ok := s.index[normalizeHeader(name)]; ok {
			return idx
		}
	}
	return -1
}

// Require возвращает индекс обязательной колонки или SchemaError.
func (s *Schema) Require(candidates ...string) (int, error) {
	if idx := s.IndexOf(candidates...); idx >= 0 {
		return idx, nil
	}
	return -1, &SchemaError{Sheet: s.sheet, Column: candidates[0]}
}

// SchemaResolver читает заголовки листов и кэширует разобранные схемы.
type SchemaResolver struct {
	client TabularStoreClient

	mu      sync.RWMutex
	schemas map[string]*Schema
}

func NewSchemaResolver(client TabularStoreClient) *SchemaResolver {
	return &SchemaResolver{
		client:  client,
		schemas: make(map[string]*Schema),
	}
}

// Resolve возвращает схему листа, читая строку заголовка при первом
// обращении.
func (r *SchemaResolver) Resolve(ctx context.Context, sheet string) (*Schema, error) {
	r.mu.RLock()
	schema, ok := r.schemas[sheet]
	r.mu.RUnlock()
	if ok {
		return schema, nil
	}

	rows, err := r.client.ReadRange(ctx, sheet, HeaderRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read header of sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row: %w", sheet, ErrSheetNotFound)
	}

	schema = buildSchema(sheet, rows[0])

	r.mu.Lock()
	r.schemas[sheet] = schema
	r.mu.Unlock()
	return schema, nil
}

// Validate проверяет, что обязательные колонки присутствуют. Вызывается
// один раз на старте, чтобы дрейф схемы падал сразу, а не возвращал -1
// где-то глубоко в бизнес-логике.
func (r *SchemaResolver) Validate(ctx context.Context, sheet string, required ...string) error {
	schema, err := r.Resolve(ctx, sheet)
	if err != nil {
		return err
	}
	for _, column := range required {
		if schema.IndexOf(column) < 0 {
			return &SchemaError{Sheet: sheet, Column: column}
		}
	}
	return nil
}

// Invalidate сбрасывает закэшированную схему листа (после пересоздания
// листа или изменения заголовка).
func (r *SchemaResolver) Invalidate(sheet string) {
	r.mu.Lock()
	delete(r.schemas, sheet)
	r.mu.Unlock()
}

func buildSchema(sheet string, header Row) *Schema {
	index := make(map[string]int, len(header))
	headers := make([]string, len(header))
	for i, name := range header {
		headers[i] = name
		key := normalizeHeader(name)
		if key == "" {
			continue
		}
		// Первая колонка с данным именем выигрывает.
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return &Schema{sheet: sheet, headers: headers, index: index}
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
