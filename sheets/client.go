package sheets

import (
	"context"
	"errors"
	"fmt"
)

// Ошибки уровня хранилища. Сервисный слой маппит их на HTTP-статусы,
// RowStore оборачивает контекстом операции.
var (
	ErrAuth          = errors.New("store credentials invalid")
	ErrPermission    = errors.New("store access denied")
	ErrRateLimit     = errors.New("store rate limited")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrRowNotFound   = errors.New("row not found")
)

// SchemaError — отсутствие обязательной колонки в заголовке листа.
type SchemaError struct {
	Sheet  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q: required column %q is missing", e.Sheet, e.Column)
}

// Row — одна строка листа, ячейки в порядке колонок заголовка.
type Row []string

// Get возвращает ячейку по индексу колонки, "" для -1 и выхода за границы.
func (r Row) Get(idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return r[idx]
}

// Set записывает ячейку, при необходимости расширяя строку.
// Индекс -1 означает "колонки нет — пропустить", это не ошибка.
func (r Row) Set(idx int, value string) Row {
	if idx < 0 {
		return r
	}
	for len(r) <= idx {
		r = append(r, "")
	}
	r[idx] = value
	return r
}

// RowRange — диапазон строк листа, 1-based, включительно.
// End == 0 означает "до конца листа". Строка 1 — заголовок.
type RowRange struct {
	Start int
	End   int
}

// FullRange охватывает весь лист вместе с заголовком.
var FullRange = RowRange{Start: 1}

// HeaderRange — только строка заголовка.
var HeaderRange = RowRange{Start: 1, End: 1}

// DataRange — все строки данных (без заголовка).
var DataRange = RowRange{Start: 2}

// TabularStoreClient — контракт табличного хранилища. Подходит любой
// построчный бэкенд; контракт — имена колонок, позиции могут плавать.
type TabularStoreClient interface {
	ReadRange(ctx context.Context, sheet string, rng RowRange) ([]Row, error)
	WriteRange(ctx context.Context, sheet string, rng RowRange, rows []Row) error
	AppendRows(ctx context.Context, sheet string, rows []Row) error
	ClearRange(ctx context.Context, sheet string, rng RowRange) error
	DeleteRowRange(ctx context.Context, sheet string, start, end int) error
	EnsureSheetExists(ctx context.Context, sheet string, headers []string) error
}
