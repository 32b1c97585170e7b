package sheets

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RowStore, TabularStoreClient) {
	t.Helper()
	client := NewMemoryClient()
	require.NoError(t, client.EnsureSheetExists(context.Background(), "Matches", []string{"match_id", "status", "winner_id"}))
	return NewRowStore(client, NewSchemaResolver(client)), client
}

func TestAppendAndReadAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRows(ctx, "Matches", []Row{
		{"m1", "scheduled", ""},
		{"m2", "approved", "p1"},
	}))

	rows, schema, err := store.ReadAll(ctx, "Matches")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "m2", rows[1].Get(schema.IndexOf("match_id")))
	assert.Equal(t, "p1", rows[1].Get(schema.IndexOf("winner_id")))
}

func TestUpdateByKey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRows(ctx, "Matches", []Row{
		{"m1", "scheduled", ""},
		{"m2", "scheduled", ""},
	}))

	err := store.UpdateByKey(ctx, "Matches", "match_id", "m2", func(schema *Schema, row Row) (Row, error) {
		return row.Set(schema.IndexOf("status"), "in_progress"), nil
	})
	require.NoError(t, err)

	rows, schema, err := store.ReadAll(ctx, "Matches")
	require.NoError(t, err)
	assert.Equal(t, "scheduled", rows[0].Get(schema.IndexOf("status")))
	assert.Equal(t, "in_progress", rows[1].Get(schema.IndexOf("status")))
}

// Мьютекс листа сериализует полный цикл read-modify-write: при
// конкурентных записях ни одно обновление не теряется.
func TestUpdateByKeyConcurrentWriters(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRows(ctx, "Matches", []Row{
		{"m1", "0", ""},
		{"m2", "0", ""},
	}))

	const writersPerRow = 8
	var wg sync.WaitGroup
	errs := make(chan error, 2*writersPerRow)
	for i := 0; i < 2*writersPerRow; i++ {
		key := "m1"
		if i%2 == 1 {
			key = "m2"
		}
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			errs <- store.UpdateByKey(ctx, "Matches", "match_id", key, func(schema *Schema, row Row) (Row, error) {
				n, err := strconv.Atoi(row.Get(schema.IndexOf("status")))
				if err != nil {
					return nil, err
				}
				return row.Set(schema.IndexOf("status"), strconv.Itoa(n+1)), nil
			})
		}(key)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, schema, err := store.ReadAll(ctx, "Matches")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, strconv.Itoa(writersPerRow), rows[0].Get(schema.IndexOf("status")))
	assert.Equal(t, strconv.Itoa(writersPerRow), rows[1].Get(schema.IndexOf("status")))
}

func TestUpdateByKeyNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateByKey(ctx, "Matches", "match_id", "missing", func(schema *Schema, row Row) (Row, error) {
		return row, nil
	})
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestUpdateByKeyMissingKeyColumn(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateByKey(ctx, "Matches", "no_such_column", "x", func(schema *Schema, row Row) (Row, error) {
		return row, nil
	})
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestUpdateAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRows(ctx, "Matches", []Row{
		{"m1", "scheduled", ""},
		{"m2", "approved", "p1"},
		{"m3", "scheduled", ""},
	}))

	changed, err := store.UpdateAll(ctx, "Matches", func(schema *Schema, row Row) (Row, bool, error) {
		if row.Get(schema.IndexOf("status")) != "scheduled" {
			return row, false, nil
		}
		return row.Set(schema.IndexOf("status"), "cancelled"), true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	rows, schema, err := store.ReadAll(ctx, "Matches")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", rows[0].Get(schema.IndexOf("status")))
	assert.Equal(t, "approved", rows[1].Get(schema.IndexOf("status")))
	assert.Equal(t, "cancelled", rows[2].Get(schema.IndexOf("status")))
}

func TestDeleteRows(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRows(ctx, "Matches", []Row{
		{"m1", "scheduled", ""},
		{"m2", "approved", "p1"},
		{"m3", "scheduled", ""},
	}))

	deleted, err := store.DeleteRows(ctx, "Matches", func(schema *Schema, row Row) bool {
		return row.Get(schema.IndexOf("status")) == "scheduled"
	})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	rows, schema, err := store.ReadAll(ctx, "Matches")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "m2", rows[0].Get(schema.IndexOf("match_id")))
}

func TestClearKeepsHeader(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRows(ctx, "Matches", []Row{{"m1", "scheduled", ""}}))
	require.NoError(t, store.Clear(ctx, "Matches"))

	rows, _, err := store.ReadAll(ctx, "Matches")
	require.NoError(t, err)
	assert.Empty(t, rows)

	header, err := client.ReadRange(ctx, "Matches", HeaderRange)
	require.NoError(t, err)
	require.Len(t, header, 1)
	assert.Equal(t, "match_id", header[0].Get(0))
}

// Запись диапазона с открытым концом должна обрезать хвост листа.
func TestWriteRangeOpenEndTruncates(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRows(ctx, "Matches", []Row{
		{"m1", "scheduled", ""},
		{"m2", "scheduled", ""},
		{"m3", "scheduled", ""},
	}))

	require.NoError(t, client.WriteRange(ctx, "Matches", DataRange, []Row{
		{"m1", "approved", "p1"},
	}))

	rows, _, err := store.ReadAll(ctx, "Matches")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
