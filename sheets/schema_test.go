package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSheet(t *testing.T, headers []string) (TabularStoreClient, *SchemaResolver) {
	t.Helper()
	client := NewMemoryClient()
	require.NoError(t, client.EnsureSheetExists(context.Background(), "Players", headers))
	return client, NewSchemaResolver(client)
}

func TestResolveByHeaderNames(t *testing.T) {
	_, resolver := newTestSheet(t, []string{"ID", " Nickname ", "current_rating"})

	schema, err := resolver.Resolve(context.Background(), "Players")
	require.NoError(t, err)

	// Имена нормализуются: регистр и пробелы не значимы.
	assert.Equal(t, 0, schema.IndexOf("id"))
	assert.Equal(t, 1, schema.IndexOf("nickname"))
	assert.Equal(t, 2, schema.IndexOf("current_rating"))
	assert.Equal(t, -1, schema.IndexOf("missing"))
}

func TestIndexOfCandidates(t *testing.T) {
	_, resolver := newTestSheet(t, []string{"player_id", "rating"})
	schema, err := resolver.Resolve(context.Background(), "Players")
	require.NoError(t, err)

	// Одно логическое поле может называться по-разному в разных листах.
	assert.Equal(t, 0, schema.IndexOf("id", "player_id"))
	assert.Equal(t, 1, schema.IndexOf("current_rating", "rating"))
}

func TestDuplicateColumnFirstWins(t *testing.T) {
	_, resolver := newTestSheet(t, []string{"id", "rating", "rating"})
	schema, err := resolver.Resolve(context.Background(), "Players")
	require.NoError(t, err)
	assert.Equal(t, 1, schema.IndexOf("rating"))
}

func TestRequireMissingColumn(t *testing.T) {
	_, resolver := newTestSheet(t, []string{"id"})
	schema, err := resolver.Resolve(context.Background(), "Players")
	require.NoError(t, err)

	_, err = schema.Require("rating")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Players", schemaErr.Sheet)
	assert.Equal(t, "rating", schemaErr.Column)
}

func TestResolveUnknownSheet(t *testing.T) {
	client := NewMemoryClient()
	resolver := NewSchemaResolver(client)
	_, err := resolver.Resolve(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestValidate(t *testing.T) {
	_, resolver := newTestSheet(t, []string{"id", "nickname"})

	require.NoError(t, resolver.Validate(context.Background(), "Players", "id", "nickname"))

	err := resolver.Validate(context.Background(), "Players", "id", "rating")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "rating", schemaErr.Column)
}

func TestResolverCachesAndInvalidates(t *testing.T) {
	client, resolver := newTestSheet(t, []string{"id"})
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "Players")
	require.NoError(t, err)

	// Заголовок меняется, но резолвер отдаёт кэш до Invalidate.
	require.NoError(t, client.WriteRange(ctx, "Players", HeaderRange, []Row{{"id", "nickname"}}))
	cached, err := resolver.Resolve(ctx, "Players")
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	resolver.Invalidate("Players")
	fresh, err := resolver.Resolve(ctx, "Players")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.IndexOf("nickname"))
}

func TestRowGetSet(t *testing.T) {
	row := Row{"a", "b"}
	assert.Equal(t, "a", row.Get(0))
	assert.Equal(t, "", row.Get(5))
	assert.Equal(t, "", row.Get(-1))

	row = row.Set(4, "e")
	assert.Equal(t, Row{"a", "b", "", "", "e"}, row)

	// -1 — "колонки нет", запись пропускается.
	same := row.Set(-1, "x")
	assert.Equal(t, row, same)
}
