package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type modelFixture struct {
	SourceID int64  `db:"source_id"`
	Name     string `db:"competition_name"`
	internal string `db:"ignored"`
	Skipped  string `db:"-"`
	Untagged string
}

func TestInsertModel(t *testing.T) {
	query, args, err := InsertModel("transferroom_competitions", modelFixture{
		SourceID: 42,
		Name:     "NB I",
		internal: "x",
		Skipped:  "y",
		Untagged: "z",
	}, "")
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO transferroom_competitions (source_id, competition_name) VALUES ($1, $2)", query)
	require.Equal(t, []any{int64(42), "NB I"}, args)
}

func TestUpdateModel(t *testing.T) {
	query, args, err := UpdateModel("transferroom_competitions", &modelFixture{
		SourceID: 42,
		Name:     "NB I",
	}, Eq("source_id", int64(42)))
	require.NoError(t, err)
	require.Equal(t, "UPDATE transferroom_competitions SET source_id = $1, competition_name = $2 WHERE source_id = $3", query)
	require.Equal(t, []any{int64(42), "NB I", int64(42)}, args)
}

func TestModelColumns(t *testing.T) {
	cols, err := ModelColumns(modelFixture{})
	require.NoError(t, err)
	require.Equal(t, []string{"source_id", "competition_name"}, cols)
}

func TestModelValidation(t *testing.T) {
	_, _, err := InsertModel("t", (*modelFixture)(nil), "")
	require.Error(t, err)

	_, _, err = InsertModel("t", "not a struct", "")
	require.Error(t, err)

	_, err = ModelColumns(struct{ A string }{})
	require.Error(t, err)
}
