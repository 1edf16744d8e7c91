package services

import (
	"context"
	"testing"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountsParseText(t *testing.T) {
	service := NewAccountsService(utils.NewDevelopmentLogger())
	ctx := context.Background()

	t.Run("TabSeparated", func(t *testing.T) {
		entries, skipped := service.ParseText(ctx, "10001\tetu1@univ.fr\n70002\tetu2@univ.fr")
		assert.Equal(t, 0, skipped)
		require.Len(t, entries, 2)
		assert.Equal(t, models.AccountEntry{Anonymat: "10001", Email: "etu1@univ.fr"}, entries[0])
	})

	t.Run("SemicolonAndCommaSeparated", func(t *testing.T) {
		entries, _ := service.ParseText(ctx, "10001;etu1@univ.fr\n70002,etu2@univ.fr")
		require.Len(t, entries, 2)
		assert.Equal(t, "etu2@univ.fr", entries[1].Email)
	})

	t.Run("SpaceRunsSeparate", func(t *testing.T) {
		entries, _ := service.ParseText(ctx, "10001    etu1@univ.fr")
		require.Len(t, entries, 1)
		assert.Equal(t, "10001", entries[0].Anonymat)
	})

	t.Run("InvalidRowsSkippedAndCounted", func(t *testing.T) {
		text := "10001\tetu1@univ.fr\n" +
			"justonefield\n" +
			"10002\tnot-an-email\n" +
			"\n" +
			"10003\tetu3@univ.fr"
		entries, skipped := service.ParseText(ctx, text)
		assert.Len(t, entries, 2)
		assert.Equal(t, 2, skipped)
	})
}

func TestAccountsParseSpreadsheet(t *testing.T) {
	service := NewAccountsService(utils.NewDevelopmentLogger())

	reader := buildWorkbook(t, [][]interface{}{
		{"10001", "etu1@univ.fr"},
		{"10002", "pas un email"},
		{"10003", "etu3@univ.fr"},
	})

	entries, skipped, err := service.ParseSpreadsheet(context.Background(), reader, "emails.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, entries, 2)
	assert.Equal(t, "10003", entries[1].Anonymat)
}

func TestBuildCSV(t *testing.T) {
	service := NewAccountsService(utils.NewDevelopmentLogger())

	entries := []models.AccountEntry{
		{Anonymat: "10001", Email: "etu1@univ.fr"},
		{Anonymat: "70002", Email: "etu2@univ.fr"},
	}

	t.Run("WithoutCohort", func(t *testing.T) {
		data, err := service.BuildCSV(entries, "")
		require.NoError(t, err)
		assert.Equal(t,
			"username,email,auth,firstname,lastname\n"+
				"10001,etu1@univ.fr,email,Etudiant,10001\n"+
				"70002,etu2@univ.fr,email,Etudiant,70002\n",
			string(data))
	})

	t.Run("WithCohort", func(t *testing.T) {
		data, err := service.BuildCSV(entries, "PACES-2026")
		require.NoError(t, err)
		assert.Equal(t,
			"username,email,auth,firstname,lastname,cohort1\n"+
				"10001,etu1@univ.fr,email,Etudiant,10001,PACES-2026\n"+
				"70002,etu2@univ.fr,email,Etudiant,70002,PACES-2026\n",
			string(data))
	})

	t.Run("FieldsWithCommasQuoted", func(t *testing.T) {
		data, err := service.BuildCSV([]models.AccountEntry{
			{Anonymat: "a,b", Email: "x@y.fr"},
		}, "")
		require.NoError(t, err)
		assert.Contains(t, string(data), `"a,b",x@y.fr,email,Etudiant,"a,b"`)
	})
}
