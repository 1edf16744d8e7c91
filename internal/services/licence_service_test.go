package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func licenceWorkbook(t *testing.T, header string, numeros ...interface{}) *bytes.Reader {
	t.Helper()

	rows := [][]interface{}{{"Nom", header}}
	for _, n := range numeros {
		rows = append(rows, []interface{}{"x", n})
	}
	return buildWorkbook(t, rows)
}

func TestPartition(t *testing.T) {
	service := NewLicenceService(utils.NewDevelopmentLogger())
	ctx := context.Background()

	t.Run("BucketsByFirstDigit", func(t *testing.T) {
		files := []LicenceFile{
			{Name: "L1SPS.xlsx", Reader: licenceWorkbook(t, "Numéro client", 10001, 70002, 90003, 40004)},
		}

		partition, err := service.Partition(ctx, files)
		require.NoError(t, err)

		require.Len(t, partition.Bucket17, 2)
		assert.Equal(t, 10001, partition.Bucket17[0].Numero)
		assert.Equal(t, 70002, partition.Bucket17[1].Numero)
		require.Len(t, partition.Bucket9, 1)
		assert.Equal(t, 90003, partition.Bucket9[0].Numero)
		// 40004 starts with 4 and lands nowhere.

		require.Len(t, partition.Stats, 1)
		assert.Equal(t, "L1SPS", partition.Stats[0].Licence)
		assert.Equal(t, 4, partition.Stats[0].Total)
		assert.Equal(t, 2, partition.Stats[0].Bucket17)
		assert.Equal(t, 1, partition.Stats[0].Bucket9)
	})

	t.Run("LicenceTagFromFileName", func(t *testing.T) {
		files := []LicenceFile{
			{Name: "exports/l2 kine.xlsx", Reader: licenceWorkbook(t, "Client", 10001)},
		}

		partition, err := service.Partition(ctx, files)
		require.NoError(t, err)
		require.Len(t, partition.Bucket17, 1)
		assert.Equal(t, "L2 KINE", partition.Bucket17[0].Licence)
	})

	t.Run("CollisionAcrossFilesReported", func(t *testing.T) {
		files := []LicenceFile{
			{Name: "L1.xlsx", Reader: licenceWorkbook(t, "Numéro client", 10001, 10002)},
			{Name: "L2.xlsx", Reader: licenceWorkbook(t, "Numéro client", 10001, 70003)},
		}

		partition, err := service.Partition(ctx, files)
		require.NoError(t, err)

		// The duplicate stays in the bucket; collisions report, never reject.
		assert.Len(t, partition.Bucket17, 4)
		require.Len(t, partition.Collisions, 1)
		assert.Equal(t, 10001, partition.Collisions[0].Numero)
		assert.Equal(t, []string{"L1", "L2"}, partition.Collisions[0].Licences)
	})

	t.Run("DuplicatesInsideOneFileCollapsed", func(t *testing.T) {
		files := []LicenceFile{
			{Name: "L1.xlsx", Reader: licenceWorkbook(t, "Numéro client", 10001, 10001, 10001)},
		}

		partition, err := service.Partition(ctx, files)
		require.NoError(t, err)
		assert.Len(t, partition.Bucket17, 1)
		assert.Empty(t, partition.Collisions)
	})

	t.Run("SortedByLicenceThenNumero", func(t *testing.T) {
		files := []LicenceFile{
			{Name: "L2.xlsx", Reader: licenceWorkbook(t, "Client", 70002, 10009)},
			{Name: "L1.xlsx", Reader: licenceWorkbook(t, "Client", 10005)},
		}

		partition, err := service.Partition(ctx, files)
		require.NoError(t, err)
		require.Len(t, partition.Bucket17, 3)
		assert.Equal(t, models.IdentifierRecord{Numero: 10005, Licence: "L1"}, partition.Bucket17[0])
		assert.Equal(t, models.IdentifierRecord{Numero: 10009, Licence: "L2"}, partition.Bucket17[1])
		assert.Equal(t, models.IdentifierRecord{Numero: 70002, Licence: "L2"}, partition.Bucket17[2])
	})

	t.Run("ClientColumnExcludesNomClient", func(t *testing.T) {
		rows := [][]interface{}{
			{"Nom du client", "Numéro client"},
			{"Dupont", 10001},
		}
		files := []LicenceFile{{Name: "L1.xlsx", Reader: buildWorkbook(t, rows)}}

		partition, err := service.Partition(ctx, files)
		require.NoError(t, err)
		require.Len(t, partition.Bucket17, 1)
		assert.Equal(t, 10001, partition.Bucket17[0].Numero)
	})

	t.Run("FileWithoutClientColumnSkipped", func(t *testing.T) {
		bad := [][]interface{}{{"Nom", "Prénom"}, {"a", "b"}}
		files := []LicenceFile{
			{Name: "BAD.xlsx", Reader: buildWorkbook(t, bad)},
			{Name: "L1.xlsx", Reader: licenceWorkbook(t, "Client", 10001)},
		}

		partition, err := service.Partition(ctx, files)
		require.NoError(t, err)
		assert.Len(t, partition.Bucket17, 1)
		require.Len(t, partition.Stats, 1)
		assert.Equal(t, "L1", partition.Stats[0].Licence)
	})

	t.Run("NoFilesRejected", func(t *testing.T) {
		_, err := service.Partition(ctx, nil)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestWriteBucketXLSX(t *testing.T) {
	service := NewLicenceService(utils.NewDevelopmentLogger())

	records := []models.IdentifierRecord{
		{Numero: 10001, Licence: "L1SPS"},
		{Numero: 70002, Licence: "L2"},
	}

	data, err := service.WriteBucketXLSX(records)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Licences")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Numéro Anonymat", "Licence"}, rows[0])
	assert.Equal(t, []string{"10001", "L1SPS"}, rows[1])
	assert.Equal(t, []string{"70002", "L2"}, rows[2])
}
