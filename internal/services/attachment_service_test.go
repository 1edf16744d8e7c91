package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadImage(t *testing.T) {
	service := NewAttachmentService(utils.NewDevelopmentLogger())
	ctx := context.Background()

	t.Run("AcceptsImageMIME", func(t *testing.T) {
		payload := []byte{0x89, 'P', 'N', 'G'}
		image, err := service.ReadImage(ctx, bytes.NewReader(payload), "logo.png", "image/png")
		require.NoError(t, err)

		assert.Equal(t, "logo.png", image.Name)
		assert.Equal(t, "image/png", image.Type)
		assert.Equal(t, base64.StdEncoding.EncodeToString(payload), image.Data)
	})

	t.Run("RejectsNonImageMIME", func(t *testing.T) {
		_, err := service.ReadImage(ctx, bytes.NewReader([]byte("%PDF")), "doc.pdf", "application/pdf")
		require.Error(t, err)
		assert.True(t, IsAttachment(err))
	})

	t.Run("RejectsOversizedPayload", func(t *testing.T) {
		big := bytes.Repeat([]byte{0xff}, MaxImageSize+1)
		_, err := service.ReadImage(ctx, bytes.NewReader(big), "huge.png", "image/png")
		require.Error(t, err)
		assert.True(t, IsAttachment(err))
	})

	t.Run("AcceptsExactLimit", func(t *testing.T) {
		exact := bytes.Repeat([]byte{0x01}, MaxImageSize)
		_, err := service.ReadImage(ctx, bytes.NewReader(exact), "limit.png", "image/png")
		assert.NoError(t, err)
	})
}

func TestAttachDetach(t *testing.T) {
	service := NewAttachmentService(utils.NewDevelopmentLogger())
	image := &models.Image{Data: "aGVsbG8=", Name: "a.png", Type: "image/png"}

	newSession := func() *models.ConversionSession {
		return &models.ConversionSession{
			Source: models.SourceDocument,
			Questions: []*models.Question{
				{ID: 1, Answers: []models.Answer{{Text: "a"}, {Text: "b"}}},
			},
		}
	}

	t.Run("TitleSlot", func(t *testing.T) {
		session := newSession()
		require.NoError(t, service.Attach(session, 1, SlotTitle, 0, image))
		assert.Equal(t, image, session.Questions[0].TitleImage)

		require.NoError(t, service.Detach(session, 1, SlotTitle, 0))
		assert.Nil(t, session.Questions[0].TitleImage)
	})

	t.Run("AnswerSlotReplacesExisting", func(t *testing.T) {
		session := newSession()
		first := &models.Image{Data: "Zmlyc3Q=", Name: "first.png"}
		require.NoError(t, service.Attach(session, 1, SlotAnswer, 1, first))
		require.NoError(t, service.Attach(session, 1, SlotAnswer, 1, image))
		assert.Equal(t, image, session.Questions[0].Answers[1].Image)
	})

	t.Run("UnknownQuestionRejected", func(t *testing.T) {
		err := service.Attach(newSession(), 5, SlotTitle, 0, image)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("AnswerIndexOutOfRange", func(t *testing.T) {
		err := service.Attach(newSession(), 1, SlotAnswer, 9, image)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "photo.png", SanitizeFileName("photo.png"))
	assert.Equal(t, "mon_image.png", SanitizeFileName("mon image.png"))
	assert.Equal(t, "sch_ma_1_.png", SanitizeFileName("schéma (1).png"))
	assert.Equal(t, "a_b.png", SanitizeFileName("a   b.png"))
	assert.Equal(t, "graph-2024_v1.2.png", SanitizeFileName("graph-2024_v1.2.png"))
}
