package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
)

// MaxImageSize is the upper bound on an attached image payload, 5 MiB.
const MaxImageSize = 5 * 1024 * 1024

// ImageSlot names the three places an image can attach to.
type ImageSlot string

const (
	SlotTitle    ImageSlot = "title"
	SlotFeedback ImageSlot = "feedback"
	SlotAnswer   ImageSlot = "answer"
)

var (
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	underscoreRuns  = regexp.MustCompile(`__+`)
)

// AttachmentService validates user-supplied images and attaches them to a
// question slot. Each slot holds at most one image; attaching replaces,
// detaching clears.
type AttachmentService interface {
	ReadImage(ctx context.Context, reader io.Reader, fileName, mimeType string) (*models.Image, error)
	Attach(session *models.ConversionSession, questionID int, slot ImageSlot, answerIndex int, image *models.Image) error
	Detach(session *models.ConversionSession, questionID int, slot ImageSlot, answerIndex int) error
}

type attachmentService struct {
	logger utils.Logger
}

func NewAttachmentService(logger utils.Logger) AttachmentService {
	return &attachmentService{logger: logger}
}

// ReadImage validates and encodes an uploaded image. Only image/* MIME
// types up to MaxImageSize are accepted; rejection leaves existing
// attachments untouched.
func (s *attachmentService) ReadImage(ctx context.Context, reader io.Reader, fileName, mimeType string) (*models.Image, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, NewAttachmentError(fileName, ErrNotAnImage.Error())
	}

	data, err := io.ReadAll(io.LimitReader(reader, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, NewAttachmentError(fileName, ErrImageTooLarge.Error())
	}

	s.logger.InfoContext(ctx, "Image accepted", "file_name", fileName, "size", len(data), "type", mimeType)

	return &models.Image{
		Data: base64.StdEncoding.EncodeToString(data),
		Name: fileName,
		Type: mimeType,
	}, nil
}

func (s *attachmentService) Attach(session *models.ConversionSession, questionID int, slot ImageSlot, answerIndex int, image *models.Image) error {
	target, err := imageSlot(session, questionID, slot, answerIndex)
	if err != nil {
		return err
	}
	*target = image
	return nil
}

func (s *attachmentService) Detach(session *models.ConversionSession, questionID int, slot ImageSlot, answerIndex int) error {
	target, err := imageSlot(session, questionID, slot, answerIndex)
	if err != nil {
		return err
	}
	*target = nil
	return nil
}

func imageSlot(session *models.ConversionSession, questionID int, slot ImageSlot, answerIndex int) (**models.Image, error) {
	if questionID < 1 || questionID > len(session.Questions) {
		return nil, NewValidationError("question_id", "no such question", questionID)
	}
	question := session.Questions[questionID-1]

	switch slot {
	case SlotTitle:
		return &question.TitleImage, nil
	case SlotFeedback:
		return &question.FeedbackImage, nil
	case SlotAnswer:
		if answerIndex < 0 || answerIndex >= len(question.Answers) {
			return nil, NewValidationError("answer_index", "no such answer", answerIndex)
		}
		return &question.Answers[answerIndex].Image, nil
	default:
		return nil, NewValidationError("slot", "unknown image slot", string(slot))
	}
}

// SanitizeFileName collapses anything outside [a-zA-Z0-9._-] to underscores
// and squeezes runs, producing the name used inside the generated XML.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(name, "_")
	return underscoreRuns.ReplaceAllString(name, "_")
}
