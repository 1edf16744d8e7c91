package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crem-edu/qcm-importer/internal/events"
	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/repositories"
	"github.com/crem-edu/qcm-importer/internal/services"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/crem-edu/qcm-importer/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConvertHandler struct {
	BaseHandler
	spreadsheets services.SpreadsheetService
	documents    services.DocumentService
	generator    services.XMLService
	attachments  services.AttachmentService
	jobs         repositories.ImportJobRepository
	publisher    events.EventPublisher
	validator    *validator.Validator
}

func NewConvertHandler(
	spreadsheets services.SpreadsheetService,
	documents services.DocumentService,
	generator services.XMLService,
	attachments services.AttachmentService,
	jobs repositories.ImportJobRepository,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger utils.Logger,
) *ConvertHandler {
	return &ConvertHandler{
		BaseHandler:  NewBaseHandler(logger),
		spreadsheets: spreadsheets,
		documents:    documents,
		generator:    generator,
		attachments:  attachments,
		jobs:         jobs,
		publisher:    publisher,
		validator:    validator,
	}
}

// GenerateDocumentXMLRequest carries the (possibly user-edited) parsed
// questions back for generation.
type GenerateDocumentXMLRequest struct {
	Category  string             `json:"category"`
	FileName  string             `json:"file_name"`
	Questions []*models.Question `json:"questions" validate:"required,min=1"`
}

// PreviewSpreadsheet parses an uploaded workbook and returns the normalized
// questions without generating anything.
func (h *ConvertHandler) PreviewSpreadsheet(c *gin.Context) {
	h.LogRequest(c, "Previewing spreadsheet")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	session, err := h.spreadsheets.LoadQuestions(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to load spreadsheet")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, fmt.Sprintf("%d question(s) loaded", len(session.Questions)), session)
}

// ConvertSpreadsheet converts an uploaded workbook straight to Moodle XML.
// Rows whose correct answer cannot be resolved are skipped and reported in
// the X-Skipped-Count header; the rest of the batch still converts.
func (h *ConvertHandler) ConvertSpreadsheet(c *gin.Context) {
	h.LogRequest(c, "Converting spreadsheet")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	session, err := h.spreadsheets.LoadQuestions(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to load spreadsheet")
		return
	}

	job := h.startJob(c, session, header.Size)
	result, err := h.generator.Generate(c.Request.Context(), session, c.PostForm("category"))
	if err != nil {
		h.finishJob(c, job, nil, err)
		h.RespondWithServiceError(c, err, "Failed to generate XML")
		return
	}
	h.finishJob(c, job, result, nil)

	h.sendXML(c, result, c.PostForm("output"))
}

// ParseDocument extracts and parses a word-processor document, returning
// the questions with any correction block already applied so the caller
// can review and edit before generation.
func (h *ConvertHandler) ParseDocument(c *gin.Context) {
	h.LogRequest(c, "Parsing document")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	session, err := h.documents.LoadDocument(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to parse document")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK,
		fmt.Sprintf("%d question(s) extracted, %d correction(s) detected",
			len(session.Questions), len(session.Corrections)),
		session)
}

// GenerateDocumentXML generates Moodle XML from reviewed document
// questions. Unlike the spreadsheet path, a single question without a
// correct answer aborts the whole generation.
func (h *ConvertHandler) GenerateDocumentXML(c *gin.Context) {
	h.LogRequest(c, "Generating document XML")

	var req GenerateDocumentXMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	// Question names and error reporting number by position, never by
	// whatever ids the caller posted back.
	for i, q := range req.Questions {
		q.ID = i + 1
	}

	session := &models.ConversionSession{
		Source:    models.SourceDocument,
		FileName:  req.FileName,
		Questions: req.Questions,
	}

	job := h.startJob(c, session, 0)
	result, err := h.generator.Generate(c.Request.Context(), session, req.Category)
	if err != nil {
		h.finishJob(c, job, nil, err)
		h.RespondWithServiceError(c, err, "Failed to generate XML")
		return
	}
	h.finishJob(c, job, result, nil)

	h.sendXML(c, result, "")
}

// UploadAttachment validates an uploaded image and returns it base64
// encoded, ready to be placed on a question slot in a later generation
// request.
func (h *ConvertHandler) UploadAttachment(c *gin.Context) {
	h.LogRequest(c, "Validating attachment")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	image, err := h.attachments.ReadImage(c.Request.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.RespondWithServiceError(c, err, "Attachment rejected")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Image accepted", gin.H{
		"image":          image,
		"sanitized_name": services.SanitizeFileName(image.Name),
	})
}

// ===== JOB RECORDING =====

func (h *ConvertHandler) startJob(c *gin.Context, session *models.ConversionSession, fileSize int64) *models.ImportJob {
	now := time.Now()
	job := &models.ImportJob{
		ID:        uuid.NewString(),
		Source:    string(session.Source),
		FileName:  session.FileName,
		FileSize:  fileSize,
		Status:    models.ImportProcessing,
		TotalRows: len(session.Questions),
		StartedAt: &now,
	}
	if err := h.jobs.Create(c.Request.Context(), job); err != nil {
		h.LogError(c, err, "Failed to record import job")
	}
	return job
}

func (h *ConvertHandler) finishJob(c *gin.Context, job *models.ImportJob, result *models.ConversionResult, genErr error) {
	now := time.Now()
	job.CompletedAt = &now

	event := events.NewImportEvent(events.EventConversionCompleted, job.ID)
	event.FileName = job.FileName

	if genErr != nil {
		job.Status = models.ImportFailed
		event.Type = events.EventConversionFailed
		event.Error = genErr.Error()
	} else {
		job.Status = models.ImportCompleted
		job.QuestionCount = result.QuestionCount
		job.SkippedCount = result.SkippedCount
		if len(result.Errors) > 0 {
			if data, err := json.Marshal(result.Errors); err == nil {
				job.Errors = data
			}
		}
		event.QuestionCount = result.QuestionCount
		event.SkippedCount = result.SkippedCount
	}

	if err := h.jobs.Update(c.Request.Context(), job); err != nil {
		h.LogError(c, err, "Failed to update import job")
	}
	if err := h.publisher.PublishImportEvent(c.Request.Context(), event); err != nil {
		h.LogError(c, err, "Failed to publish import event")
	}
}

// sendXML streams the generated document as a download, reporting batch
// statistics in headers.
func (h *ConvertHandler) sendXML(c *gin.Context, result *models.ConversionResult, output string) {
	if output == "" {
		output = "moodle_questions.xml"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output))
	c.Header("X-Question-Count", fmt.Sprintf("%d", result.QuestionCount))
	c.Header("X-Skipped-Count", fmt.Sprintf("%d", result.SkippedCount))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", result.XML)
}
