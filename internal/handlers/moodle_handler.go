package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crem-edu/qcm-importer/internal/cache"
	"github.com/crem-edu/qcm-importer/internal/config"
	"github.com/crem-edu/qcm-importer/internal/events"
	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/moodle"
	"github.com/crem-edu/qcm-importer/internal/repositories"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/crem-edu/qcm-importer/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MoodleHandler exposes the platform side of the pipeline: probing a
// Moodle instance, listing import targets and pushing generated XML
// through the question importer plugin.
type MoodleHandler struct {
	BaseHandler
	config    *config.Config
	cache     cache.CacheService
	jobs      repositories.ImportJobRepository
	publisher events.EventPublisher
	validator *validator.Validator
}

func NewMoodleHandler(
	cfg *config.Config,
	cacheService cache.CacheService,
	jobs repositories.ImportJobRepository,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger utils.Logger,
) *MoodleHandler {
	return &MoodleHandler{
		BaseHandler: NewBaseHandler(logger),
		config:      cfg,
		cache:       cacheService,
		jobs:        jobs,
		publisher:   publisher,
		validator:   validator,
	}
}

// ImportRequest pushes already generated XML into a question category.
type ImportRequest struct {
	CategoryID int    `json:"category_id" validate:"required,gt=0"`
	FileName   string `json:"file_name"`
	XMLBase64  string `json:"xml_base64" validate:"required"`
}

// client builds a Moodle client for this request. Per-request headers
// take precedence over the configured defaults so one running service
// can serve several platforms.
func (h *MoodleHandler) client(c *gin.Context) (*moodle.Client, error) {
	baseURL := c.GetHeader("X-Moodle-Url")
	if baseURL == "" {
		baseURL = h.config.MoodleURL
	}
	token := c.GetHeader("X-Moodle-Token")
	if token == "" {
		token = h.config.MoodleToken
	}
	if baseURL == "" || token == "" {
		return nil, fmt.Errorf("moodle URL and token are required (headers or configuration)")
	}
	return moodle.NewClient(baseURL, token, h.config.MoodleTimeout, h.logger), nil
}

// TestConnection verifies the URL and token against the target site.
func (h *MoodleHandler) TestConnection(c *gin.Context) {
	h.LogRequest(c, "Testing Moodle connection")

	client, err := h.client(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing Moodle credentials", err)
		return
	}

	info, err := client.TestConnection(c.Request.Context())
	if err != nil {
		h.RespondWithServiceError(c, err, "Moodle connection failed")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Connected to "+info.SiteName, info)
}

// GetCourses lists the courses visible to the token, cached briefly to
// spare the Moodle instance on busy import days.
func (h *MoodleHandler) GetCourses(c *gin.Context) {
	h.LogRequest(c, "Listing Moodle courses")

	client, err := h.client(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing Moodle credentials", err)
		return
	}

	cacheKey := "moodle:courses:" + client.Target()
	var courses []moodle.Course
	if cacheErr := h.cache.Get(c.Request.Context(), cacheKey, &courses); cacheErr == nil {
		h.RespondWithSuccess(c, http.StatusOK, "Courses retrieved (cached)", courses)
		return
	}

	courses, err = client.GetCourses(c.Request.Context())
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to list courses")
		return
	}

	if cacheErr := h.cache.Set(c.Request.Context(), cacheKey, courses, h.config.CacheTTL); cacheErr != nil {
		h.LogError(c, cacheErr, "Failed to cache courses")
	}

	h.RespondWithSuccess(c, http.StatusOK, "Courses retrieved", courses)
}

// GetQuestionCategories lists the question categories of one course.
func (h *MoodleHandler) GetQuestionCategories(c *gin.Context) {
	h.LogRequest(c, "Listing question categories")

	courseID, err := strconv.Atoi(c.Param("id"))
	if err != nil || courseID <= 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid course ID", err)
		return
	}

	client, clientErr := h.client(c)
	if clientErr != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing Moodle credentials", clientErr)
		return
	}

	cacheKey := fmt.Sprintf("moodle:categories:%s:%d", client.Target(), courseID)
	var categories []moodle.QuestionCategory
	if cacheErr := h.cache.Get(c.Request.Context(), cacheKey, &categories); cacheErr == nil {
		h.RespondWithSuccess(c, http.StatusOK, "Categories retrieved (cached)", categories)
		return
	}

	categories, err = client.GetQuestionCategories(c.Request.Context(), courseID)
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to list question categories")
		return
	}

	if cacheErr := h.cache.Set(c.Request.Context(), cacheKey, categories, h.config.CacheTTL); cacheErr != nil {
		h.LogError(c, cacheErr, "Failed to cache categories")
	}

	h.RespondWithSuccess(c, http.StatusOK, "Categories retrieved", categories)
}

// ImportQuestions pushes generated XML into the chosen category and
// records the outcome as an import job.
func (h *MoodleHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions into Moodle")

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	xmlContent, err := base64.StdEncoding.DecodeString(req.XMLBase64)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid base64 XML payload", err)
		return
	}

	client, clientErr := h.client(c)
	if clientErr != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing Moodle credentials", clientErr)
		return
	}

	now := time.Now()
	job := &models.ImportJob{
		ID:         uuid.NewString(),
		Source:     "moodle_push",
		FileName:   req.FileName,
		FileSize:   int64(len(xmlContent)),
		Status:     models.ImportProcessing,
		CategoryID: req.CategoryID,
		StartedAt:  &now,
	}
	if jobErr := h.jobs.Create(c.Request.Context(), job); jobErr != nil {
		h.LogError(c, jobErr, "Failed to record import job")
	}

	result, err := client.ImportQuestions(c.Request.Context(), req.CategoryID, xmlContent)

	done := time.Now()
	job.CompletedAt = &done
	event := events.NewImportEvent(events.EventMoodleImportDone, job.ID)
	event.FileName = req.FileName
	event.CategoryID = req.CategoryID

	if err != nil || !result.Success {
		job.Status = models.ImportFailed
		event.Type = events.EventMoodleImportFailed
		if err != nil {
			event.Error = err.Error()
		} else {
			event.Error = result.Message
		}
	} else {
		job.Status = models.ImportCompleted
		job.ImportedCount = result.Imported
		event.ImportedCount = result.Imported
	}

	if jobErr := h.jobs.Update(c.Request.Context(), job); jobErr != nil {
		h.LogError(c, jobErr, "Failed to update import job")
	}
	if pubErr := h.publisher.PublishImportEvent(c.Request.Context(), event); pubErr != nil {
		h.LogError(c, pubErr, "Failed to publish import event")
	}

	if err != nil {
		h.RespondWithServiceError(c, err, "Moodle import failed")
		return
	}
	if !result.Success {
		h.RespondWithError(c, http.StatusBadGateway, "Moodle rejected the import", nil, result)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK,
		fmt.Sprintf("%d question(s) imported", result.Imported),
		gin.H{"job_id": job.ID, "result": result})
}
