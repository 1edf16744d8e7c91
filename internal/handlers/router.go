package handlers

import (
	"github.com/crem-edu/qcm-importer/internal/cache"
	"github.com/crem-edu/qcm-importer/internal/config"
	"github.com/crem-edu/qcm-importer/internal/events"
	"github.com/crem-edu/qcm-importer/internal/repositories"
	"github.com/crem-edu/qcm-importer/internal/services"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/crem-edu/qcm-importer/internal/validator"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	convertHandler  *ConvertHandler
	moodleHandler   *MoodleHandler
	licenceHandler  *LicenceHandler
	accountsHandler *AccountsHandler
	jobsHandler     *JobsHandler
}

func NewHandlerManager(
	cfg *config.Config,
	spreadsheets services.SpreadsheetService,
	documents services.DocumentService,
	generator services.XMLService,
	attachments services.AttachmentService,
	licences services.LicenceService,
	accounts services.AccountsService,
	jobs repositories.ImportJobRepository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		convertHandler:  NewConvertHandler(spreadsheets, documents, generator, attachments, jobs, publisher, validator, logger),
		moodleHandler:   NewMoodleHandler(cfg, cacheService, jobs, publisher, validator, logger),
		licenceHandler:  NewLicenceHandler(licences, logger),
		accountsHandler: NewAccountsHandler(accounts, logger),
		jobsHandler:     NewJobsHandler(jobs, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Conversion routes
		convert := v1.Group("/convert")
		{
			convert.POST("/spreadsheet", hm.convertHandler.ConvertSpreadsheet)
			convert.POST("/spreadsheet/preview", hm.convertHandler.PreviewSpreadsheet)
			convert.POST("/document", hm.convertHandler.ParseDocument)
			convert.POST("/document/xml", hm.convertHandler.GenerateDocumentXML)
		}

		v1.POST("/attachments", hm.convertHandler.UploadAttachment)

		// Moodle web service routes
		moodleRoutes := v1.Group("/moodle")
		{
			moodleRoutes.POST("/test", hm.moodleHandler.TestConnection)
			moodleRoutes.GET("/courses", hm.moodleHandler.GetCourses)
			moodleRoutes.GET("/courses/:id/categories", hm.moodleHandler.GetQuestionCategories)
			moodleRoutes.POST("/import", hm.moodleHandler.ImportQuestions)
		}

		// Licence partition routes
		v1.POST("/licences/partition", hm.licenceHandler.Partition)

		// Account CSV routes
		v1.POST("/accounts/csv", hm.accountsHandler.BuildCSV)

		// Import history
		jobs := v1.Group("/jobs")
		{
			jobs.GET("", hm.jobsHandler.ListJobs)
			jobs.GET("/:id", hm.jobsHandler.GetJob)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "qcm-importer",
		})
	})
}
