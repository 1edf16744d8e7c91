package handlers

import (
	"fmt"
	"net/http"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/services"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/gin-gonic/gin"
)

type AccountsHandler struct {
	BaseHandler
	accounts services.AccountsService
}

func NewAccountsHandler(accounts services.AccountsService, logger utils.Logger) *AccountsHandler {
	return &AccountsHandler{
		BaseHandler: NewBaseHandler(logger),
		accounts:    accounts,
	}
}

// BuildCSV turns anonymat/email pairs into a Moodle user import CSV.
// Pairs come either from an uploaded spreadsheet (multipart field
// "file") or from pasted text (form field "pairs"); the cohort field is
// optional and adds a cohort1 column when present.
func (h *AccountsHandler) BuildCSV(c *gin.Context) {
	h.LogRequest(c, "Building accounts CSV")

	var (
		entries []models.AccountEntry
		skipped int
	)

	if file, header, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		entries, skipped, err = h.accounts.ParseSpreadsheet(c.Request.Context(), file, header.Filename)
		if err != nil {
			h.RespondWithServiceError(c, err, "Failed to parse accounts spreadsheet")
			return
		}
	} else if pairs := c.PostForm("pairs"); pairs != "" {
		entries, skipped = h.accounts.ParseText(c.Request.Context(), pairs)
	} else {
		h.RespondWithError(c, http.StatusBadRequest, "Provide a file upload or a pairs field", nil)
		return
	}

	if len(entries) == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "No valid anonymat/email pairs found", nil)
		return
	}

	csvData, err := h.accounts.BuildCSV(entries, c.PostForm("cohort"))
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to build CSV")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="moodle_accounts.csv"`)
	c.Header("X-Account-Count", fmt.Sprintf("%d", len(entries)))
	c.Header("X-Skipped-Count", fmt.Sprintf("%d", skipped))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", csvData)
}
