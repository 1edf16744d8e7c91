package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/crem-edu/qcm-importer/internal/services"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/gin-gonic/gin"
)

type LicenceHandler struct {
	BaseHandler
	licences services.LicenceService
}

func NewLicenceHandler(licences services.LicenceService, logger utils.Logger) *LicenceHandler {
	return &LicenceHandler{
		BaseHandler: NewBaseHandler(logger),
		licences:    licences,
	}
}

// Partition merges the uploaded enrollment spreadsheets and splits the
// anonymat numbers into the 1/7 and 9 buckets. Each bucket comes back
// both as records and as a ready-to-download XLSX, base64 encoded.
func (h *LicenceHandler) Partition(c *gin.Context) {
	h.LogRequest(c, "Partitioning licence files")

	form, err := c.MultipartForm()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	files := make([]services.LicenceFile, 0, len(uploads))
	closers := make([]func() error, 0, len(uploads))
	defer func() {
		for _, close := range closers {
			_ = close()
		}
	}()
	for _, upload := range uploads {
		f, openErr := upload.Open()
		if openErr != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Failed to read upload "+upload.Filename, openErr)
			return
		}
		closers = append(closers, f.Close)
		files = append(files, services.LicenceFile{Name: upload.Filename, Reader: f})
	}

	partition, err := h.licences.Partition(c.Request.Context(), files)
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to partition licence files")
		return
	}

	xlsx17, err := h.licences.WriteBucketXLSX(partition.Bucket17)
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to build bucket workbook")
		return
	}
	xlsx9, err := h.licences.WriteBucketXLSX(partition.Bucket9)
	if err != nil {
		h.RespondWithServiceError(c, err, "Failed to build bucket workbook")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK,
		fmt.Sprintf("%d number(s) in bucket 1/7, %d in bucket 9, %d collision(s)",
			len(partition.Bucket17), len(partition.Bucket9), len(partition.Collisions)),
		gin.H{
			"partition":       partition,
			"bucket_17_xlsx":  base64.StdEncoding.EncodeToString(xlsx17),
			"bucket_9_xlsx":   base64.StdEncoding.EncodeToString(xlsx9),
		})
}
