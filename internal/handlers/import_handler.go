package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-import-service/internal/importer"
	"catalog-import-service/internal/models"
)

// MaxUploadBytes caps uploaded CSV size (32MB).
const MaxUploadBytes = 32 << 20

type ImportHandler struct {
	orchestrator *importer.Orchestrator
	log          *logrus.Entry
}

func NewImportHandler(orchestrator *importer.Orchestrator, log *logrus.Entry) *ImportHandler {
	return &ImportHandler{orchestrator: orchestrator, log: log}
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success:   false,
		Error:     models.Error{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: c.GetHeader("X-Request-ID"),
	})
}

// StartImport stages an uploaded catalog CSV and opens an import session
// @Summary Start a catalog import session
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Catalog CSV file"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/import [post]
func (h *ImportHandler) StartImport(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		errorResponse(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds %d bytes", MaxUploadBytes))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "UNREADABLE_FILE", "failed to open uploaded file")
		return
	}
	defer file.Close()

	result, err := h.orchestrator.StartImport(c.Request.Context(), file)
	if err != nil {
		h.log.WithError(err).Error("Failed to start import session")
		errorResponse(c, http.StatusBadRequest, "IMPORT_START_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ProcessChunk imports one window of rows from a staged session
// @Summary Process a chunk of catalog rows
// @Tags import
// @Produce json
// @Param token path string true "Session token"
// @Param offset query int false "Row offset"
// @Param size query int false "Chunk size"
// @Param updateExisting query bool false "Update products with matching SKUs"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/import/{token}/chunk [post]
func (h *ImportHandler) ProcessChunk(c *gin.Context) {
	token := c.Param("token")
	offset := intQuery(c, "offset", 0)
	size := intQuery(c, "size", 0)
	updateExisting := c.DefaultQuery("updateExisting", "false") == "true"

	result, err := h.orchestrator.ProcessChunk(c.Request.Context(), token, offset, size, updateExisting)
	if err != nil {
		h.log.WithError(err).WithField("session", token).Error("Chunk processing failed")
		errorResponse(c, http.StatusBadRequest, "CHUNK_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// Finalize computes the family set for a staged session
// @Summary Finalize row processing and compute product families
// @Tags import
// @Produce json
// @Param token path string true "Session token"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/import/{token}/finalize [post]
func (h *ImportHandler) Finalize(c *gin.Context) {
	token := c.Param("token")
	result, err := h.orchestrator.Finalize(c.Request.Context(), token)
	if err != nil {
		h.log.WithError(err).WithField("session", token).Error("Finalize failed")
		errorResponse(c, http.StatusBadRequest, "FINALIZE_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ProcessBundleChunk reconciles one window of product families
// @Summary Reconcile a chunk of product families
// @Tags import
// @Produce json
// @Param token path string true "Bundle token from finalize"
// @Param offset query int false "Family offset"
// @Param size query int false "Chunk size"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/bundles/{token}/chunk [post]
func (h *ImportHandler) ProcessBundleChunk(c *gin.Context) {
	token := c.Param("token")
	offset := intQuery(c, "offset", 0)
	size := intQuery(c, "size", 0)

	result, err := h.orchestrator.ProcessBundleChunk(c.Request.Context(), token, offset, size)
	if err != nil {
		h.log.WithError(err).WithField("bundleToken", token).Error("Bundle chunk processing failed")
		errorResponse(c, http.StatusBadRequest, "BUNDLE_CHUNK_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// GetImportTemplate returns the import template definition or file
// @Summary Download the catalog import template
// @Tags import
// @Produce json
// @Param format query string false "json, csv, or xlsx" default(json)
// @Success 200 {object} models.SuccessResponse
// @Router /catalog/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.CatalogImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=catalog_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Catalog"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 24)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Catalog Import Instructions")

	f.SetCellValue("Instructions", "A3", "FAMILIES AND BUNDLES:")
	f.SetCellValue("Instructions", "A4", "Rows sharing the first two SKU segments (e.g. CB-1001) form a product family.")
	f.SetCellValue("Instructions", "A5", "- A row with 'Full Set' in the Single Instrument column becomes a bundle of that family's parts for its medium.")
	f.SetCellValue("Instructions", "A6", "- A row with 'Group' in the Digital/Hardcopy/Group column becomes a grouped container linking the family's bundles.")
	f.SetCellValue("Instructions", "A7", "- All other rows import as simple products.")

	f.SetCellValue("Instructions", "A9", "MEDIA FILES:")
	f.SetCellValue("Instructions", "A10", "Image, sound, and product filenames are matched tolerantly (spacing and case variants) under the configured asset directories.")
	f.SetCellValue("Instructions", "A11", "Missing files are reported but do not fail the row.")

	f.SetCellValue("Instructions", "A13", "Column Definitions:")
	f.SetCellValue("Instructions", "A14", "Column")
	f.SetCellValue("Instructions", "B14", "Description")
	f.SetCellValue("Instructions", "C14", "Required")
	f.SetCellValue("Instructions", "D14", "Type")
	f.SetCellValue("Instructions", "E14", "Example")

	for i, col := range template.Columns {
		row := i + 15
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 35)
	f.SetColWidth("Instructions", "B", "B", 70)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=catalog_import_template.xlsx")

	f.Write(c.Writer)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}
