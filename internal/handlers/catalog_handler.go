package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/repository"
)

type CatalogHandler struct {
	repo *repository.CatalogRepository
	log  *logrus.Entry
}

func NewCatalogHandler(repo *repository.CatalogRepository, log *logrus.Entry) *CatalogHandler {
	return &CatalogHandler{repo: repo, log: log}
}

// GetProductBySKU returns a single catalog entry
// @Summary Get a product by SKU
// @Tags catalog
// @Produce json
// @Param sku path string true "Product SKU"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/products/{sku} [get]
func (h *CatalogHandler) GetProductBySKU(c *gin.Context) {
	sku := c.Param("sku")
	product, err := h.repo.FindBySKU(c.Request.Context(), sku)
	if err != nil {
		h.log.WithError(err).WithField("sku", sku).Error("Product lookup failed")
		errorResponse(c, http.StatusInternalServerError, "LOOKUP_FAILED", "failed to look up product")
		return
	}
	if product == nil {
		errorResponse(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "no product with sku "+sku)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// ListProducts returns a page of catalog entries
// @Summary List products
// @Tags catalog
// @Produce json
// @Param type query string false "SIMPLE, BUNDLE, or GROUPED"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(50)
// @Success 200 {object} models.SuccessResponse
// @Router /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 50)
	productType := c.Query("type")

	products, total, err := h.repo.ListProducts(c.Request.Context(), productType, page, limit)
	if err != nil {
		h.log.WithError(err).Error("Product listing failed")
		errorResponse(c, http.StatusInternalServerError, "LIST_FAILED", "failed to list products")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetFamily returns a family's bundles and grouped container
// @Summary Get the synthesized products for a family base SKU
// @Tags catalog
// @Produce json
// @Param baseSku path string true "Family base SKU"
// @Success 200 {object} models.SuccessResponse
// @Router /catalog/families/{baseSku} [get]
func (h *CatalogHandler) GetFamily(c *gin.Context) {
	base := c.Param("baseSku")
	ctx := c.Request.Context()

	digital, err := h.repo.FindBundleByBaseSKU(ctx, base, true)
	if err != nil {
		h.log.WithError(err).WithField("base", base).Error("Family lookup failed")
		errorResponse(c, http.StatusInternalServerError, "LOOKUP_FAILED", "failed to look up family")
		return
	}
	hardcopy, err := h.repo.FindBundleByBaseSKU(ctx, base, false)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "LOOKUP_FAILED", "failed to look up family")
		return
	}
	grouped, err := h.repo.FindGroupedByBaseSKU(ctx, base)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "LOOKUP_FAILED", "failed to look up family")
		return
	}
	if digital == nil && hardcopy == nil && grouped == nil {
		errorResponse(c, http.StatusNotFound, "FAMILY_NOT_FOUND", "no synthesized products for base "+base)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"baseSku":        base,
		"digitalBundle":  digital,
		"hardcopyBundle": hardcopy,
		"grouped":        grouped,
	})
}
