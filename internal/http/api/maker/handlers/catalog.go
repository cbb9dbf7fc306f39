package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/models"
	"github.com/picklesmaker/pickles/internal/util"
	"gorm.io/gorm"
)

// CatalogHandler serves the selector lists.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// namedRow is the compact shape of selector entries.
func namedRow(id uint64, name string) gin.H {
	return gin.H{"id": id, "name": name}
}

// Brands lists every brand ordered by name.
func (h *CatalogHandler) Brands(c *gin.Context) {
	var rows []models.Brand
	if errFind := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&rows).Error; errFind != nil {
		internalError(c, "list brands", errFind)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, namedRow(row.ID, row.Name))
	}
	c.JSON(http.StatusOK, gin.H{"brands": out})
}

// Models lists the models offered under a brand.
func (h *CatalogHandler) Models(c *gin.Context) {
	raw := c.Query("brand_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required parameter: brand_id"})
		return
	}
	brandID, errParse := util.ParseID(raw)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid brand_id"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var brand models.Brand
	if errFind := db.First(&brand, brandID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "brand not found"})
			return
		}
		internalError(c, "load brand", errFind)
		return
	}

	var rows []models.VehicleModel
	errFind := db.
		Where("id IN (?)", db.Model(&models.Generation{}).Select("model_id").Where("brand_id = ?", brandID)).
		Order("name ASC").
		Find(&rows).Error
	if errFind != nil {
		internalError(c, "list models", errFind)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, namedRow(row.ID, row.Name))
	}
	c.JSON(http.StatusOK, gin.H{
		"models":     out,
		"brand_info": namedRow(brand.ID, brand.Name),
	})
}

// Years lists every year, newest first.
func (h *CatalogHandler) Years(c *gin.Context) {
	var rows []models.Year
	if errFind := h.db.WithContext(c.Request.Context()).Order("year DESC").Find(&rows).Error; errFind != nil {
		internalError(c, "list years", errFind)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{"id": row.ID, "year": row.Year})
	}
	c.JSON(http.StatusOK, gin.H{"years": out})
}
