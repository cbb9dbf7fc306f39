package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/bulk"
)

// SpeederHandler serves the bulk catalog editing endpoints.
type SpeederHandler struct {
	svc *bulk.Service
}

// NewSpeederHandler constructs a SpeederHandler.
func NewSpeederHandler(svc *bulk.Service) *SpeederHandler {
	return &SpeederHandler{svc: svc}
}

// Brands lists brands.
func (h *SpeederHandler) Brands(c *gin.Context) {
	rows, errList := h.svc.Brands(c.Request.Context())
	if errList != nil {
		respondError(c, "list brands", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": rows})
}

// Models lists the models of a brand.
func (h *SpeederHandler) Models(c *gin.Context) {
	brandID, ok := queryID(c, "brand_id")
	if !ok {
		return
	}
	rows, errList := h.svc.ModelsForBrand(c.Request.Context(), brandID)
	if errList != nil {
		respondError(c, "list models", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": rows})
}

// Series lists the generations of a brand and model.
func (h *SpeederHandler) Series(c *gin.Context) {
	brandID, ok := queryID(c, "brand_id")
	if !ok {
		return
	}
	modelID, ok := queryID(c, "model_id")
	if !ok {
		return
	}
	rows, errList := h.svc.SeriesFor(c.Request.Context(), brandID, modelID)
	if errList != nil {
		respondError(c, "list series", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": rows})
}

// Years lists model years.
func (h *SpeederHandler) Years(c *gin.Context) {
	rows, errList := h.svc.Years(c.Request.Context())
	if errList != nil {
		respondError(c, "list years", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": rows})
}

// Matrix returns the content placement grid of a brand, model and series.
func (h *SpeederHandler) Matrix(c *gin.Context) {
	var sc bulk.Scope
	var ok bool
	if sc.BrandID, ok = queryID(c, "brand_id"); !ok {
		return
	}
	if sc.ModelID, ok = queryID(c, "model_id"); !ok {
		return
	}
	if sc.SeriesID, ok = optionalQueryID(c, "series_id"); !ok {
		return
	}
	matrix, errMatrix := h.svc.Matrix(c.Request.Context(), sc)
	if errMatrix != nil {
		respondError(c, "build matrix", errMatrix)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

// SaveAssociations applies the package states of one content item.
func (h *SpeederHandler) SaveAssociations(c *gin.Context) {
	var body bulk.SaveAssociationsInput
	if !bindJSON(c, &body) {
		return
	}
	summary, errSave := h.svc.SavePackageAssociations(c.Request.Context(), body)
	if errSave != nil {
		respondError(c, "save associations", errSave)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

// SearchPackages finds packages by name.
func (h *SpeederHandler) SearchPackages(c *gin.Context) {
	rows, errSearch := h.svc.SearchPackages(c.Request.Context(), c.Query("q"))
	if errSearch != nil {
		respondError(c, "search packages", errSearch)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": rows})
}

// SearchBlurbs finds content items by text.
func (h *SpeederHandler) SearchBlurbs(c *gin.Context) {
	rows, errSearch := h.svc.SearchContent(c.Request.Context(), c.Query("q"))
	if errSearch != nil {
		respondError(c, "search blurbs", errSearch)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blurbs": rows})
}

type createNamedRequest struct {
	Name    string  `json:"name"`
	BrandID *uint64 `json:"brand_id"`
}

// CreateBrand adds a brand.
func (h *SpeederHandler) CreateBrand(c *gin.Context) {
	var body createNamedRequest
	if !bindJSON(c, &body) {
		return
	}
	row, errCreate := h.svc.CreateBrand(c.Request.Context(), body.Name)
	if errCreate != nil {
		respondError(c, "create brand", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// CreateModel adds a model, optionally with a placeholder generation under a brand.
func (h *SpeederHandler) CreateModel(c *gin.Context) {
	var body createNamedRequest
	if !bindJSON(c, &body) {
		return
	}
	row, errCreate := h.svc.CreateModel(c.Request.Context(), body.Name, body.BrandID)
	if errCreate != nil {
		respondError(c, "create model", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// CreateSeries adds a series and the generation using it.
func (h *SpeederHandler) CreateSeries(c *gin.Context) {
	var body bulk.CreateSeriesInput
	if !bindJSON(c, &body) {
		return
	}
	gen, errCreate := h.svc.CreateSeries(c.Request.Context(), body)
	if errCreate != nil {
		respondError(c, "create series", errCreate)
		return
	}
	c.JSON(http.StatusCreated, gen)
}

// CreateYear adds a model year.
func (h *SpeederHandler) CreateYear(c *gin.Context) {
	var body struct {
		Year int `json:"year"`
	}
	if !bindJSON(c, &body) {
		return
	}
	row, errCreate := h.svc.CreateYear(c.Request.Context(), body.Year)
	if errCreate != nil {
		respondError(c, "create year", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// CreatePackage adds a package and links it to a generation.
func (h *SpeederHandler) CreatePackage(c *gin.Context) {
	var body struct {
		Name         string `json:"name"`
		GenerationID uint64 `json:"generation_id"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.GenerationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing generation_id"})
		return
	}
	row, errCreate := h.svc.CreatePackage(c.Request.Context(), body.Name, body.GenerationID)
	if errCreate != nil {
		respondError(c, "create package", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// LinkPackage adds a package to a generation.
func (h *SpeederHandler) LinkPackage(c *gin.Context) {
	h.changeLink(c, h.svc.LinkPackage, "link package")
}

// UnlinkPackage removes a package from a generation.
func (h *SpeederHandler) UnlinkPackage(c *gin.Context) {
	h.changeLink(c, h.svc.UnlinkPackage, "unlink package")
}

func (h *SpeederHandler) changeLink(c *gin.Context, apply func(ctx context.Context, generationID, packageID uint64) error, op string) {
	generationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	packageID, ok := pathID(c, "package_id")
	if !ok {
		return
	}
	if errApply := apply(c.Request.Context(), generationID, packageID); errApply != nil {
		respondError(c, op, errApply)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateBlurb adds a content item.
func (h *SpeederHandler) CreateBlurb(c *gin.Context) {
	var body bulk.ContentInput
	if !bindJSON(c, &body) {
		return
	}
	row, errCreate := h.svc.CreateContent(c.Request.Context(), body)
	if errCreate != nil {
		respondError(c, "create blurb", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}
