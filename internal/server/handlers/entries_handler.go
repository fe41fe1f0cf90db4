package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/domain/models"
	"github.com/mamadbah2/fishfarm/internal/service/entries"
)

// EntryService is the entries service surface exposed over HTTP.
type EntryService interface {
	ListPonds(ctx context.Context) ([]models.Pond, error)
	ListSpecies(ctx context.Context) ([]models.Species, error)

	PreviewStocking(in entries.StockingInput) entries.StockingPreview
	PreviewSampling(in entries.SamplingInput) entries.SamplingPreview
	PreviewHarvest(in entries.HarvestInput) entries.HarvestPreview
	PreviewFeeding(in entries.FeedingInput) entries.FeedingPreview
	PreviewMortality(in entries.MortalityInput) entries.MortalityPreview
	PreviewInvoiceLine(in entries.InvoiceLineInput) entries.InvoiceLinePreview
	ResolveMortality(ctx context.Context, in entries.MortalityInput) entries.MortalityInput

	SubmitStocking(ctx context.Context, in entries.StockingInput) (*models.Stocking, error)
	UpdateStocking(ctx context.Context, id int, in entries.StockingInput) (*models.Stocking, error)
	DeleteStocking(ctx context.Context, id int) error
	SubmitSampling(ctx context.Context, in entries.SamplingInput) (*models.FishSampling, error)
	SubmitHarvest(ctx context.Context, in entries.HarvestInput) (*models.Harvest, error)
	SubmitFeeding(ctx context.Context, in entries.FeedingInput) (*models.Feed, error)
	SubmitMortality(ctx context.Context, in entries.MortalityInput) (*models.Mortality, error)
	SubmitTransfer(ctx context.Context, in entries.TransferInput) (*models.TransferResult, error)
	CalculateAssets(ctx context.Context, pondID int) (*models.AssetCalculationResult, error)
}

// EntriesHandler serves the data entry forms.
type EntriesHandler struct {
	svc    EntryService
	logger *zap.Logger
}

// NewEntriesHandler constructs the entry form handler.
func NewEntriesHandler(svc EntryService, logger *zap.Logger) *EntriesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntriesHandler{svc: svc, logger: logger}
}

// ListPonds returns the pond reference list.
func (h *EntriesHandler) ListPonds(c *gin.Context) {
	ponds, err := h.svc.ListPonds(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ponds)
}

// ListSpecies returns the species reference list.
func (h *EntriesHandler) ListSpecies(c *gin.Context) {
	species, err := h.svc.ListSpecies(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, species)
}

// PreviewStocking returns the derived stocking fields without submitting.
func (h *EntriesHandler) PreviewStocking(c *gin.Context) {
	var in entries.StockingInput
	if !h.bind(c, &in) {
		return
	}
	c.JSON(http.StatusOK, h.svc.PreviewStocking(in))
}

// PreviewSampling returns the derived sampling fields without submitting.
func (h *EntriesHandler) PreviewSampling(c *gin.Context) {
	var in entries.SamplingInput
	if !h.bind(c, &in) {
		return
	}
	c.JSON(http.StatusOK, h.svc.PreviewSampling(in))
}

// PreviewHarvest returns the derived harvest fields without submitting.
func (h *EntriesHandler) PreviewHarvest(c *gin.Context) {
	var in entries.HarvestInput
	if !h.bind(c, &in) {
		return
	}
	c.JSON(http.StatusOK, h.svc.PreviewHarvest(in))
}

// PreviewFeeding returns the derived feeding fields without submitting.
func (h *EntriesHandler) PreviewFeeding(c *gin.Context) {
	var in entries.FeedingInput
	if !h.bind(c, &in) {
		return
	}
	c.JSON(http.StatusOK, h.svc.PreviewFeeding(in))
}

// PreviewMortality returns the dead fish weight. Without lot figures the
// pond's latest sampling supplies the average weight.
func (h *EntriesHandler) PreviewMortality(c *gin.Context) {
	var in entries.MortalityInput
	if !h.bind(c, &in) {
		return
	}
	in = h.svc.ResolveMortality(c.Request.Context(), in)
	c.JSON(http.StatusOK, h.svc.PreviewMortality(in))
}

// PreviewInvoiceLine completes an invoice fish line.
func (h *EntriesHandler) PreviewInvoiceLine(c *gin.Context) {
	var in entries.InvoiceLineInput
	if !h.bind(c, &in) {
		return
	}
	c.JSON(http.StatusOK, h.svc.PreviewInvoiceLine(in))
}

// CreateStocking submits a stocking record.
func (h *EntriesHandler) CreateStocking(c *gin.Context) {
	var in entries.StockingInput
	if !h.bind(c, &in) {
		return
	}
	created, err := h.svc.SubmitStocking(c.Request.Context(), in)
	h.created(c, created, err)
}

// UpdateStocking replaces a stocking record.
func (h *EntriesHandler) UpdateStocking(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in entries.StockingInput
	if !h.bind(c, &in) {
		return
	}
	updated, err := h.svc.UpdateStocking(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteStocking removes a stocking record.
func (h *EntriesHandler) DeleteStocking(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteStocking(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateSampling submits a fish sampling record.
func (h *EntriesHandler) CreateSampling(c *gin.Context) {
	var in entries.SamplingInput
	if !h.bind(c, &in) {
		return
	}
	created, err := h.svc.SubmitSampling(c.Request.Context(), in)
	h.created(c, created, err)
}

// CreateHarvest submits a harvest record.
func (h *EntriesHandler) CreateHarvest(c *gin.Context) {
	var in entries.HarvestInput
	if !h.bind(c, &in) {
		return
	}
	created, err := h.svc.SubmitHarvest(c.Request.Context(), in)
	h.created(c, created, err)
}

// CreateFeed submits a feeding record.
func (h *EntriesHandler) CreateFeed(c *gin.Context) {
	var in entries.FeedingInput
	if !h.bind(c, &in) {
		return
	}
	created, err := h.svc.SubmitFeeding(c.Request.Context(), in)
	h.created(c, created, err)
}

// CreateMortality submits a mortality record.
func (h *EntriesHandler) CreateMortality(c *gin.Context) {
	var in entries.MortalityInput
	if !h.bind(c, &in) {
		return
	}
	created, err := h.svc.SubmitMortality(c.Request.Context(), in)
	h.created(c, created, err)
}

// Transfer submits a fund transfer.
func (h *EntriesHandler) Transfer(c *gin.Context) {
	var in entries.TransferInput
	if !h.bind(c, &in) {
		return
	}
	result, err := h.svc.SubmitTransfer(c.Request.Context(), in)
	h.created(c, result, err)
}

type assetCalculationRequest struct {
	PondID int `json:"pond_id"`
}

// CalculateAssets proxies the backend asset valuation for a pond.
func (h *EntriesHandler) CalculateAssets(c *gin.Context) {
	var req assetCalculationRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.CalculateAssets(c.Request.Context(), req.PondID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *EntriesHandler) bind(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.logger.Warn("invalid entry payload", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *EntriesHandler) pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *EntriesHandler) created(c *gin.Context, body any, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, body)
}
