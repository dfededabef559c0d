package api

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propcalc/server/config"
	"propcalc/server/internal/database"
	"propcalc/server/internal/ingest"
	"propcalc/server/internal/models"
	"propcalc/server/internal/queue"
)

type Handler struct {
	db      *database.Database
	manager *ingest.Manager
	queue   *queue.TransactionQueue
	logger  *logrus.Logger
}

type DateRange struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

type IngestRequest struct {
	Sources []string `json:"sources"`
}

func NewHandler(db *database.Database, manager *ingest.Manager, txQueue *queue.TransactionQueue, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:      db,
		manager: manager,
		queue:   txQueue,
		logger:  logger,
	}
}

func (h *Handler) GetTransactions(c *gin.Context) {
	var dateRange DateRange
	if err := c.ShouldBindQuery(&dateRange); err != nil {
		h.logger.WithError(err).Error("Failed to parse date range")
	}
	location := c.Query("location")

	transactions, err := h.db.GetTransactions(dateRange.StartDate, dateRange.EndDate, location)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transactions"})
		return
	}

	c.JSON(http.StatusOK, transactions)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	txn, err := h.db.GetTransactionByID(c.Param("transaction_id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transaction"})
		return
	}
	if txn == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}

	c.JSON(http.StatusOK, txn)
}

func (h *Handler) GetStats(c *gin.Context) {
	var dateRange DateRange
	if err := c.ShouldBindQuery(&dateRange); err != nil {
		h.logger.WithError(err).Error("Failed to parse date range")
	}
	location := c.Query("location")

	stats, err := h.db.GetTransactionStats(dateRange.StartDate, dateRange.EndDate, location)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetAreaStats(c *gin.Context) {
	areaID, err := strconv.ParseInt(c.Param("area_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid area id"})
		return
	}

	stats, err := h.db.GetAreaStats(areaID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get area stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get area stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetRecentSales(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sales, err := h.db.GetRecentSales(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recent sales")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recent sales"})
		return
	}

	c.JSON(http.StatusOK, sales)
}

func (h *Handler) GetQualityReports(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	reports, err := h.db.GetQualityReports(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get quality reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get quality reports"})
		return
	}
	if reports == nil {
		reports = []models.QualityReport{}
	}

	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := h.db.GetProcessingResults(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get processing results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get processing results"})
		return
	}
	if results == nil {
		results = []models.ProcessingResult{}
	}

	c.JSON(http.StatusOK, results)
}

// TriggerIngest starts an ingestion run in the background and returns
// immediately.
func (h *Handler) TriggerIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sources := config.GetSources()
	if len(req.Sources) > 0 {
		var selected []config.Source
		for _, name := range req.Sources {
			if src := config.GetSource(name); src != nil {
				selected = append(selected, *src)
			}
		}
		if len(selected) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No matching sources"})
			return
		}
		sources = selected
	}

	go h.manager.RunAll(context.Background(), sources)

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "started",
		"sources": len(sources),
	})
}

func (h *Handler) GetSources(c *gin.Context) {
	c.JSON(http.StatusOK, config.GetSources())
}

// ImportTransactions accepts a batch of pre-validated transactions and
// queues it for asynchronous insertion. Scraped or manually curated data
// enters here instead of going through a CSV source.
func (h *Handler) ImportTransactions(c *gin.Context) {
	var batch []*models.Transaction
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty batch"})
		return
	}
	for _, txn := range batch {
		if txn.TransactionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Every transaction needs a transaction_id"})
			return
		}
	}

	if err := h.queue.Push(batch); err != nil {
		h.logger.WithError(err).Error("Failed to queue import batch")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Import queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "queued",
		"count":  len(batch),
	})
}
