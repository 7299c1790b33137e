package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/utils"
	"github.com/shopspring/decimal"
)

// resolveDateParam parses the :date path segment. The literal "today" is a
// client convenience and resolves to the current UTC date here at the edge;
// everything below the transport works on explicit dates.
func resolveDateParam(c *gin.Context) (time.Time, bool) {
	raw := c.Param("date")
	if raw == "today" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	date, err := utils.ParseBusinessDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid date",
			"message": err.Error(),
		})
		return time.Time{}, false
	}
	return date, true
}

func (a *app) closureStatusHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}
	date, ok := resolveDateParam(c)
	if !ok {
		return
	}

	verdict, err := a.evaluator.Evaluate(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, utils.ErrBusinessDayNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":         "business day not found",
				"business_date": date.Format(utils.BusinessDateLayout),
			})
			return
		}
		config.LogError(config.GetLogger(), "handlers", "closureStatusHandler", "evaluate", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate closure status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"local_id":        a.cfg.LocalId,
		"business_date":   verdict.BusinessDate.Format(utils.BusinessDateLayout),
		"can_close":       verdict.CanClose,
		"closure_blocked": verdict.ClosureBlocked,
		"summary":         verdict.Summary,
		"details": gin.H{
			"errors":   verdict.Errors,
			"warnings": verdict.Warnings,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (a *app) businessDayStatusHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}
	date, ok := resolveDateParam(c)
	if !ok {
		return
	}

	day, err := models.GetBusinessDayByDate(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, utils.ErrBusinessDayNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":         "business day not found",
				"business_date": date.Format(utils.BusinessDateLayout),
			})
			return
		}
		config.LogError(config.GetLogger(), "handlers", "businessDayStatusHandler", "lookup", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load business day"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"local_id":               a.cfg.LocalId,
		"business_date":          day.BusinessDate.Format(utils.BusinessDateLayout),
		"status":                 day.Status,
		"closed_at":              day.ClosedAt,
		"can_attempt_closure":    day.Status == models.BusinessDayStatusOpen,
		"max_allowed_difference": day.MaxAllowedDifference,
	})
}

type openBusinessDayRequest struct {
	MaxAllowedDifference *decimal.Decimal `json:"max_allowed_difference"`
}

func (a *app) openBusinessDayHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}
	date, ok := resolveDateParam(c)
	if !ok {
		return
	}

	var req openBusinessDayRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}

	day, err := models.OpenBusinessDay(c.Request.Context(), &models.NewBusinessDay{
		BusinessDate:         date,
		MaxAllowedDifference: req.MaxAllowedDifference,
	})
	if err != nil {
		if errors.Is(err, models.ErrBusinessDayExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error":         "business day already exists",
				"business_date": date.Format(utils.BusinessDateLayout),
			})
			return
		}
		config.LogError(config.GetLogger(), "handlers", "openBusinessDayHandler", "open", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open business day"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "business day opened",
		"business_date": day.BusinessDate.Format(utils.BusinessDateLayout),
		"status":        day.Status,
	})
}

type closeBusinessDayRequest struct {
	ForceClosure bool `json:"force_closure"`
}

func (a *app) closeBusinessDayHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}
	date, ok := resolveDateParam(c)
	if !ok {
		return
	}

	var req closeBusinessDayRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), "CloseBusinessDay")
	defer span.End()

	result, err := a.dayClose.CloseBusinessDay(ctx, date, req.ForceClosure)
	if err != nil {
		var alreadyClosed *utils.AlreadyClosedError
		var blocked *utils.ClosureBlockedError
		switch {
		case errors.Is(err, utils.ErrBusinessDayNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":         "business day not found",
				"business_date": date.Format(utils.BusinessDateLayout),
				"hint":          "open the business day first via POST /api/business-day/open/:date",
			})
		case errors.As(err, &alreadyClosed):
			c.JSON(http.StatusConflict, gin.H{
				"error":         "business day already closed",
				"business_date": alreadyClosed.BusinessDate.Format(utils.BusinessDateLayout),
				"closed_at":     alreadyClosed.ClosedAt,
			})
		case errors.As(err, &blocked):
			// Terse on purpose: the full diagnostic lives on the
			// closure-status endpoint.
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      "closure blocked",
				"error_code": "CLOSURE_BLOCKED",
				"issues":     blocked.Issues,
				"can_retry":  true,
				"hint":       "see GET /api/closure-status/:date for details, or pass force_closure",
			})
		default:
			config.LogError(config.GetLogger(), "handlers", "closeBusinessDayHandler", "close", date, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close business day"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "business day closed",
		"business_date": result.BusinessDate.Format(utils.BusinessDateLayout),
		"closed_at":     result.ClosedAt,
		"forced":        result.Forced,
	})
}

func (a *app) salesSummaryHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}
	date, ok := resolveDateParam(c)
	if !ok {
		return
	}

	summary, err := models.GetDailySalesSummary(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, utils.ErrBusinessDayNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":         "business day not found",
				"business_date": date.Format(utils.BusinessDateLayout),
			})
			return
		}
		config.LogError(config.GetLogger(), "handlers", "salesSummaryHandler", "summary", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sales summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"local_id": a.cfg.LocalId,
		"summary":  summary,
	})
}
