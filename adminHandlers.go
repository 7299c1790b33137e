package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/models/reports"
	"github.com/restodata/resto_backend/utils"
	"github.com/restodata/resto_backend/workflow"
	"github.com/shopspring/decimal"
)

func (a *app) processPendingHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}

	result, err := a.remediation.ProcessPendingTransactions(c.Request.Context())
	if err != nil {
		config.LogError(config.GetLogger(), "handlers", "processPendingHandler", "process pending", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process pending transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "pending transactions processed",
		"count":   result.Count,
		"items":   result.Items,
	})
}

type shiftCashCount struct {
	ShiftId   int             `json:"shift_id" binding:"required"`
	CashCount decimal.Decimal `json:"cash_count"`
}

type forceCloseShiftsRequest struct {
	CashCounts []shiftCashCount `json:"cash_counts"`
}

func (a *app) forceCloseShiftsHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}

	var req forceCloseShiftsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}

	input := &workflow.ForceCloseInput{CashCounts: map[int]decimal.Decimal{}}
	for _, cc := range req.CashCounts {
		input.CashCounts[cc.ShiftId] = cc.CashCount
	}

	result, err := a.remediation.ForceCloseShifts(c.Request.Context(), input)
	if err != nil {
		config.LogError(config.GetLogger(), "handlers", "forceCloseShiftsHandler", "force close", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to force close shifts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "open shifts closed",
		"count":   result.Count,
		"items":   result.Items,
	})
}

func (a *app) posStatusHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}

	posId, err := strconv.Atoi(c.Param("posId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pos id"})
		return
	}

	var input models.PosStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}

	pos, err := models.SetPointOfSaleStatus(c.Request.Context(), posId, &input)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "point of sale not found"})
			return
		}
		config.LogError(config.GetLogger(), "handlers", "posStatusHandler", "set status", posId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update point of sale"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "point of sale updated",
		"pos":     pos,
	})
}

func (a *app) dailyClosureReportHandler(c *gin.Context) {
	if !a.ready() {
		notReady(c)
		return
	}
	date, ok := resolveDateParam(c)
	if !ok {
		return
	}

	report, err := reports.GetDailyClosureReport(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, utils.ErrBusinessDayNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":         "business day not found",
				"business_date": date.Format(utils.BusinessDateLayout),
			})
			return
		}
		config.LogError(config.GetLogger(), "handlers", "dailyClosureReportHandler", "build report", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, report)
		return
	}

	filename := "daily-closure-" + date.Format(utils.BusinessDateLayout) + ".xlsx"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := report.WriteExcel(c.Writer); err != nil {
		config.LogError(config.GetLogger(), "handlers", "dailyClosureReportHandler", "write xlsx", date, err)
	}
}
