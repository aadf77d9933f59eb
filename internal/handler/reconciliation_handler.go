package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telecom-recon/internal/service"
	"telecom-recon/pkg/logger"
	"telecom-recon/pkg/response"
)

type ReconciliationHandler struct {
	reconService  service.ReconciliationService
	commitService service.CommitService
}

func NewReconciliationHandler(reconService service.ReconciliationService, commitService service.CommitService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconService:  reconService,
		commitService: commitService,
	}
}

// Run godoc
// @Summary Run reconciliation for a batch
// @Description Classify every operator record of the batch label against the eligible sale pool. Serves the cached result when available.
// @Tags reconciliation
// @Produce json
// @Param label path string true "Batch label"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconciliation/{label}/run [post]
func (h *ReconciliationHandler) Run(c *gin.Context) {
	label := c.Param("label")

	result, err := h.reconService.Reconcile(c.Request.Context(), label)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_label", label).Error("Reconciliation failed")
		response.InternalError(c, "Reconciliation failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Reconciliation completed", result)
}

// Reprocess godoc
// @Summary Reprocess a batch
// @Description Drop the cached result for the batch label and run a fresh classification pass.
// @Tags reconciliation
// @Produce json
// @Param label path string true "Batch label"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconciliation/{label}/reprocess [post]
func (h *ReconciliationHandler) Reprocess(c *gin.Context) {
	label := c.Param("label")

	result, err := h.reconService.Reprocess(c.Request.Context(), label)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_label", label).Error("Reprocessing failed")
		response.InternalError(c, "Reprocessing failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Batch reprocessed", result)
}

type CommitRequest struct {
	ActingUser string `json:"acting_user" binding:"required"`
}

// Commit godoc
// @Summary Commit found matches
// @Description Persist the found bucket of the batch's current classification as reconciled links, with per-batch failure isolation.
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param label path string true "Batch label"
// @Param request body CommitRequest true "Commit request"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconciliation/{label}/commit [post]
func (h *ReconciliationHandler) Commit(c *gin.Context) {
	label := c.Param("label")

	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	result, err := h.reconService.Reconcile(c.Request.Context(), label)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_label", label).Error("Classification before commit failed")
		response.InternalError(c, "Commit failed", err.Error())
		return
	}

	summary, err := h.commitService.CommitFound(c.Request.Context(), result, req.ActingUser)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_label", label).Error("Commit failed")
		response.InternalError(c, "Commit failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Commit completed", summary)
}

type ManualLinkRequest struct {
	OperatorRecordID int64  `json:"operator_record_id" binding:"required"`
	SaleID           int64  `json:"sale_id" binding:"required"`
	Note             string `json:"note"`
	ActingUser       string `json:"acting_user" binding:"required"`
}

// ManualLink godoc
// @Summary Manually link an operator record to a sale
// @Description Create a manual reconciliation link chosen by a human, bypassing key classification. Atomic with the sale confirmation and audit entry.
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body ManualLinkRequest true "Manual link request"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconciliation/manual-link [post]
func (h *ReconciliationHandler) ManualLink(c *gin.Context) {
	var req ManualLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	link, err := h.commitService.CommitManual(c.Request.Context(), req.OperatorRecordID, req.SaleID, req.Note, req.ActingUser)
	if err != nil {
		logger.GetLogger().WithError(err).WithFields(map[string]interface{}{
			"operator_record_id": req.OperatorRecordID,
			"sale_id":            req.SaleID,
		}).Error("Manual link failed")
		response.InternalError(c, "Manual link failed", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, "Manual link created", link)
}

// Divergences godoc
// @Summary List value divergences for a batch
// @Description Compare operator-reported values against sale values for every reconciled pair of the batch.
// @Tags reconciliation
// @Produce json
// @Param label path string true "Batch label"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconciliation/{label}/divergences [get]
func (h *ReconciliationHandler) Divergences(c *gin.Context) {
	label := c.Param("label")

	findings, err := h.reconService.Divergences(c.Request.Context(), label)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_label", label).Error("Divergence scan failed")
		response.InternalError(c, "Divergence scan failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Divergence scan completed", findings)
}

// Gaps godoc
// @Summary List sales missing from operator reports
// @Description Eligible sales never referenced by any reconciled link.
// @Tags reconciliation
// @Produce json
// @Param label path string true "Batch label"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconciliation/{label}/gaps [get]
func (h *ReconciliationHandler) Gaps(c *gin.Context) {
	label := c.Param("label")

	findings, err := h.reconService.Gaps(c.Request.Context(), label)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_label", label).Error("Gap scan failed")
		response.InternalError(c, "Gap scan failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Gap scan completed", findings)
}

// Batches godoc
// @Summary List known batch labels
// @Tags reconciliation
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconciliation/batches [get]
func (h *ReconciliationHandler) Batches(c *gin.Context) {
	labels, err := h.reconService.ListBatchLabels(c.Request.Context())
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list batch labels")
		response.InternalError(c, "Failed to list batches", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Batches retrieved", labels)
}
