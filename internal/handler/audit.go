package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/dto"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/internal/middleware"
	"github.com/wavelink/authcore/internal/service"
	ctxutil "github.com/wavelink/authcore/pkg/context"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// List returns the caller's tenant audit trail, newest first. The tenant
// scope comes from the session, never from the query string.
func (h *AuditHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ListAudit")

	pagination := constants.ParsePaginationParams(c)

	filter := dto.AuditFilter{
		TenantID: c.GetString(middleware.CtxTenantID),
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}

	entries, total, pageTotal, err := h.auditService.List(ctx, filter, pagination.Limit, pagination.Offset)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Audit retrieval failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildListResponse(total, pagination.Page, pageTotal, entries))
}
