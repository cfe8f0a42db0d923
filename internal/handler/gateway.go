package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/dto"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/internal/middleware"
	"github.com/wavelink/authcore/internal/service"
	ctxutil "github.com/wavelink/authcore/pkg/context"
)

type GatewayHandler struct {
	gatewayService *service.GatewayService
}

func NewGatewayHandler(gatewayService *service.GatewayService) *GatewayHandler {
	return &GatewayHandler{
		gatewayService: gatewayService,
	}
}

// Exchange mints an opaque gateway token for the authenticated session.
func (h *GatewayHandler) Exchange(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GatewayExchange")

	userID := c.GetString(middleware.CtxUserID)
	tenantID := c.GetString(middleware.CtxTenantID)

	response, err := h.gatewayService.Exchange(ctx, userID, tenantID, c.ClientIP())
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Token exchange failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Validate is the internal endpoint realtime infrastructure calls. It
// always answers 200; the verdict is in the body.
func (h *GatewayHandler) Validate(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GatewayValidate")

	var req dto.GatewayValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	c.JSON(http.StatusOK, h.gatewayService.Validate(ctx, req.Token))
}

// Revoke invalidates a gateway token before its natural expiry.
func (h *GatewayHandler) Revoke(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GatewayRevoke")

	var req dto.GatewayValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.gatewayService.Revoke(ctx, req.Token); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Revocation failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("token revoked"))
}
