package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/dto"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/internal/service"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
)

type OAuthHandler struct {
	oauthService *service.OAuthService
}

func NewOAuthHandler(oauthService *service.OAuthService) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
	}
}

// GoogleAuthURL returns the consent-screen redirect target.
func (h *OAuthHandler) GoogleAuthURL(c *gin.Context) {
	url, err := h.oauthService.GoogleAuthURL(uuid.NewString())
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Provider not configured", apperrors.GetErrorMessage(err)))
		return
	}
	c.JSON(http.StatusOK, dto.OAuthURLResponse{URL: url})
}

// GoogleCallback completes the authorization-code flow.
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GoogleCallback")

	var req dto.GoogleCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.oauthService.HandleGoogleCallback(ctx, &req, c.ClientIP())
	if err != nil {
		logger.WarnWithContext(ctx, "Google sign-in failed").
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Sign-in failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}

// AppleAuthURL returns the authorization redirect target.
func (h *OAuthHandler) AppleAuthURL(c *gin.Context) {
	url, err := h.oauthService.AppleAuthURL(uuid.NewString())
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Provider not configured", apperrors.GetErrorMessage(err)))
		return
	}
	c.JSON(http.StatusOK, dto.OAuthURLResponse{URL: url})
}

// AppleCallback handles Apple's form_post redirect. The payload arrives as
// form fields, not JSON.
func (h *OAuthHandler) AppleCallback(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "AppleCallback")

	var req dto.AppleCallbackRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.oauthService.HandleAppleCallback(ctx, &req, c.ClientIP())
	if err != nil {
		logger.WarnWithContext(ctx, "Apple sign-in failed").
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Sign-in failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}

// AppleNative accepts an identity token from the native SDK flow.
func (h *OAuthHandler) AppleNative(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "AppleNative")

	var req dto.AppleNativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.oauthService.HandleAppleNative(ctx, &req, c.ClientIP())
	if err != nil {
		logger.WarnWithContext(ctx, "Apple native sign-in failed").
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Sign-in failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}
