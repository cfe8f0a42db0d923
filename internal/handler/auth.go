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
	"github.com/wavelink/authcore/pkg/logger"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register provisions a new tenant with its owner user.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid registration request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.authService.Register(ctx, &req, c.ClientIP())
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").
			String("email", req.Email).
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Registration failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login authenticates with email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.authService.Login(ctx, &req, c.ClientIP())
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("email", req.Email).
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Authentication failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Refresh rotates an access/refresh pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Refresh")

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Token refresh failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout revokes the session behind the presented access token.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	token := c.GetString(middleware.CtxAccessToken)
	if err := h.authService.Logout(ctx, token); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Logout failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("logged out"))
}

// LogoutAll revokes every session of the authenticated user.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "LogoutAll")

	userID := c.GetString(middleware.CtxUserID)
	if err := h.authService.LogoutAll(ctx, userID); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Logout failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("all sessions revoked"))
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")

	userID := c.GetString(middleware.CtxUserID)
	profile, err := h.authService.Profile(ctx, userID)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Profile lookup failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, profile)
}

// DeleteAccount removes the authenticated user and everything behind it.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "DeleteAccount")

	userID := c.GetString(middleware.CtxUserID)
	if err := h.authService.DeleteAccount(ctx, userID); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Account deletion failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("account deleted"))
}

// CheckUser reports whether an account exists for the email.
func (h *AuthHandler) CheckUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CheckUser")

	var req dto.CheckUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	exists, err := h.authService.CheckUser(ctx, req.Email)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Lookup failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, dto.CheckUserResponse{Exists: exists})
}

// VerifyEmail consumes a verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "VerifyEmail")

	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.authService.VerifyEmail(ctx, req.Token); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Verification failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("email verified"))
}

// ResendVerification issues a fresh verification token. The response does
// not reveal whether the account exists.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ResendVerification")

	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.authService.ResendVerification(ctx, req.Email); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Request failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("if the account exists, a verification email has been sent"))
}

// RequestPasswordReset answers identically whether or not the account
// exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "RequestPasswordReset")

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	_ = h.authService.RequestPasswordReset(ctx, req.Email)
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("if the account exists, a reset email has been sent"))
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ConfirmPasswordReset")

	var req dto.ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.authService.ConfirmPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Password reset failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("password updated, all sessions revoked"))
}
