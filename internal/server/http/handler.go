package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=15"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=12,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required,jwt"`
}

type authResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ID           string `json:"id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeValidationFailed   = "VALIDATION_FAILED"
	codeEmailTaken         = "EMAIL_TAKEN"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeInvalidToken       = "INVALID_TOKEN"
	codeInternal           = "INTERNAL"
)

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}

	res, err := s.users.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.writeAuth(c, "Account created successfully", res)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.writeAuth(c, "Tokens created successfully", res)
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}

	res, err := s.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.writeAuth(c, "Tokens created successfully", res)
}

func (s *Server) me(c *gin.Context) {
	claims := claimsFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      claims.UserID,
		"email":   claims.Email,
	})
}

func (s *Server) writeAuth(c *gin.Context, msg string, res *services.AuthResult) {
	c.JSON(http.StatusOK, authResponse{
		Success:      true,
		Message:      msg,
		ID:           res.IdentityID,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (s *Server) abortValidation(c *gin.Context, err error) {
	s.logger.Debug(c.Request.Context(), "request rejected", "error", err)
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Code:    codeValidationFailed,
		Message: "Invalid request body",
	})
}

// abortWithError maps the service error kinds to status codes. Internal
// error text never reaches the client.
func (s *Server) abortWithError(c *gin.Context, err error) {
	var (
		status int
		body   errorResponse
	)

	switch {
	case errors.Is(err, common.ErrValidation):
		status, body = http.StatusBadRequest, errorResponse{Code: codeValidationFailed, Message: "Invalid request body"}
	case errors.Is(err, common.ErrEmailTaken):
		status, body = http.StatusConflict, errorResponse{Code: codeEmailTaken, Message: "User with this email already exists"}
	case errors.Is(err, common.ErrInvalidCredentials):
		status, body = http.StatusUnauthorized, errorResponse{Code: codeInvalidCredentials, Message: "Invalid email or password"}
	case errors.Is(err, common.ErrInvalidToken):
		status, body = http.StatusUnauthorized, errorResponse{Code: codeInvalidToken, Message: "Invalid token"}
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err, "path", c.FullPath())
		status, body = http.StatusInternalServerError, errorResponse{Code: codeInternal, Message: "Internal server error"}
	}

	c.AbortWithStatusJSON(status, body)
}
