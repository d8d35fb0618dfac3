package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/response"
)

type identityService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Profile(ctx context.Context, claims *models.StudentClaims) (*models.StudentIdentity, error)
}

// AuthHandler wires the student login to the identity service.
type AuthHandler struct {
	service identityService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc identityService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Resolve a student and open a session
// @Description Looks the name/id pair up in the identity feeds
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current student profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /students/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), student)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
