package handler

import (
	"net/http"
	"strconv"

	"github.com/gasdist/backend/internal/infrastructure/logger"
	"github.com/gasdist/backend/internal/interfaces/http/dto"
	"github.com/gasdist/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// ExposeErrors puts the text of unexpected errors into 500 responses.
	// It is off in production.
	ExposeErrors bool
}

// NewBaseHandler creates a BaseHandler
func NewBaseHandler(exposeErrors bool) BaseHandler {
	return BaseHandler{ExposeErrors: exposeErrors}
}

// Success sends a 200 response with data as the body
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with the created record
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// ListResponse sends a page of records as a JSON array with the unpaginated total in
// the X-Total-Count header
func (h *BaseHandler) ListResponse(c *gin.Context, items any, total int64) {
	c.Header(dto.TotalCountHeader, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, items)
}

// Deleted sends the delete confirmation for a resource
func (h *BaseHandler) Deleted(c *gin.Context, resource string) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: resource + " deleted successfully"})
}

// Error sends an error response with an explicit status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, message)
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError converts an error returned by an application service into a
// response. Domain errors keep their message; anything else is logged and
// answered with 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, status, message, ok := dto.ClassifyError(err)
	if !ok {
		logger.GetGinLogger(c).Error("Unhandled error",
			zap.Error(err),
			zap.String("route", c.FullPath()),
		)
		message = "An unexpected error occurred"
		if h.ExposeErrors {
			message = err.Error()
		}
	}
	_ = c.Error(err)
	h.Error(c, status, code, message)
}

// BindJSON binds the request body into obj, answering 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into obj, answering 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// ParseID parses the :id path parameter
func (h *BaseHandler) ParseID(c *gin.Context) (uuid.UUID, bool) {
	return h.parseUUIDParam(c, "id")
}

func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// CurrentUserID returns the authenticated user's id
func (h *BaseHandler) CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	id, err := claims.GetUserUUID()
	if err != nil {
		h.Unauthorized(c, "Invalid user ID in token")
		return uuid.Nil, false
	}
	return id, true
}
