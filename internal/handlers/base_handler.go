package handlers

import (
	"vinivici/internal/logger"
	"vinivici/internal/validator"
	"vinivici/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// 1. Base handler
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// ============================================================================
// 2. Binding and validation
// ============================================================================

// BindAndValidate_JSON binds a JSON body and writes the error response itself.
func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}

	if err := h.Validate(c, obj); err != nil {
		apperrors.HandleError(c, err)
		return false
	}
	return true
}

// BindAndValidate_Form binds a form body. Unlike the JSON variant it returns
// the error so page handlers can render it.
func (h *BaseHandler) BindAndValidate_Form(c *gin.Context, obj interface{}) error {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind form", err, "path", c.Request.URL.Path)
		return apperrors.NewBadRequestError("Invalid form: " + err.Error())
	}
	return h.Validate(c, obj)
}

// Validate runs the validator and converts failures into AppErrors.
func (h *BaseHandler) Validate(c *gin.Context, obj interface{}) error {
	ctx := c.Request.Context()

	err := h.validator.Validate(obj)
	if err == nil {
		return nil
	}
	if vErr, ok := err.(*validator.ValidationError); ok {
		logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
		return apperrors.ValidationError(vErr.Errors)
	}
	logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
	return apperrors.InternalError(err)
}

// ============================================================================
// 3. Error handling
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"code", appErr.Code,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}
