package server

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/randalmurphal/flowlens/pkg/flowlens/analyzer"
	"github.com/randalmurphal/flowlens/pkg/flowlens/errors"
	"github.com/randalmurphal/flowlens/pkg/flowlens/models"
)

// Error codes returned in the "code" field.
const (
	CodeBadRequest     = "bad_request"
	CodeValidation     = "validation_failed"
	CodeFlowNotFound   = "flow_not_found"
	CodeModelNotFound  = "model_not_found"
	CodeBuiltinModel   = "builtin_model"
	CodeAnalysisFailed = "analysis_failed"
	CodeBusUnavailable = "events_disabled"
	CodeInternal       = "internal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// fail maps a domain error to its status and code.
func fail(c *gin.Context, err error) {
	var verr *errors.ValidationError
	switch {
	case stderrors.Is(err, analyzer.ErrFlowNotFound):
		abort(c, http.StatusNotFound, CodeFlowNotFound, err)
	case stderrors.Is(err, models.ErrModelNotFound):
		abort(c, http.StatusNotFound, CodeModelNotFound, err)
	case stderrors.Is(err, models.ErrBuiltinModel):
		abort(c, http.StatusConflict, CodeBuiltinModel, err)
	case stderrors.As(err, &verr):
		abort(c, http.StatusBadRequest, CodeValidation, err)
	default:
		abort(c, http.StatusInternalServerError, CodeInternal, err)
	}
}
