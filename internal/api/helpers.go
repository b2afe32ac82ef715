package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/linreg"
	"github.com/samcharles93/qlinear/internal/registry"
	"github.com/samcharles93/qlinear/pkg/quant"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	errorsTotal.WithLabelValues(errType).Inc()
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}

// writeDomainError maps package sentinels onto HTTP statuses.
func writeDomainError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, artifact.ErrNotFound), errors.Is(err, registry.ErrNotFound):
		return writeNotFound(c, err.Error())
	case errors.Is(err, quant.ErrInvalidParameters):
		return writeError(c, http.StatusUnprocessableEntity, "invalid_parameters", err.Error())
	case errors.Is(err, quant.ErrInvalidState):
		return writeError(c, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case errors.Is(err, quant.ErrShapeMismatch), errors.Is(err, linreg.ErrShape):
		return writeError(c, http.StatusUnprocessableEntity, "shape_mismatch", err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest("decode body: %v", err)
	}
	return out, nil
}
