package api

import (
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/secretmask"
)

// mapAppError maps a component error's apperrors.Kind to an HTTP error
// response, the boundary translation spec §7 calls for. Messages that
// might carry provider request details are masked before leaving the
// process.
func mapAppError(err error) *echo.HTTPError {
	msg := secretmask.Mask(err.Error())

	switch apperrors.KindOf(err) {
	case apperrors.KindInputInvalid:
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	case apperrors.KindStateConflict:
		return echo.NewHTTPError(http.StatusConflict, msg)
	case apperrors.KindIndexSchemaConflict:
		return echo.NewHTTPError(http.StatusConflict, msg)
	case apperrors.KindExtractEmpty:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)
	case apperrors.KindProviderAuth, apperrors.KindProviderBadRequest:
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	case apperrors.KindProviderRateLimited, apperrors.KindProviderTimeout, apperrors.KindProviderUnavailable:
		return echo.NewHTTPError(http.StatusServiceUnavailable, msg)
	default:
		slog.Error("unexpected internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
