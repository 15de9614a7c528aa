package http

import (
	"errors"
	"net/http"

	"energydash/internal/analytics"
	"energydash/internal/dataprocessing"
	apierrors "energydash/internal/errors"
	"energydash/internal/exporter"
	"energydash/internal/services"
	"energydash/internal/session"
)

// toAPIError maps service and pipeline errors onto API errors. Errors it does
// not recognise pass through unchanged for the ErrorHandler to classify.
func toAPIError(err error) error {
	var regErr *analytics.RegressionError
	switch {
	case errors.As(err, &regErr), errors.Is(err, analytics.ErrInsufficientData):
		return apierrors.NotEnoughData(err)
	case errors.Is(err, dataprocessing.ErrUnknownDataset):
		return apierrors.NotFoundError("dataset")
	case errors.Is(err, analytics.ErrInvalidRequest),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, exporter.ErrUnknownFormat):
		return apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request", err.Error())
	case errors.Is(err, session.ErrSuperseded):
		return apierrors.ErrRequestSuperseded
	case errors.Is(err, services.ErrReloadInProgress):
		return apierrors.ErrReloadInProgress
	case errors.Is(err, services.ErrSnapshotUnavailable):
		return apierrors.ErrSnapshotUnavailable
	case errors.Is(err, services.ErrInvalidCredentials):
		return apierrors.ErrInvalidCredentials
	}
	return err
}
