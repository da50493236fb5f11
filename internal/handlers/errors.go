package handlers

import (
	"errors"

	"github.com/eddie-kann/astrokiddo/internal/services"
	apperrors "github.com/eddie-kann/astrokiddo/pkg/errors"
)

// mapServiceError translates service sentinels into client-facing errors.
// Anything unrecognised falls through to a generic 500 without leaking detail.
func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrDeckNotFound):
		return apperrors.ErrDeckNotFound
	case errors.Is(err, services.ErrSlideNotFound):
		return apperrors.ErrSlideNotFound
	case errors.Is(err, services.ErrApodNotFound):
		return apperrors.ErrApodNotFound
	case errors.Is(err, services.ErrApodDateOutOfRange):
		return apperrors.NewBadRequest(err.Error())
	case errors.Is(err, services.ErrGenerationFailed):
		return apperrors.ErrGenerationFailed.WithInternal(err)
	case errors.Is(err, services.ErrApodFetchFailed):
		return apperrors.ErrApodFetchFailed.WithInternal(err)
	case errors.Is(err, services.ErrSynthesisFailed):
		return apperrors.ErrTTSFailed.WithInternal(err)
	case errors.Is(err, services.ErrContentCorrupt):
		return apperrors.ErrDeckContentCorrupt.WithInternal(err)
	default:
		return apperrors.ErrInternalServer.WithInternal(err)
	}
}
