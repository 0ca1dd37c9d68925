package http

import (
	"errors"
	"io/fs"

	"ptanalysis/internal/analytics"
	"ptanalysis/internal/dataset"
	apierrors "ptanalysis/internal/errors"
	"ptanalysis/internal/services"
)

// toAPIError maps service errors to API errors. resource names the slug,
// download or image key of the request. Unrecognized errors are returned
// as they are.
func toAPIError(err error, resource string) error {
	var pageErr *services.PageError
	switch {
	case errors.Is(err, services.ErrUnknownPage):
		return apierrors.UnknownPageError(resource)
	case errors.Is(err, services.ErrUnknownDownload):
		return apierrors.UnknownDownloadError(resource)
	case errors.Is(err, services.ErrUnknownImage), errors.Is(err, services.ErrImageNotFound):
		return apierrors.NotFoundError("image " + resource)
	case errors.As(err, &pageErr):
		return apierrors.DataUnavailableError(pageErr.Err)
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, dataset.ErrMissingColumn),
		errors.Is(err, analytics.ErrNoUsageTotal),
		errors.Is(err, analytics.ErrNoSamples):
		return apierrors.DataUnavailableError(err)
	}
	return err
}
