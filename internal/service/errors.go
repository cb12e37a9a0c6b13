package service

import (
	"errors"
	"log/slog"

	"decision-hub/internal/apperror"
)

// classify passes classified errors through and turns everything else into a storage failure
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	slog.Error("Storage operation failed", "error", err)
	return apperror.StorageFailure(err)
}
