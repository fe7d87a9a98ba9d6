package services

import apperrors "sprintpulse/internal/errors"

// Service errors
var (
	// Upload errors
	ErrInvalidFileType = apperrors.NewAppValidationError("invalid file type")

	// Remote errors
	ErrMissingBucket = apperrors.NewAppValidationError("bucket is required")
)
