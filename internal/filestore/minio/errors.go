package minio

import (
	"errors"
	"net/http"

	"github.com/koustreak/dbverify/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
)

// mapError translates a MinIO SDK error into a *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		}

		switch resp.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized, http.StatusServiceUnavailable:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		}
		return errs.Wrap(errs.ErrKindUnexpected, msg, err)
	}

	// Transport failures never produce an ErrorResponse.
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
