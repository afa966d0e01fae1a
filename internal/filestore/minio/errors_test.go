package minio

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/koustreak/dbverify/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.ErrKindConnectionFailed},
		{"bad bucket name", miniogo.ErrorResponse{Code: "InvalidBucketName", StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidInput},
		{"unavailable", miniogo.ErrorResponse{Code: "ServiceUnavailable", StatusCode: http.StatusServiceUnavailable}, errs.ErrKindConnectionFailed},
		{"other s3 error", miniogo.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, errs.ErrKindUnexpected},
		{"transport", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
		{"deadline", context.DeadlineExceeded, errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "op failed")
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err))
			assert.Contains(t, err.Error(), "op failed")
		})
	}

	assert.NoError(t, mapError(nil, "op failed"))
}
