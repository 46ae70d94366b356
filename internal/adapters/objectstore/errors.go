package objectstore

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for object storage operations.
var (
	ErrInvalidConfig = errors.New("objectstore: invalid configuration")
	ErrNotFound      = errors.New("objectstore: object not found")
	ErrAccessDenied  = errors.New("objectstore: access denied")
	ErrUploadFailed  = errors.New("objectstore: upload failed")
	ErrDeleteFailed  = errors.New("objectstore: delete failed")
	ErrInvalidKey    = errors.New("objectstore: invalid key")
)

// wrapS3Error maps provider error codes onto the sentinels above. The
// original error is formatted with %v so callers match on sentinels only.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}
	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
