package s3io

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// PermissionError reports an S3 operation the caller's credentials are not
// allowed to perform.
type PermissionError struct {
	Bucket    string
	Operation string
	Key       string
}

func (e PermissionError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("your user doesn't have access to %s %q in S3 bucket %q\nCheck the policy attached to the configured profile", e.Operation, e.Key, e.Bucket)
	}
	return fmt.Sprintf("your user doesn't have access to %s in S3 bucket %q\nCheck the policy attached to the configured profile", e.Operation, e.Bucket)
}

// MissingProfileError reports an [aws] environment profile that is not in the
// caller's AWS shared configuration.
type MissingProfileError struct {
	Profile string
}

func (e MissingProfileError) Error() string {
	return fmt.Sprintf("profile %q is not in your AWS CLI configuration\nRun 'aws configure --profile %s' to create it", e.Profile, e.Profile)
}

// accessDenied reports whether err is an S3 AccessDenied response.
func accessDenied(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied"
}
