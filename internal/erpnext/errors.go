package erpnext

import "fmt"

// UploadError is a terminal HTTP failure from the target platform. It carries
// the status code and the response body verbatim so the platform's own error
// message reaches the operator.
type UploadError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q failed: status %d: %s", e.Resource, e.StatusCode, e.Body)
}

// retryable reports whether a status code is worth another attempt. Server
// errors are transient; client errors are not.
func retryable(status int) bool {
	return status >= 500
}
