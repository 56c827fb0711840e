package vision

import "errors"

// ErrRateLimited marks a provider throttling response. Callers treat it as
// retryable with backoff; every other backend error surfaces verbatim.
var ErrRateLimited = errors.New("extraction backend rate limited")
