package ids

import "errors"

// ErrInvalidServiceID is returned for any malformed fully qualified service
// id: missing separator, extra separator, or an empty half.
var ErrInvalidServiceID = errors.New("invalid service id")
