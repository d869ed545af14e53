package notify

import "errors"

// ErrDeliveryFailed indicates the endpoint rejected the report.
var ErrDeliveryFailed = errors.New("report delivery failed")
