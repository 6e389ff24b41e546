// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the payment gateway and SMS clients.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
