package koios

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrUnexpectedStatus = errors.New("koios: unexpected status")

type addressTxsRequest struct {
	Addresses []string `json:"_addresses"`
}

type txInfoRequest struct {
	TxHashes []string `json:"_tx_hashes"`
	Inputs   bool     `json:"_inputs"`
	Assets   bool     `json:"_assets"`
}

// StatusError is returned when Koios answers with a non-2xx status that is
// not worth retrying, or when retries ran out.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code: %d, %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

func retryable(statusCode int) bool {
	return statusCode == 429 || statusCode >= 500
}
