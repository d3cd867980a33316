package remote

import (
	"fmt"
	"net/http"

	"github.com/roach88/fieldsync/internal/store"
)

// Messages returned in Result.Error.
const (
	MsgTransport             = "An error occurred while communicating with the server."
	MsgUnexpectedResponse    = "Unexpected response from the server."
	MsgListAggregatorsFailed = "Failed to get aggregators. Please try again later."
)

// Endpoint describes one remote operation and what counts as success.
type Endpoint struct {
	Method string
	Path   string

	// Exact, when non-zero, is the only accepted status. Otherwise any 2xx
	// is accepted.
	Exact int

	// Unexpected is reported for a 2xx status that is not Exact and whose
	// body carries no error field.
	Unexpected string
}

// accepts reports whether status counts as success.
func (e Endpoint) accepts(status int) bool {
	if e.Exact != 0 {
		return status == e.Exact
	}
	return is2xx(status)
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

func failureMessage(status int) string {
	return fmt.Sprintf("Request failed with status code %d", status)
}

// ListAggregators fetches every registered aggregator.
var ListAggregators = Endpoint{
	Method:     http.MethodGet,
	Path:       "/aggregator/all",
	Exact:      http.StatusOK,
	Unexpected: MsgListAggregatorsFailed,
}

var submitEndpoints = map[store.RecordType]Endpoint{
	store.Aggregator: {
		Method:     http.MethodPost,
		Path:       "/aggregator/register",
		Exact:      http.StatusCreated,
		Unexpected: MsgUnexpectedResponse,
	},
	store.FarmerGroup: {
		Method: http.MethodPost,
		Path:   "/farmer-group/create",
	},
	store.Farmer: {
		Method: http.MethodPost,
		Path:   "/farmers/register",
	},
	store.TrainingSession: {
		Method: http.MethodPost,
		Path:   "/training",
	},
}

// SubmitEndpoint returns the endpoint records of type t are posted to.
func SubmitEndpoint(t store.RecordType) (Endpoint, bool) {
	ep, ok := submitEndpoints[t]
	return ep, ok
}
