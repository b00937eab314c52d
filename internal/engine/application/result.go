package application

type ItemState string

const (
	ItemApplied      ItemState = "applied"
	ItemInsufficient ItemState = "insufficient"
	ItemFailed       ItemState = "failed"
	ItemSkipped      ItemState = "skipped"
)

type ItemOutcome struct {
	ProductID string    `json:"productId"`
	Quantity  int64     `json:"quantity"`
	State     ItemState `json:"state"`
	Error     string    `json:"error,omitempty"`
}

// Result is what the invocation host sees. Per-item detail is carried for
// compensating workflows; it never leaves the process except through logs and
// the shortfall journal.
type Result struct {
	Code    int
	Message string
	Items   []ItemOutcome
}

func success(msg string) Result {
	return Result{Code: 200, Message: msg}
}

func failure(msg string) Result {
	return Result{Code: 500, Message: msg}
}

func (r Result) OK() bool { return r.Code == 200 }
