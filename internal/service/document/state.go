package document

type State string

const (
	StatePending State = "pending"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

type Status struct {
	DocumentId string
	State      State
	Err        error
}
