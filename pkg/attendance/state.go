package attendance

// State is a step of Mark. Each step checks before it writes, so a failed
// Mark can be rerun from the start.
type State int

const (
	Uninitialized State = iota
	HeaderEnsured
	RowEnsured
	ColumnEnsured
	Written
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case HeaderEnsured:
		return "header ensured"
	case RowEnsured:
		return "row ensured"
	case ColumnEnsured:
		return "column ensured"
	case Written:
		return "written"
	default:
		return "unknown"
	}
}
