package tracker

// ChangeType classifies a tracked input relative to the last committed
// snapshot.
type ChangeType int

const (
	Unchanged ChangeType = iota
	Added
	Modified
	Removed
	// Directory marks an entry that is not a file. Producers may report
	// directories; consumers ignore them.
	Directory
)

func (c ChangeType) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Directory:
		return "directory"
	default:
		return "unknown"
	}
}

// TrackedInput is one file path with its change classification.
type TrackedInput struct {
	Path   string
	Change ChangeType
}
