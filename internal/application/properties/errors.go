package properties

import "fmt"

// Operation identifies a listings API call. Its String form is the fixed
// message surfaced to consumers when the call fails.
type Operation string

const (
	OpListAll     Operation = "Failed to fetch properties"
	OpGetByID     Operation = "Failed to fetch property"
	OpListByCity  Operation = "Failed to fetch properties by city"
	OpListByState Operation = "Failed to fetch properties by state"
	OpSearch      Operation = "Failed to search properties"
	OpFeatured    Operation = "Failed to fetch featured properties"
	OpCreate      Operation = "Failed to create property"
	OpUpdate      Operation = "Failed to update property"
	OpDelete      Operation = "Failed to delete property"
)

func (o Operation) String() string { return string(o) }

// FailureKind says which stage of a call failed.
type FailureKind string

const (
	KindNetwork FailureKind = "network"
	KindStatus  FailureKind = "http-status"
	KindDecode  FailureKind = "decode"
	KindEncode  FailureKind = "encode"
)

// RetrievalFailure is the single error type returned by the listings client.
// Error() only ever returns the operation's fixed message; Kind, StatusCode
// and the wrapped cause are kept for callers that want to branch on them.
type RetrievalFailure struct {
	Op         Operation
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *RetrievalFailure) Error() string {
	return e.Op.String()
}

func (e *RetrievalFailure) Unwrap() error {
	return e.Err
}

// Detail describes the underlying cause, for logs.
func (e *RetrievalFailure) Detail() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s: status %d", e.Kind, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return string(e.Kind)
	}
}
