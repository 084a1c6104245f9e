package auction

// Status is the lifecycle phase of an auction. Transitions only move forward:
// Created → Funded → Open → Closed.
type Status uint8

const (
	StatusCreated Status = iota
	StatusFunded
	StatusOpen
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusFunded:
		return "funded"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}
