package appointment

import "errors"

var (
	// ErrNotFound means the appointment id did not resolve
	ErrNotFound = errors.New("appointment not found")

	// ErrLawyerNotFound means the lawyer id did not resolve
	ErrLawyerNotFound = errors.New("lawyer not found")

	// ErrLawyerUnavailable means the lawyer is inactive or unverified
	ErrLawyerUnavailable = errors.New("lawyer is not available for appointments")

	// ErrSlotTaken means an active appointment already occupies the window
	ErrSlotTaken = errors.New("lawyer is not available at the requested time")

	// ErrInvalidWindow means the requested date is not in the future or the
	// duration is out of range
	ErrInvalidWindow = errors.New("invalid appointment window")

	// ErrInvalidType means the appointment type is not in the known set
	ErrInvalidType = errors.New("unknown appointment type")

	// ErrInvalidTransition means the current status does not allow the
	// requested transition
	ErrInvalidTransition = errors.New("invalid status transition")
)
