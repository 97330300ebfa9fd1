package domain

// VerificationStatus is the lifecycle state of a project's verification.
// Transitions are monotone: Unverified → Pending → Verified or Rejected.
// Verified and Rejected are terminal for admin action; a Rejected project may
// file a fresh request, which replaces the record with a Pending one.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusPending    VerificationStatus = "pending"
	StatusVerified   VerificationStatus = "verified"
	StatusRejected   VerificationStatus = "rejected"
)

// CanTransitionTo reports whether an admin decision may move the record from
// the current status to the target.
func (s VerificationStatus) CanTransitionTo(target VerificationStatus) bool {
	if s != StatusPending {
		return false
	}
	return target == StatusVerified || target == StatusRejected
}

// Terminal reports whether no further admin action is defined for the status.
func (s VerificationStatus) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

func (s VerificationStatus) String() string { return string(s) }
