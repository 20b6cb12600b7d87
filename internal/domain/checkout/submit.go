package checkout

import "github.com/storefront/backend/internal/domain/shared"

// BeginSubmit marks a submission attempt as in flight
// Prior errors are cleared at the start of every attempt; the caller
// must have checked CanSubmitOrder, this re-checks it as the last gate
func (s *State) BeginSubmit() error {
	if !CanSubmitOrder(s) {
		return shared.NewDomainError("SUBMIT_BLOCKED", "Checkout is not ready for submission")
	}
	s.IsSubmitting = true
	s.Errors = make(map[string]string)
	return nil
}

// FailSubmit records a failed submission
// The rest of the aggregate is left untouched so the user can correct
// and retry without re-entering anything
func (s *State) FailSubmit(message string) {
	s.Errors["general"] = message
	s.IsSubmitting = false
}

// CompleteSubmit clears the in-flight flag after a confirmed order
func (s *State) CompleteSubmit() {
	s.IsSubmitting = false
}
