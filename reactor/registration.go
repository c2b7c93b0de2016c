// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import "sync"

// registration is a generic api.Registration backed by a cancel closure.
// Cancel is idempotent: only the first call runs the closure.
type registration struct {
	mu       sync.Mutex
	canceled bool
	cancel   func()
}

func newRegistration(cancel func()) *registration {
	return &registration{cancel: cancel}
}

// Cancel implements api.Registration.
func (r *registration) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.canceled {
		return
	}
	r.canceled = true
	if r.cancel != nil {
		r.cancel()
	}
}
