package client

import (
	"fmt"
)

// SetInterestFilter registers a handler to serve Interests under
// name. A nil action removes the registration, delivering FINAL to
// the old handler on its last reference.
func (h *Handle) SetInterestFilter(name []byte, action *Closure) error {
	if h.checkNamebuf(name, -1, false) < 0 {
		return h.noteErr(fmt.Errorf("%w: bad filter name", ErrInvalid))
	}
	key := name[1 : len(name)-1]
	e, isNew := h.interestFilters.seek(key)
	if isNew {
		e.val = &interestFilter{}
	}
	h.replaceHandler(&e.val.action, action)
	if action == nil {
		h.interestFilters.remove(key)
	}
	return nil
}
