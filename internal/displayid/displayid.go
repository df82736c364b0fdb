// Package displayid generates short, memorable identifiers for
// human-facing log lines and the dashboard, the same way the rest of
// the pack names ephemeral infrastructure.
package displayid

import (
	vendor "github.com/anandvarma/namegen"
)

var gen = vendor.New()

type ID string

// Get returns a new adjective-noun identifier, used to name a scheduler
// instance (its framework ID, absent a restored one).
func Get() ID {
	return ID(gen.Get())
}

func (id ID) String() string {
	return string(id)
}
