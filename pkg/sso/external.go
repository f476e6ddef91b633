package sso

// ExternalStore is the (subscribe, getSnapshot) pair a hosting UI layer uses
// to read a field and re-render when it changes. The server snapshot is the
// same accessor as the client one.
type ExternalStore struct {
	Subscribe         func(onChange func()) (unsubscribe func())
	GetSnapshot       func() any
	GetServerSnapshot func() any
}

// External returns the external-store contract for this channel.
// An ExternalStore obtained before revocation stays usable: GetSnapshot
// returns the last value and Subscribe registers nothing.
func (c *Channel) External() ExternalStore {
	return ExternalStore{
		Subscribe:         c.Subscribe,
		GetSnapshot:       c.Read,
		GetServerSnapshot: c.Read,
	}
}
