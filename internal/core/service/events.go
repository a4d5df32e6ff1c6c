package service

// IdentityChangedEvent is published whenever something that feeds the
// identity snapshot changes: login, org switch, role or status change,
// membership grant, org deletion, avatar update. Consumers re-read the
// store; the event carries no payload beyond the subject.
type IdentityChangedEvent struct {
	UserId string
}

func (IdentityChangedEvent) EventName() string {
	return "identity.changed"
}
