package push

// Gateway defines the interface for delivering push notifications to
// registered device tokens.
type Gateway interface {
	// Send delivers a notification to a single device token.
	// Returns a provider message ID and an error if the send failed.
	Send(token, title, body string) (string, error)

	// GetName returns the name of the gateway implementation
	GetName() string
}
