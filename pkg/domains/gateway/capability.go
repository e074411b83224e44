package gateway

import (
	"context"
	"time"
)

// Capability is the black-box connection to the external chat network. One
// instance belongs to exactly one tenant session; the session consumes its
// events through the registered handler and never reaches past this boundary.
type Capability interface {
	// AddEventHandler registers the observer invoked for every lifecycle and
	// message event. Must be called before Initialize.
	AddEventHandler(handler func(evt interface{}))

	// Initialize connects and authenticates. When no stored credentials
	// exist, the capability emits QRChallengeEvents until the challenge is
	// answered.
	Initialize() error

	// Destroy releases the underlying connection resources.
	Destroy()

	Contacts(ctx context.Context) ([]ContactInfo, error)
	ProfilePictureURL(ctx context.Context, address string) (string, error)
	SelfInfo(ctx context.Context) (*SelfInfo, error)
	Send(ctx context.Context, address string, body string, media *Media) error
}

// CapabilityFactory builds a capability for a tenant, rooted at the tenant's
// session storage directory. A fresh capability is created for every session
// instance, including reconnects.
type CapabilityFactory func(tenantID uint, sessionDir string) (Capability, error)

// SelfInfo is the network-assigned identity of a connected tenant.
type SelfInfo struct {
	NetworkID   string
	DisplayName string
	PhoneNumber string
	AvatarURL   string
}

// ContactInfo is one entry of the capability's contact book.
type ContactInfo struct {
	Address   string
	Name      string
	Phone     string
	AvatarURL string
	Kind      string
}

// Media is an optional binary payload attached to an outbound message.
type Media struct {
	Filename string
	MimeType string
	Data     []byte
}

// Lifecycle and message events emitted by a capability.

// QRChallengeEvent carries a login challenge code to present to the user.
type QRChallengeEvent struct {
	Code string
}

// ReadyEvent fires when the capability is authenticated and usable.
type ReadyEvent struct{}

// DisconnectedEvent fires when the connection is lost. The owning session is
// torn down and replaced after the reconnect delay.
type DisconnectedEvent struct {
	Reason string
}

// AuthFailureEvent fires when the network rejects the stored credentials.
type AuthFailureEvent struct {
	Reason string
}

// StateChangedEvent reports a connectivity change that is not a full
// disconnect.
type StateChangedEvent struct {
	Connected bool
}

// MessageEvent is an inbound message from another party.
type MessageEvent struct {
	From      string
	Body      string
	Timestamp time.Time
	IsGroup   bool
	Mentions  []string
}

// SelfMessageEvent is the echo of a message sent by the tenant itself.
type SelfMessageEvent struct {
	To        string
	Body      string
	Timestamp time.Time
	IsGroup   bool
}
