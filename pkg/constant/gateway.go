package constant

// Tenant connection status, projected from the live session state.
const (
	STATUS_DISCONNECTED = "DISCONNECTED"
	STATUS_SCANNING     = "SCANNING"
	STATUS_CONNECTED    = "CONNECTED"
)

// Message direction and delivery status.
const (
	DIRECTION_IN  = "IN"
	DIRECTION_OUT = "OUT"

	MESSAGE_SENT      = "SENT"
	MESSAGE_SCHEDULED = "SCHEDULED"
	MESSAGE_FAILED    = "FAILED"
)

// Contact kinds upserted during contact synchronization.
const (
	CONTACT_PERSONAL  = "PERSONAL"
	CONTACT_GROUP     = "GROUP"
	CONTACT_COMMUNITY = "COMMUNITY"
)

// Canonical address suffixes used by the normalizer and the classifier.
const (
	PERSON_SUFFIX = "@c.us"
	GROUP_SUFFIX  = "@g.us"
)

// Push channel event names.
const (
	EVENT_QR     = "qr"
	EVENT_STATUS = "status"
)

// Fallback body used when a resolved template is empty.
const DEFAULT_MESSAGE_BODY = "Hello!"

// Per-class default auto-reply templates, used when a toggle is enabled but
// its template was never set.
const (
	DEFAULT_REPLY_PERSONAL = "Thanks for your message, we will get back to you shortly."
	DEFAULT_REPLY_GROUP    = "Thanks for the mention of our group, an admin will follow up."
	DEFAULT_REPLY_TAG      = "You tagged us, we will respond as soon as possible."
)
