package constant

const (
	ALREADY_EXISTS       = "%s already exists"
	CREATED              = "%s created successfully"
	UPDATED              = "%s updated successfully"
	DELETED              = "%s deleted successfully"
	INVALID_REQUEST      = "Invalid request payload"
	CANT_FIND            = "%s not found"
	SOMETHING_WENT_WRONG = "something went wrong"
	UNAUTHORIZED_ACCESS  = "unauthorized access"

	MESSAGE_QUEUED           = "Message accepted"
	MESSAGE_PLANNED          = "Message scheduled successfully"
	INVALID_PHONE            = "Invalid phone number format"
	PAGE_NUMBER_OUT_OF_RANGE = "page number out of range"
)
