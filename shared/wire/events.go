package wire

// Socket.IO event names exchanged with presence clients.
const (
	// EventAuthenticate is sent by a client to bind its connection to a user.
	EventAuthenticate = "authenticate"
	// EventAuthenticated is the server reply to EventAuthenticate.
	EventAuthenticated = "authenticated"
	// EventGetStatus asks whether a user currently holds a connection.
	EventGetStatus = "get_status"
	// EventGetStatusReturn is the server reply to EventGetStatus.
	EventGetStatusReturn = "get_status_return"
)

// AuthenticatePayload is the client -> server "authenticate" payload.
type AuthenticatePayload struct {
	// Token is the signed bearer token carrying a userId claim.
	Token string `json:"token"`
}

// GetStatusPayload is the client -> server "get_status" payload.
//
// Both fields are kept untyped: id_user must be validated by the handler
// (a non-string value is a server error, not a decode error) and type is
// echoed back verbatim whatever its shape.
type GetStatusPayload struct {
	// IDUser is the user whose presence is queried.
	IDUser any `json:"id_user"`
	// Type is an opaque client correlation value.
	Type any `json:"type"`
}
