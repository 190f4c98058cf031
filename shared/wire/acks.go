package wire

// Reply codes carried in the "code" field of every server reply.
const (
	CodeFailure = 0
	CodeSuccess = 1
)

// Presence status values.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Reply error strings. Internal error distinctions are folded into these
// before they reach the wire.
const (
	ErrAuthenticationFailed = "authentication_failed"
	ErrNotAuthenticated     = "not_authenticated"
	ErrInvalidUserID        = "invalid_user_id"
	ErrTokenExpired         = "token_expired"
	ErrServerError          = "server_error"
)

// AuthenticatedReply is the server -> client "authenticated" payload.
type AuthenticatedReply struct {
	// Code is CodeSuccess or CodeFailure.
	Code int `json:"code"`
	// Status is "online" on success.
	Status string `json:"status,omitempty"`
	// Error is ErrAuthenticationFailed on failure.
	Error string `json:"error,omitempty"`
}

// StatusReply is the server -> client "get_status_return" payload.
type StatusReply struct {
	// Code is CodeSuccess or CodeFailure.
	Code int `json:"code"`
	// Status is "online" or "offline" on success.
	Status string `json:"status,omitempty"`
	// Error names the failure when Code is CodeFailure.
	Error string `json:"error,omitempty"`
	// Type echoes the request's type field verbatim, including null.
	Type any `json:"type"`
}

// AuthenticatedOK builds the success reply for "authenticate".
func AuthenticatedOK() AuthenticatedReply {
	return AuthenticatedReply{Code: CodeSuccess, Status: StatusOnline}
}

// AuthenticationFailed builds the failure reply for "authenticate".
func AuthenticationFailed() AuthenticatedReply {
	return AuthenticatedReply{Code: CodeFailure, Error: ErrAuthenticationFailed}
}

// StatusOK builds a success reply for "get_status".
func StatusOK(online bool, typ any) StatusReply {
	status := StatusOffline
	if online {
		status = StatusOnline
	}
	return StatusReply{Code: CodeSuccess, Status: status, Type: typ}
}

// StatusError builds a failure reply for "get_status".
func StatusError(errCode string, typ any) StatusReply {
	return StatusReply{Code: CodeFailure, Error: errCode, Type: typ}
}
