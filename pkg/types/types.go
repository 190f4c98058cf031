package types

// Common response types

type ErrorResponse struct {
	Error string `json:"error"`
}

// Banner is the plain text body served at GET / by the presence server.
const Banner = "Voxta status server is running"
