package wire

// UploadAvatarRequest is the HTTP POST /upload_avatar_base64 request body.
type UploadAvatarRequest struct {
	// Avatar is a data URL: "data:image/<type>;base64,<payload>".
	Avatar string `json:"avatar"`
}

// UploadFileRequest is the HTTP POST /upload_file_base64 request body.
type UploadFileRequest struct {
	// File is base64 data, optionally prefixed with a data URL header.
	File string `json:"file"`
	// Name is the original file name; its extension is preserved.
	Name string `json:"name"`
}

// UploadResponse is returned by both upload endpoints.
type UploadResponse struct {
	// URL is the absolute retrieval URL of the stored blob.
	URL string `json:"url"`
}

// UploadRecord is the ledger entry returned by GET /uploads/:id.
type UploadRecord struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	OriginalName string `json:"originalName,omitempty"`
	StoredName   string `json:"storedName"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size"`
	// CreatedAt is milliseconds since the Unix epoch.
	CreatedAt int64 `json:"createdAt"`
}

// HealthResponse is returned by GET /healthz on the presence server.
type HealthResponse struct {
	Status string `json:"status"`
	// Online is the number of users with a registered connection.
	Online int `json:"online"`
}
