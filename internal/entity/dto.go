package entity

// StartSessionResponse is returned when a chat session is created.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
}

// QueryRequest is the body of a query call.
type QueryRequest struct {
	Question  string `json:"question"`
	UseTenant bool   `json:"use_tenant"`
}

// QueryResponse always carries well-formed answer text, even when the
// answer is a degraded fallback.
type QueryResponse struct {
	Answer string `json:"answer"`
}

// UploadDocumentResponse reports the outcome of a single-document tenant
// ingestion.
type UploadDocumentResponse struct {
	Namespace   string `json:"namespace"`
	ServiceName string `json:"service_name"`
	Chunks      int    `json:"chunks"`
}
