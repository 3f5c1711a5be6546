package entity

import "time"

// Document is the raw text pulled out of a single source artifact.
// It is a transient value: produced by an extractor, consumed by the
// chunker, then discarded.
type Document struct {
	// SourceRef is the path or logical name the text was extracted from.
	SourceRef string
	// Text is the full extracted text, pages/values joined in source order.
	Text string
	// SourceLabel is an optional category label (e.g. the folder a batch
	// file came from). Propagated onto every chunk.
	SourceLabel string
}

// Chunk is a bounded, overlap-preserving segment of a document's text.
// Chunks are immutable after creation; their slice order is the only
// ordering guarantee and must be preserved through ingestion.
type Chunk struct {
	Text        string
	SourceLabel string
}

// TenantState tracks the lifecycle of an ephemeral per-user namespace.
type TenantState string

const (
	TenantUninitialized TenantState = "UNINITIALIZED"
	TenantProvisioned   TenantState = "PROVISIONED"
	TenantIngesting     TenantState = "INGESTING"
	TenantReady         TenantState = "READY"
	TenantTornDown      TenantState = "TORN_DOWN"
)

// Tenant identifies one session's isolated namespace in the search service.
// Exactly one session owns a Tenant; the tenant manager is the only
// component allowed to advance its state.
type Tenant struct {
	ID          string
	Namespace   string
	ServiceName string
	State       TenantState
	CreatedAt   time.Time
}

// ConversationState is the per-session state the query loop keeps between
// turns. Only the bounded running summary is retained, never the full
// transcript.
type ConversationState struct {
	Summary string
	Turns   int
}

// IndexSelector picks the index a retrieval runs against: the shared
// default index, or a tenant's private namespace.
type IndexSelector struct {
	UseTenant   bool
	Namespace   string
	ServiceName string
}

// RetrievalResult distinguishes "no context found" (empty Chunks) from
// "retrieval unavailable" (Unavailable set). It is never an error.
type RetrievalResult struct {
	Chunks      []string
	Unavailable bool
}

// ChunkRecord is the wire shape of one ingested chunk: name is the source
// label, data the chunk text. The batch pipeline also stages these as CSV
// rows with the header "name,data".
type ChunkRecord struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// FileReport is the outcome of ingesting a single source file.
type FileReport struct {
	Path   string
	Chunks int
	Err    error
}

// IngestReport is the per-file tally a batch ingestion returns instead of
// failing on the first bad file.
type IngestReport struct {
	Files      []FileReport
	FilesOK    int
	FilesFail  int
	Chunks     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// TeardownResult is the explicit outcome of a namespace teardown. A failed
// teardown is logged by the caller and never raised past it.
type TeardownResult struct {
	Namespace string
	Err       error
}

// OK reports whether the teardown fully succeeded.
func (r TeardownResult) OK() bool { return r.Err == nil }
