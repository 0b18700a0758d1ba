package upstream

import "time"

// Statistics is the relevant subset of GET /api/statistics/ (spec §6).
type Statistics struct {
	DocumentsTotal int `json:"documents_total"`
	CharacterCount int `json:"character_count"`
}

// DocumentListPage is one page of GET /api/documents/.
type DocumentListPage struct {
	Count    int                `json:"count"`
	Next     *string            `json:"next"`
	Previous *string            `json:"previous"`
	Results  []DocumentListItem `json:"results"`
}

// DocumentListItem is the slim shape returned in a list page: enough to
// drive the sync engine's ordering and incremental early stop. Change
// detection still fetches each listed document in full.
type DocumentListItem struct {
	ID       int64     `json:"id"`
	Modified time.Time `json:"modified"`
}

// Document is GET /api/documents/{id}/'s relevant fields.
type Document struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Tags             []int64   `json:"tags"`
	Correspondent    *int64    `json:"correspondent"`
	DocumentType     *int64    `json:"document_type"`
	Created          time.Time `json:"created"`
	Modified         time.Time `json:"modified"`
	Added            time.Time `json:"added"`
	OriginalFileName string    `json:"original_file_name"`
}

// DocumentMetadata is GET /api/documents/{id}/metadata/'s relevant fields.
type DocumentMetadata struct {
	OriginalSize int64 `json:"original_size"`
	ArchiveSize  int64 `json:"archive_size"`
}

// ReferenceItem is one row of the paginated tag/correspondent/document-type
// reference endpoints.
type ReferenceItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// referencePage is the paginated envelope shared by the three reference
// endpoints.
type referencePage struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Results  []ReferenceItem `json:"results"`
}
