// Package model holds the data types shared across the dedup core: the
// document corpus mirrored from the upstream backend, its derived content
// and MinHash signatures, duplicate groups and their members, sync state,
// and the dedup configuration record.
package model

import "time"

// ProcessingStatus tracks whether a document still needs (re-)analysis.
type ProcessingStatus string

const (
	// StatusPending marks a document whose content changed (or is new)
	// since its last successful signature generation.
	StatusPending ProcessingStatus = "pending"
	// StatusCompleted marks a document whose current signature reflects
	// its current content.
	StatusCompleted ProcessingStatus = "completed"
)

// Document mirrors one upstream document. Identity is the pair (ID,
// UpstreamID): ID is locally issued, UpstreamID is the backend's numeric id
// and is unique. Fingerprint is null (empty string) only for documents that
// have never been successfully ingested.
type Document struct {
	ID                int64
	UpstreamID        int64
	Title             string
	Correspondent     string
	DocumentType      string
	Tags              []string
	OriginalFileName  string
	Created           time.Time
	Added             time.Time
	Modified          time.Time
	OriginalFileSize  int64 // 0 means unknown/not yet fetched
	ArchiveFileSize   int64
	Fingerprint       string
	ProcessingStatus  ProcessingStatus
	SyncedAt          time.Time
}

// DocumentContent is 1:1 with Document, co-created/updated in the same
// atomic unit as its owner.
type DocumentContent struct {
	DocumentID     int64
	FullText       string // truncated at sync's max_ocr_length
	NormalizedText string // lowercased, whitespace-collapsed
	WordCount      int
	ContentHash    string // lowercase hex SHA-256 of NormalizedText
}

// DocumentSignature is 1:1 with Document but may lag behind it. Signatures
// whose NumPermutations doesn't match the active config are not comparable
// and are treated as absent (spec §3).
type DocumentSignature struct {
	DocumentID        int64
	MinHashSignature  []byte // len == NumPermutations * 4, little-endian u32 words
	AlgorithmVersion  string
	NumPermutations   int
	CreatedAt         time.Time
}

// DuplicateGroup is identified, for reconciliation purposes, by the sorted
// set of its member document ids -- not by ID (spec §9 design note).
type DuplicateGroup struct {
	ID                 string
	ConfidenceScore    float64
	JaccardSimilarity  float64
	FuzzyTextRatio     float64
	MetadataSimilarity float64
	FilenameSimilarity float64
	AlgorithmVersion   string
	Reviewed           bool
	Resolved           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DuplicateGroupMember links one Document into one DuplicateGroup. Every
// group has exactly one primary member.
type DuplicateGroupMember struct {
	GroupID    string
	DocumentID int64
	IsPrimary  bool
}

// SyncState is a singleton row tracking the last successful sync/analysis.
type SyncState struct {
	LastSyncAt             time.Time
	LastAnalysisAt         time.Time
	LastSyncDocumentCount  int
	TotalDocuments         int
	TotalDuplicateGroups   int
}
