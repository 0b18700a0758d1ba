package model

import "time"

// AnalysisOptions configures one run of the analysis orchestrator.
type AnalysisOptions struct {
	// Force, when true, re-examines every document regardless of
	// ProcessingStatus (spec Stage 2) and widens the candidate search scope
	// to all signed documents (Stage 5).
	Force bool
	// OnProgress is invoked with a non-decreasing fraction in [0,1] and a
	// human-readable stage message. May be nil.
	OnProgress ProgressFunc
}

// SyncOptions configures one run of the sync engine.
type SyncOptions struct {
	ForceFullSync        bool
	PageSize             int
	MaxOCRLength         int
	MetadataConcurrency  int
	PurgeBeforeSync      bool
	OnProgress           ProgressFunc
}

// ProgressFunc reports fractional progress and a stage message. Fractions
// are non-decreasing within one run and reach exactly 1.0 on completion.
type ProgressFunc func(fraction float64, message string)

// AnalysisResult is returned by a completed (or partially completed)
// analysis run.
type AnalysisResult struct {
	DocumentsAnalyzed    int
	SignaturesGenerated  int
	SignaturesReused     int
	CandidatePairsFound  int
	CandidatePairsScored int
	GroupsCreated        int
	GroupsUpdated        int
	GroupsRemoved        int
	DurationMS           int64
	Errors               []string
}

// SyncResult is returned by a completed (or partially completed) sync run.
type SyncResult struct {
	Inserted   int
	Updated    int
	Skipped    int
	Deleted    int
	DurationMS int64
	Errors     []string
	Success    bool
}

// ScoringPayload carries the fields of one document needed to score it
// against another (spec §4.6). SampledText is populated only when the
// fuzzy weight is active (Stage 6).
type ScoringPayload struct {
	DocumentID       int64
	UpstreamID       int64
	Title            string
	Correspondent    string
	DocumentType     string
	OriginalFileName string
	OriginalFileSize int64
	ArchiveFileSize  int64
	Created          time.Time
	SampledText      string
}

// CandidatePair is a scored or pre-scoring candidate, keyed by canonical
// (min,max) document id pair per spec Stage 5.
type CandidatePair struct {
	DocA, DocB int64 // DocA < DocB always
	Jaccard    float64

	Overall            float64
	FuzzyTextRatio     float64
	MetadataSimilarity float64
	FilenameSimilarity float64
}

// CanonicalPairKey returns the two ids in ascending order, matching the
// dedup rule in spec Stage 5 ("canonical pair (min_id, max_id)").
func CanonicalPairKey(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}
