package citation

import "context"

// Query is the evidence handed to a verification source: the raw citation
// text, its structural decomposition, and whatever the extractor learned from
// surrounding context.  Extracted fields are corroborating evidence only; a
// source must be able to answer from Parsed alone.
type Query struct {
	CitationText      string
	Parsed            ParsedCitation
	ExtractedCaseName string
	ExtractedDate     string
}

// Source is the "verify against one external source" capability.  The
// verification engine receives an ordered []Source at construction and tries
// them strictly in that order, short-circuiting on the first success.
//
// Contract: a Source returns (result, nil) on a definitive answer, verified
// or not.  It returns a non-nil error only for failures that say nothing
// about the citation itself (timeouts, 5xx, decode failures); the engine
// decides between retry and fallthrough based on the error's code.
type Source interface {
	// Name is the stable identifier recorded in VerificationResult.Source
	// and metric labels.
	Name() string

	// Verify checks one citation against the source.
	Verify(ctx context.Context, q Query) (VerificationResult, error)
}
