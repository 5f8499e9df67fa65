package errors

// ErrorCode identifies a failure category.  Codes are stable strings so they
// can be emitted as metric labels and compared across process restarts.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	CodeOK                 ErrorCode = "OK"
	CodeUnknown            ErrorCode = "COMMON_000"
	CodeInternal           ErrorCode = "COMMON_001"
	CodeInvalidParam       ErrorCode = "COMMON_002"
	CodeNotFound           ErrorCode = "COMMON_003"
	CodeTimeout            ErrorCode = "COMMON_004"
	CodeRateLimit          ErrorCode = "COMMON_005"
	CodeSerialization      ErrorCode = "COMMON_006"
	CodeInvalidConfig      ErrorCode = "COMMON_007"
	CodeServiceUnavailable ErrorCode = "COMMON_008"
)

// Citation pipeline error codes.
const (
	// CodeCitationUnparseable marks citation text that cannot be split into
	// volume / reporter / page.  Verification of such a citation is skipped,
	// not failed.
	CodeCitationUnparseable ErrorCode = "CITE_001"

	// CodeReporterUnknown marks a reporter abbreviation outside the pattern
	// library.
	CodeReporterUnknown ErrorCode = "CITE_002"

	// CodeDocumentTooLarge marks input text exceeding the configured cap.
	CodeDocumentTooLarge ErrorCode = "CITE_003"
)

// Verification error codes.
const (
	// CodeSourceUnavailable marks a transient outbound failure (timeout,
	// connection reset, 5xx) after retries were exhausted for one source.
	CodeSourceUnavailable ErrorCode = "VERIFY_001"

	// CodeSourceRejected marks a definitive negative from a source (404, or
	// a well-formed response with zero results).
	CodeSourceRejected ErrorCode = "VERIFY_002"

	// CodeSourceMalformed marks a response that could not be decoded.
	CodeSourceMalformed ErrorCode = "VERIFY_003"

	// CodeAuthRequired marks a 401/403 from a source that needs a token.
	CodeAuthRequired ErrorCode = "VERIFY_004"
)

// Cache error codes.
const (
	CodeCacheMiss        ErrorCode = "CACHE_001"
	CodeCacheUnavailable ErrorCode = "CACHE_002"
)
