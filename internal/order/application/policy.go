package application

// Stage names the steps of the order-creation pipeline in execution order.
type Stage string

const (
	StageRateLimit       Stage = "rate_limit"
	StageSanitize        Stage = "sanitize"
	StageValidate        Stage = "validate"
	StageBusinessRules   Stage = "business_rules"
	StageSafetyCheck     Stage = "safety_check"
	StageResolveEntities Stage = "resolve_entities"
	StageDuplicateCheck  Stage = "duplicate_check"
	StageWrite           Stage = "write"
	StageCacheInvalidate Stage = "cache_invalidate"
)

// FailureMode decides what an infrastructure error at a stage does to the
// submission. Validation outcomes are not errors and bypass this table.
type FailureMode int

const (
	// FailClosed aborts the pipeline, rolling back if a transaction is open.
	FailClosed FailureMode = iota
	// FailOpen records the error in telemetry and lets the order proceed.
	FailOpen
)

// stagePolicy is the single place failure semantics live. The duplicate
// guard fails open: refusing every order because an unrelated read failed
// is worse than occasionally letting a duplicate through. Cache eviction
// after commit fails open because a stale cache self-heals at TTL expiry
// while a rolled-back order does not. The rate limiter fails open for the
// same reason the duplicate guard does.
var stagePolicy = map[Stage]FailureMode{
	StageRateLimit:       FailOpen,
	StageSanitize:        FailClosed,
	StageValidate:        FailClosed,
	StageBusinessRules:   FailClosed,
	StageSafetyCheck:     FailClosed,
	StageResolveEntities: FailClosed,
	StageDuplicateCheck:  FailOpen,
	StageWrite:           FailClosed,
	StageCacheInvalidate: FailOpen,
}

func failsOpen(s Stage) bool { return stagePolicy[s] == FailOpen }
