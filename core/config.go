package core

import "time"

// Tunables for the rename engine. These mirror the teacher's
// single-block-of-named-constants shape but are re-scoped to what a
// rename session actually needs.

const (
	// DefaultOperationTimeout bounds a commit run started through
	// renamectl when the caller does not supply its own context
	// deadline. Preview runs are not bounded by it.
	DefaultOperationTimeout = 30 * time.Second

	// DirExistenceCacheExpiration controls how long a directory
	// listing snapshot used by the EnumerateItems disambiguator stays
	// valid before it is re-read from disk.
	DirExistenceCacheExpiration = 2 * time.Minute

	// ReplaceResultCacheExpiration controls how long a cached
	// (pattern, flags, source) -> replaced result is reused across
	// preview runs.
	ReplaceResultCacheExpiration = 3 * time.Minute

	// MaxComponentLength truncates an overlong source string before
	// handing it to the regex adapter, per spec.md §4.3's edge case
	// ("a source string longer than the platform's path-component
	// limit is truncated at the component limit").
	MaxComponentLength = 255

	// MaxDisambiguationAttempts bounds how many numeric suffixes the
	// disambiguator will try before giving up and leaving the name
	// unresolved.
	MaxDisambiguationAttempts = 10000

	// DisambiguationCounterStart is the first suffix the disambiguator
	// tries, resolving spec.md §9's "implementation-defined but
	// deterministic" open question (see SPEC_FULL.md).
	DisambiguationCounterStart = 1
)
