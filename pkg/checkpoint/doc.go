// Package checkpoint persists resume state between fetch runs.
//
// A checkpoint records the highest message id seen and the set of ids that
// reached a terminal outcome (downloaded, already present, filtered, skipped
// or failed). On restart the engine streams only ids above LastID and skips
// anything already in the processed set.
//
// The file is plain JSON:
//
//	{"last_id": 1042, "processed_ids": [1040, 1041, 1042], "failed_ids": [1041]}
//
// Saves are atomic (temporary file, fsync, rename), so a crash leaves either
// the old or the new state on disk. A missing or corrupt file loads as an
// empty checkpoint.
package checkpoint
