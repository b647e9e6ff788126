package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(scenario|start|end|resolution|content), dates as YYYY-MM-DD.
// content is the ContentHash of the scenario definition, so editing an
// amount or a rate yields a new run_id.
// Returns hex-encoded hash (64 characters).
func ComputeRunID(scenario string, start, end time.Time, resolution, content string) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		scenario,
		start.Format(time.DateOnly),
		end.Format(time.DateOnly),
		resolution,
		content,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ContentHash returns the hex SHA256 of a canonical encoding.
func ContentHash(canonical []byte) string {
	hash := sha256.Sum256(canonical)
	return hex.EncodeToString(hash[:])
}
