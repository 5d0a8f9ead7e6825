// Package intel provides the external data collaborators the pipeline
// consults: store reputation records for the metadata stage and known
// vulnerability lookups for the dependency stage. Both are optional inputs
// with documented fallbacks, so an offline run still produces a verdict.
package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// ReputationRecord carries the store-side trust signals for an extension.
type ReputationRecord struct {
	Rating            float64 `json:"rating"`
	Users             int     `json:"users"`
	LastUpdated       string  `json:"last_updated"`
	VerifiedPublisher bool    `json:"verified_publisher"`
	DUNSNumber        string  `json:"duns_number,omitempty"`
	DeveloperEmail    string  `json:"developer_email"`
	DeveloperWebsite  string  `json:"developer_website"`
}

// FallbackRecord returns the neutral record used when no store data is
// available. The values match what an unlisted or delisted extension would
// present: average rating, small user base, unverified developer.
func FallbackRecord() *ReputationRecord {
	return &ReputationRecord{
		Rating:            4.0,
		Users:             1000,
		LastUpdated:       "2024-01-01T00:00:00Z",
		VerifiedPublisher: false,
		DeveloperEmail:    "unknown@example.com",
		DeveloperWebsite:  "https://example.com",
	}
}

// ReputationSource resolves store reputation for an extension ID. Callers
// substitute FallbackRecord when the lookup fails; a missing record is not a
// pipeline error.
type ReputationSource interface {
	Lookup(ctx context.Context, extensionID string) (*ReputationRecord, error)
}

// FileReputationSource reads reputation records from a JSON file mapping
// extension IDs to records. Useful for air-gapped audits and tests.
type FileReputationSource struct {
	records map[string]*ReputationRecord
}

// NewFileReputationSource loads a reputation snapshot from disk.
func NewFileReputationSource(path string) (*FileReputationSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reputation snapshot: %w", err)
	}

	var records map[string]*ReputationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing reputation snapshot: %w", err)
	}

	return &FileReputationSource{records: records}, nil
}

func (s *FileReputationSource) Lookup(ctx context.Context, extensionID string) (*ReputationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := s.records[extensionID]
	if !ok {
		return nil, fmt.Errorf("no reputation record for %q", extensionID)
	}
	return rec, nil
}
