package units

import (
	"context"
	"fmt"

	"github.com/corona10/goimagehash"

	"percept/internal/analyze"
)

// PHash computes perceptual fingerprints for duplicate detection and
// similarity indexing downstream.
type PHash struct{}

func (PHash) Contribute(_ context.Context, snap *analyze.Snapshot) ([]analyze.Contribution, error) {
	img := snap.Artifact.Image

	perception, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("perception hash: %w", err)
	}
	average, err := goimagehash.AverageHash(img)
	if err != nil {
		return nil, fmt.Errorf("average hash: %w", err)
	}
	difference, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil, fmt.Errorf("difference hash: %w", err)
	}

	return []analyze.Contribution{{
		Category: "hash",
		Reason:   fmt.Sprintf("fingerprints %s / %s / %s", perception.ToString(), average.ToString(), difference.ToString()),
		Signals: map[string]any{
			"hash.perceptual": perception.ToString(),
			"hash.average":    average.ToString(),
			"hash.difference": difference.ToString(),
		},
	}}, nil
}
