package types

import (
	"reflect"
	"strings"
	"time"

	r3diff "github.com/r3labs/diff/v3"
	"golang.org/x/exp/slices"
)

// Snapshot is a point in time capture of the assets under one scope.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type Snapshot struct {
	ID         string         `json:"id"`
	Scope      string         `json:"scope"`
	Query      string         `json:"query,omitempty"`
	AssetTypes []string       `json:"asset_types,omitempty"`
	TakenAt    time.Time      `json:"taken_at"`
	Records    []*AssetRecord `json:"records"`
}

// SnapshotDiff holds the record level differences between two snapshots.
type SnapshotDiff struct {
	Added   []*AssetRecord `json:"added,omitempty"`
	Removed []*AssetRecord `json:"removed,omitempty"`
	Changed []RecordChange `json:"changed,omitempty"`
}

// RecordChange names a record present in both snapshots along with the field
// changes between its two versions.
type RecordChange struct {
	Name    string           `json:"name"`
	Changes r3diff.Changelog `json:"changes"`
}

// Empty indicates the two snapshots held identical records.
func (d *SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Sort orders records by name for stable output.
func (s *Snapshot) Sort() {
	slices.SortFunc(s.Records, func(a, b *AssetRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// timestamps churn on every capture and don't indicate a change worth reporting
func diffFilter(_ []string, _ reflect.Type, field reflect.StructField) bool {
	switch field.Name {
	case "CreatedAt", "UpdatedAt":
		return false
	default:
		return true
	}
}

// Diff compares the snapshot against a later capture of the same scope and
// returns the records added, removed and changed between the two.
func (s *Snapshot) Diff(newer *Snapshot) (*SnapshotDiff, error) {
	differ, err := r3diff.NewDiffer(r3diff.Filter(diffFilter))
	if err != nil {
		return nil, err
	}

	current := map[string]*AssetRecord{}
	for _, rec := range s.Records {
		current[rec.Name] = rec
	}

	result := &SnapshotDiff{}
	seen := map[string]bool{}

	for _, rec := range newer.Records {
		seen[rec.Name] = true

		previous, exists := current[rec.Name]
		if !exists {
			result.Added = append(result.Added, rec)
			continue
		}

		changelog, err := differ.Diff(previous, rec)
		if err != nil {
			return nil, err
		}

		if len(changelog) > 0 {
			result.Changed = append(result.Changed, RecordChange{Name: rec.Name, Changes: changelog})
		}
	}

	for _, rec := range s.Records {
		if !seen[rec.Name] {
			result.Removed = append(result.Removed, rec)
		}
	}

	slices.SortFunc(result.Changed, func(a, b RecordChange) int {
		return strings.Compare(a.Name, b.Name)
	})

	return result, nil
}
