package domain

// Reason classifies why a release does (or does not) need re-rendering.
type Reason string

const (
	ReasonNewRelease     Reason = "NEW_RELEASE"
	ReasonTargetMissing  Reason = "TARGET_MISSING"
	ReasonSourceChanged  Reason = "SOURCE_CHANGED"
	ReasonTargetChanged  Reason = "TARGET_CHANGED"
	ReasonValuesChanged  Reason = "VALUES_CHANGED"
	ReasonCIUserMismatch Reason = "CI_USER_MISMATCH"
	ReasonNoChange       Reason = "NO_CHANGE"
)

// RenderedRelease is the persisted fact about the last successful render of
// one release. Records are keyed by release name alone, so names must be
// unique across all environments sharing a state file.
type RenderedRelease struct {
	ReleaseName    string `json:"releaseName"`
	SourceChecksum string `json:"sourceChecksum"`
	TargetChecksum string `json:"targetChecksum"`
	ValuesChecksum string `json:"valuesChecksum"`
	RenderedBy     string `json:"renderedBy"`
}

// RenderedState is the full set of rendered-release records persisted
// between runs. The on-disk field is named "environments" for historical
// reasons; it holds release records.
type RenderedState struct {
	Environments []RenderedRelease `json:"environments"`
}

// Lookup returns the record for the given release name, or nil.
func (s *RenderedState) Lookup(releaseName string) *RenderedRelease {
	for i := range s.Environments {
		if s.Environments[i].ReleaseName == releaseName {
			return &s.Environments[i]
		}
	}
	return nil
}

// Upsert replaces any existing record for the release name with rec and
// appends it, so at most one record per name survives.
func (s *RenderedState) Upsert(rec RenderedRelease) {
	kept := s.Environments[:0]
	for _, existing := range s.Environments {
		if existing.ReleaseName != rec.ReleaseName {
			kept = append(kept, existing)
		}
	}
	s.Environments = append(kept, rec)
}
