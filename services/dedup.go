package services

import (
	"arts_scrooper/identity"
	"arts_scrooper/models"
)

// Deduplicate returns the candidates whose identity key is not already
// stored. Candidates are not checked against each other.
func Deduplicate(existing []models.Event, candidates []models.RawEvent) []models.RawEvent {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[identity.EventKey(e)] = struct{}{}
	}

	fresh := make([]models.RawEvent, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[identity.RawKey(c)]; dup {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh
}
