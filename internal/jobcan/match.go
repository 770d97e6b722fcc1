package jobcan

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

// minimum Jaro-Winkler similarity for a fuzzy group name match
const groupMatchThreshold = 0.85

func normalizeGroupName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// MatchGroup picks the group whose id or name equals query, or failing that,
// the group whose name is most similar to it. Ties go to the earlier group.
func MatchGroup(groups []Group, query string) (Group, error) {
	target := normalizeGroupName(query)
	if target == "" {
		return Group{}, fmt.Errorf("empty group name")
	}

	for _, g := range groups {
		if g.ID == strings.TrimSpace(query) || normalizeGroupName(g.Name) == target {
			return g, nil
		}
	}

	var best Group
	var bestSimilarity float64
	for _, g := range groups {
		similarity := matchr.JaroWinkler(target, normalizeGroupName(g.Name), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = g
		}
	}
	if bestSimilarity < groupMatchThreshold {
		names := make([]string, len(groups))
		for i, g := range groups {
			names[i] = g.Name
		}
		return Group{}, fmt.Errorf(
			"no group matches %q (available: %s)",
			query, strings.Join(names, ", "),
		)
	}
	return best, nil
}
