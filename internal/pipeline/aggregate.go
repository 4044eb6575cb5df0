package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/prospectml/leadscout/internal/model"
)

// Merge flattens hit lists in argument order and removes duplicates by the
// composite identity key fold(title) + "_" + link. The first occurrence
// wins and output order is first-seen stable, so downstream qualification is
// deterministic. Merging a list with itself yields the same output as
// merging it once.
func Merge(hitLists ...[]model.SearchHit) []model.SearchHit {
	var merged []model.SearchHit
	seen := make(map[string]struct{})

	for _, hits := range hitLists {
		for _, hit := range hits {
			key := dedupKey(hit)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, hit)
		}
	}

	return merged
}

// dedupKey builds the identity key for a hit. Titles are Unicode case-folded
// so the same company surfacing with different capitalization across sources
// collapses to one entry.
func dedupKey(hit model.SearchHit) string {
	title := cases.Fold().String(strings.TrimSpace(hit.Title))
	return title + "_" + strings.TrimSpace(hit.Link)
}

// FormatSnippets folds merged hits into the single grounding block consumed
// by the qualification model, one stanza per hit with its source label.
func FormatSnippets(hits []model.SearchHit) string {
	var b strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, hit.Title)
		if hit.Snippet != "" {
			fmt.Fprintf(&b, "%s\n", hit.Snippet)
		}
		fmt.Fprintf(&b, "URL: %s\nSource: %s (tier %d)\n\n", hit.Link, hit.SourceType, hit.Tier)
	}
	return strings.TrimRight(b.String(), "\n")
}
