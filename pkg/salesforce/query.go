package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// websiteRow is the single-column projection the dedup query decodes into.
type websiteRow struct {
	Website string `json:"Website" salesforce:"Website"`
}

func (c *apiClient) ExistingWebsites(ctx context.Context, object string, websites []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(websites))
	if len(websites) == 0 {
		return existing, nil
	}
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	literals := make([]string, len(websites))
	for i, site := range websites {
		literals[i] = soqlString(site)
	}
	soql := fmt.Sprintf("SELECT Website FROM %s WHERE Website IN (%s)",
		object, strings.Join(literals, ", "))

	var rows []websiteRow
	if err := c.api.Query(soql, &rows); err != nil {
		return nil, eris.Wrapf(err, "salesforce: query %s websites", object)
	}
	for _, row := range rows {
		existing[strings.ToLower(row.Website)] = true
	}
	return existing, nil
}

// soqlString renders s as a quoted SOQL string literal, escaping embedded
// quotes so caller-supplied websites cannot break out of the IN clause.
func soqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
