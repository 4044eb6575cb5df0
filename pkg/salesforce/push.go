package salesforce

import (
	"context"

	"github.com/rotisserie/eris"
)

func (c *apiClient) InsertBatches(ctx context.Context, object string, records []map[string]any) ([]SaveResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var results []SaveResult
	for _, batch := range chunk(records, insertBatchLimit) {
		if err := c.throttle(ctx); err != nil {
			return results, err
		}

		// Results from batches that already landed survive a later failure,
		// so callers can report what was inserted before giving up.
		res, err := c.api.InsertCollection(object, batch, insertBatchLimit)
		if err != nil {
			return results, eris.Wrapf(err, "salesforce: insert %s batch of %d", object, len(batch))
		}
		for _, r := range res.Results {
			var msgs []string
			for _, e := range r.Errors {
				msgs = append(msgs, e.Message)
			}
			results = append(results, SaveResult{ID: r.Id, Success: r.Success, Errors: msgs})
		}
	}
	return results, nil
}

// chunk splits records into runs of at most size, preserving order.
func chunk(records []map[string]any, size int) [][]map[string]any {
	var batches [][]map[string]any
	for len(records) > size {
		batches = append(batches, records[:size])
		records = records[size:]
	}
	return append(batches, records)
}
