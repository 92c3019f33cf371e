package gateway

import "github.com/terramo-esg/terramo/internal/models"

func bulkRequest(rows ...models.BulkResponse) models.BulkUpdateRequest {
	return models.BulkUpdateRequest{Status: models.StatusDraft, Responses: rows}
}
