package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/sanitize"
)

const modulesIndex = "modules"

// ModuleIndex keeps a full-text index of educational modules.
type ModuleIndex interface {
	IndexModule(m *entity.Module) error
	DeleteModule(id uuid.UUID) error
	// SearchModules returns matching module ids in relevance order.
	SearchModules(ctx context.Context, q string, offset, limit int) ([]uuid.UUID, int64, error)
}

type meiliModuleIndex struct {
	client meilisearch.ServiceManager
}

func NewMeiliModuleIndex(client meilisearch.ServiceManager) ModuleIndex {
	s := &meiliModuleIndex{client: client}
	s.initIndex()
	return s
}

func (s *meiliModuleIndex) initIndex() {
	log := logging.With("meilisearch")

	filterable := []any{"category", "type", "status"}
	if _, err := s.client.Index(modulesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("failed to update modules filterable attributes")
	}

	sortable := []string{"created_at", "views"}
	if _, err := s.client.Index(modulesIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Warn().Err(err).Msg("failed to update modules sortable attributes")
	}

	searchable := []string{"title", "description", "category"}
	if _, err := s.client.Index(modulesIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Warn().Err(err).Msg("failed to update modules searchable attributes")
	}
}

type moduleDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Views       int64  `json:"views"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *meiliModuleIndex) IndexModule(m *entity.Module) error {
	doc := moduleDoc{
		ID:          m.ID.String(),
		Title:       m.Title,
		Description: sanitize.Text(m.Description),
		Category:    m.Category,
		Type:        m.Type,
		Status:      m.Status,
		Views:       m.Views,
		CreatedAt:   m.CreatedAt.Unix(),
	}

	task, err := s.client.Index(modulesIndex).AddDocuments([]moduleDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	logging.Debug().
		Str("module_id", doc.ID).
		Int64("task_uid", task.TaskUID).
		Msg("module indexed")
	return nil
}

func (s *meiliModuleIndex) DeleteModule(id uuid.UUID) error {
	_, err := s.client.Index(modulesIndex).DeleteDocument(id.String())
	return err
}

type searchHits struct {
	Hits []struct {
		ID string `json:"id"`
	} `json:"hits"`
	EstimatedTotalHits int64 `json:"estimatedTotalHits"`
}

func (s *meiliModuleIndex) SearchModules(ctx context.Context, q string, offset, limit int) ([]uuid.UUID, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	raw, err := s.client.Index(modulesIndex).SearchRaw(q, &meilisearch.SearchRequest{
		Offset:               int64(offset),
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, 0, err
	}

	var res searchHits
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, res.EstimatedTotalHits, nil
}

func strPtr(s string) *string {
	return &s
}
