package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/finsight/backend/internal/cache"
	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
	"github.com/finsight/backend/internal/problem"
	"github.com/finsight/backend/internal/store"
)

// Cache key scheme. Page keys can only be cleared wholesale: any write
// may reorder any page.
const pageKeyPrefix = "all-page-"

func idKey(id int64) string      { return fmt.Sprintf("id-%d", id) }
func nameKey(name string) string { return "name-" + name }
func pageKey(page pagination.Request) string {
	return fmt.Sprintf("%s%d-%d-%s", pageKeyPrefix, page.Page, page.Size, page.SortString())
}

// CategoryService serves global categories through a read cache.
// Invalidation runs only after the store commit succeeds.
type CategoryService struct {
	store *store.Store
	cache cache.Cache
}

func NewCategoryService(st *store.Store, c cache.Cache) *CategoryService {
	return &CategoryService{store: st, cache: c}
}

// List returns one page of categories, read through the cache.
func (s *CategoryService) List(ctx context.Context, page pagination.Request) (pagination.Page[models.Category], error) {
	key := pageKey(page)
	if cached, ok := s.cache.Get(ctx, key); ok {
		var result pagination.Page[models.Category]
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	content, total, err := s.store.ListCategories(ctx, page)
	if err != nil {
		return pagination.Page[models.Category]{}, problem.Internal(err)
	}
	result := pagination.NewPage(content, page, total)
	s.put(ctx, key, result)
	return result, nil
}

// Get returns a category by id, read through the cache.
func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	key := idKey(id)
	if cached, ok := s.cache.Get(ctx, key); ok {
		var c models.Category
		if err := json.Unmarshal(cached, &c); err == nil {
			return &c, nil
		}
	}

	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, mapCategoryErr(err, fmt.Sprintf("Category not found: %d", id))
	}
	s.put(ctx, key, c)
	return c, nil
}

// GetByName returns a category by its unique name, read through the cache.
func (s *CategoryService) GetByName(ctx context.Context, name string) (*models.Category, error) {
	key := nameKey(name)
	if cached, ok := s.cache.Get(ctx, key); ok {
		var c models.Category
		if err := json.Unmarshal(cached, &c); err == nil {
			return &c, nil
		}
	}

	c, err := s.store.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, mapCategoryErr(err, "Category not found: "+name)
	}
	s.put(ctx, key, c)
	return c, nil
}

// Create inserts a category; a taken name is a Conflict.
func (s *CategoryService) Create(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	c, err := s.store.CreateCategory(ctx, req)
	if err != nil {
		return nil, mapCategoryErr(err, "")
	}
	s.cache.Delete(ctx, nameKey(c.Name))
	s.cache.DeletePrefix(ctx, pageKeyPrefix)
	log.Printf("[CATEGORY] created %q (%d)", c.Name, c.ID)
	return c, nil
}

// Update mutates a category and evicts its id key, both the old and
// new name keys, and every page entry.
func (s *CategoryService) Update(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error) {
	existing, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, mapCategoryErr(err, fmt.Sprintf("Category not found: %d", id))
	}

	c, err := s.store.UpdateCategory(ctx, id, req)
	if err != nil {
		return nil, mapCategoryErr(err, fmt.Sprintf("Category not found: %d", id))
	}

	keys := []string{idKey(id), nameKey(existing.Name)}
	if c.Name != existing.Name {
		keys = append(keys, nameKey(c.Name))
	}
	s.cache.Delete(ctx, keys...)
	s.cache.DeletePrefix(ctx, pageKeyPrefix)
	return c, nil
}

// Delete removes a category; one still referenced by transactions is a
// Conflict via the store's foreign key.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	existing, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return mapCategoryErr(err, fmt.Sprintf("Category not found: %d", id))
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return mapCategoryErr(err, fmt.Sprintf("Category not found: %d", id))
	}

	s.cache.Delete(ctx, idKey(id), nameKey(existing.Name))
	s.cache.DeletePrefix(ctx, pageKeyPrefix)
	log.Printf("[CATEGORY] deleted %q (%d)", existing.Name, id)
	return nil
}

func (s *CategoryService) put(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.cache.Set(ctx, key, data)
	}
}

func mapCategoryErr(err error, notFoundDetail string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return problem.NotFound(notFoundDetail)
	case errors.Is(err, store.ErrDuplicateName):
		return problem.Conflict("Category name already exists")
	case errors.Is(err, store.ErrCategoryInUse):
		return problem.Conflict("Category is still referenced by transactions")
	default:
		return problem.Internal(err)
	}
}
