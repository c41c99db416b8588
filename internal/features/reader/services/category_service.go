package services

import (
	"context"
	"database/sql"
	"fmt"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// CategoryService reads the category tree of a user
type CategoryService struct {
	db     *core.Database
	logger *core.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(db *core.Database, logger *core.Logger) *CategoryService {
	return &CategoryService{
		db:     db,
		logger: logger,
	}
}

// ListCategories returns every category of the user ordered by id
func (s *CategoryService) ListCategories(ctx context.Context, userID int) ([]models.Category, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, parent_id FROM reader_categories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		var parentID sql.NullInt64

		if err := rows.Scan(&category.ID, &category.UserID, &category.Name, &parentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		if parentID.Valid {
			id := int(parentID.Int64)
			category.ParentID = &id
		}

		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// FindAllChildCategories implements CategoryStore
func (s *CategoryService) FindAllChildCategories(ctx context.Context, userID int, categoryID *int) ([]models.Category, error) {
	categories, err := s.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	if categoryID == nil {
		return categories, nil
	}

	subtree, ok := collectDescendants(categories, *categoryID)
	if !ok {
		return nil, core.NewNotFoundError(fmt.Sprintf("category %d not found", *categoryID), nil)
	}

	return subtree, nil
}

// collectDescendants walks the parent links of an arena of categories and returns the
// root followed by its descendants in breadth-first order. Cycles are cut at the
// first revisit.
func collectDescendants(categories []models.Category, rootID int) ([]models.Category, bool) {
	byID := make(map[int]models.Category, len(categories))
	children := make(map[int][]int)

	for _, category := range categories {
		byID[category.ID] = category
		if category.ParentID != nil {
			children[*category.ParentID] = append(children[*category.ParentID], category.ID)
		}
	}

	root, ok := byID[rootID]
	if !ok {
		return nil, false
	}

	result := []models.Category{root}
	visited := map[int]bool{rootID: true}
	queue := []int{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, childID := range children[current] {
			if visited[childID] {
				continue
			}
			visited[childID] = true
			result = append(result, byID[childID])
			queue = append(queue, childID)
		}
	}

	return result, true
}

// CategoryResolver turns a category target into the set of categories to query
type CategoryResolver struct {
	store CategoryStore
}

// NewCategoryResolver creates a resolver over store
func NewCategoryResolver(store CategoryStore) *CategoryResolver {
	return &CategoryResolver{store: store}
}

// Resolve returns the category subtree addressed by target. The "all" target resolves
// to every category of the user and is named "all".
func (r *CategoryResolver) Resolve(ctx context.Context, userID int, target models.CategoryTarget) (models.CategorySet, error) {
	if target.All {
		categories, err := r.store.FindAllChildCategories(ctx, userID, nil)
		if err != nil {
			return models.CategorySet{}, err
		}
		return models.CategorySet{Name: models.AllCategories, All: true, Categories: categories}, nil
	}

	categoryID := target.CategoryID
	categories, err := r.store.FindAllChildCategories(ctx, userID, &categoryID)
	if err != nil {
		return models.CategorySet{}, err
	}
	if len(categories) == 0 {
		return models.CategorySet{}, core.NewNotFoundError(fmt.Sprintf("category %d not found", categoryID), nil)
	}

	return models.CategorySet{Name: categories[0].Name, Categories: categories}, nil
}
