package menu

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int32  `json:"displayOrder"`
}

type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"imageUrl"`
	CategoryID  *int64          `json:"categoryId"`
	Available   bool            `json:"available"`
	Recommended bool            `json:"recommended"`
}

// Source is the read side of the menu collections.
type Source interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListAvailableItems(ctx context.Context) ([]Item, error)
}

type Section struct {
	Category Category `json:"category"`
	Items    []Item   `json:"items"`
}

type Catalog struct {
	Recommended []Item    `json:"recommended"`
	Sections    []Section `json:"sections"`
}

// BuildCatalog groups available items under their categories, categories
// ascending by display order. Items without a known category are dropped,
// the same way the table menu only renders items under a listed category.
func BuildCatalog(categories []Category, items []Item) Catalog {
	sorted := make([]Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayOrder == sorted[j].DisplayOrder {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].DisplayOrder < sorted[j].DisplayOrder
	})

	byCategory := make(map[int64][]Item, len(sorted))
	recommended := make([]Item, 0)
	for _, item := range items {
		if !item.Available {
			continue
		}
		if item.Recommended {
			recommended = append(recommended, item)
		}
		if item.CategoryID != nil {
			byCategory[*item.CategoryID] = append(byCategory[*item.CategoryID], item)
		}
	}

	sections := make([]Section, 0, len(sorted))
	for _, c := range sorted {
		list := byCategory[c.ID]
		if list == nil {
			list = []Item{}
		}
		sections = append(sections, Section{Category: c, Items: list})
	}

	return Catalog{Recommended: recommended, Sections: sections}
}

// Load fetches both collections and builds the catalog. Read failures
// degrade to an empty collection and are logged.
func Load(ctx context.Context, src Source, logger *zap.Logger) Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	categories, err := src.ListCategories(ctx)
	if err != nil {
		logger.Warn("menu categories fetch failed", zap.Error(err))
		categories = nil
	}
	items, err := src.ListAvailableItems(ctx)
	if err != nil {
		logger.Warn("menu items fetch failed", zap.Error(err))
		items = nil
	}
	return BuildCatalog(categories, items)
}

// AvailableByID indexes the items that can currently be ordered. Unlike Load
// a read failure is returned, never degraded.
func AvailableByID(ctx context.Context, src Source) (map[int64]Item, error) {
	items, err := src.ListAvailableItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Item, len(items))
	for _, item := range items {
		if item.Available {
			out[item.ID] = item
		}
	}
	return out, nil
}
