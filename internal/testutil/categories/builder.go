// Package categories builds typed budget categories for tests.
//
// Example usage:
//
//	cats := categories.NewBuilder(t).
//		WithFixture(categories.FixtureHousehold).
//		WithIncome(categories.CategoryInterest).
//		Build()
//
//	groceries := cats.MustFind(t, categories.CategoryGroceries)
package categories

import (
	"sort"
	"testing"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
)

// CategoryName is a strongly-typed category name.
type CategoryName string

// String returns the string representation of the category name.
func (c CategoryName) String() string {
	return string(c)
}

// Expense category names used across tests.
const (
	CategoryGroceries     CategoryName = "Groceries"
	CategoryTransport     CategoryName = "Transport"
	CategoryRent          CategoryName = "Rent"
	CategoryUtilities     CategoryName = "Utilities"
	CategoryDining        CategoryName = "Dining Out"
	CategoryHealth        CategoryName = "Health"
	CategoryEntertainment CategoryName = "Entertainment"
)

// Income category names used across tests.
const (
	CategorySalary   CategoryName = "Salary"
	CategoryInterest CategoryName = "Interest"
	CategoryRefunds  CategoryName = "Refunds"
)

// CreatedAt is the creation time stamped on every built category.
var CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Definition describes one category before it is built. A zero ID is assigned on Build.
type Definition struct {
	Name CategoryName
	Type model.TransactionType
	ID   int
}

// Categories is a collection of built test categories, ordered by ID.
type Categories []model.Category

// Find returns the category with the given name, or nil if not found.
func (c Categories) Find(name CategoryName) *model.Category {
	for i := range c {
		if c[i].Name == name.String() {
			return &c[i]
		}
	}
	return nil
}

// MustFind returns the category with the given name, or fails the test if not found.
func (c Categories) MustFind(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat := c.Find(name)
	if cat == nil {
		t.Fatalf("category %q not found in test data", name)
	}
	return *cat
}

// Names returns all category names.
func (c Categories) Names() []string {
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name
	}
	return names
}

// OfType returns the categories of one transaction type.
func (c Categories) OfType(typ model.TransactionType) Categories {
	var out Categories
	for _, cat := range c {
		if cat.Type == typ {
			out = append(out, cat)
		}
	}
	return out
}

// CategoryMap provides lookup for categories by name.
type CategoryMap map[CategoryName]model.Category

// Get returns the category for the given name and whether it was found.
func (m CategoryMap) Get(name CategoryName) (model.Category, bool) {
	cat, ok := m[name]
	return cat, ok
}

// MustGet returns the category for the given name or fails the test.
func (m CategoryMap) MustGet(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat, ok := m.Get(name)
	if !ok {
		t.Fatalf("category %q not found in test data", name)
	}
	return cat
}

// Builder collects category definitions and turns them into model categories.
type Builder struct {
	t     *testing.T
	defs []Definition
}

// NewBuilder creates a category builder for the given test.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithCategory adds a category with an explicit ID.
func (b *Builder) WithCategory(id int, name CategoryName, typ model.TransactionType) *Builder {
	b.defs = append(b.defs, Definition{ID: id, Name: name, Type: typ})
	return b
}

// WithExpense adds expense categories with IDs assigned on Build.
func (b *Builder) WithExpense(names ...CategoryName) *Builder {
	for _, name := range names {
		b.defs = append(b.defs, Definition{Name: name, Type: model.TypeExpense})
	}
	return b
}

// WithIncome adds income categories with IDs assigned on Build.
func (b *Builder) WithIncome(names ...CategoryName) *Builder {
	for _, name := range names {
		b.defs = append(b.defs, Definition{Name: name, Type: model.TypeIncome})
	}
	return b
}

// WithBasicCategories adds two expense categories and one income category.
func (b *Builder) WithBasicCategories() *Builder {
	return b.WithExpense(CategoryGroceries, CategoryTransport).WithIncome(CategorySalary)
}

// WithFixture adds the categories of a predefined fixture.
func (b *Builder) WithFixture(fixture Fixture) *Builder {
	b.defs = append(b.defs, fixture.Categories()...)
	return b
}

// Build returns the categories ordered by ID. Specs without an ID get the
// next free one. Duplicate names or IDs fail the test.
func (b *Builder) Build() Categories {
	b.t.Helper()

	names := make(map[CategoryName]struct{}, len(b.defs))
	used := make(map[int]struct{}, len(b.defs))
	next := 1
	for _, d := range b.defs {
		if _, dup := names[d.Name]; dup {
			b.t.Fatalf("duplicate test category %q", d.Name)
		}
		names[d.Name] = struct{}{}
		if d.ID == 0 {
			continue
		}
		if _, dup := used[d.ID]; dup {
			b.t.Fatalf("duplicate test category ID %d", d.ID)
		}
		used[d.ID] = struct{}{}
		if d.ID >= next {
			next = d.ID + 1
		}
	}

	result := make(Categories, 0, len(b.defs))
	for _, d := range b.defs {
		id := d.ID
		if id == 0 {
			id = next
			next++
		}
		result = append(result, model.Category{
			ID:        id,
			Name:      d.Name.String(),
			Type:      d.Type,
			CreatedAt: CreatedAt,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// BuildMap builds the categories and indexes them by name.
func (b *Builder) BuildMap() CategoryMap {
	b.t.Helper()
	cats := b.Build()
	m := make(CategoryMap, len(cats))
	for _, cat := range cats {
		m[CategoryName(cat.Name)] = cat
	}
	return m
}
