package categories

import "github.com/Veraticus/autobudget/internal/model"

// Fixture is a predefined set of categories for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Description returns what the fixture is for.
	Description() string

	// Categories returns the category definitions included in this fixture.
	Categories() []Definition
}

type fixture struct {
	name        string
	description string
	categories  []Definition
}

func (f *fixture) Name() string             { return f.name }
func (f *fixture) Description() string      { return f.description }
func (f *fixture) Categories() []Definition { return f.categories }

// Predefined fixtures. IDs are fixed so tests can reference them in payloads.
var (
	// FixtureHousehold is the small mixed set most command tests use.
	FixtureHousehold = &fixture{
		name:        "Household",
		description: "Two expense categories and one income category",
		categories: []Definition{
			{ID: 1, Name: CategoryGroceries, Type: model.TypeExpense},
			{ID: 2, Name: CategoryTransport, Type: model.TypeExpense},
			{ID: 10, Name: CategorySalary, Type: model.TypeIncome},
		},
	}

	// FixtureReview adds a second income category so type filtering has
	// more than one candidate on each side.
	FixtureReview = NewCompositeFixture("Review", "Household plus interest income",
		FixtureHousehold,
		&fixture{categories: []Definition{{ID: 11, Name: CategoryInterest, Type: model.TypeIncome}}},
	)

	// FixtureComprehensive covers a full monthly budget.
	FixtureComprehensive = &fixture{
		name:        "Comprehensive",
		description: "Full budget for analytics and pagination tests",
		categories: []Definition{
			{ID: 1, Name: CategoryGroceries, Type: model.TypeExpense},
			{ID: 2, Name: CategoryTransport, Type: model.TypeExpense},
			{ID: 3, Name: CategoryRent, Type: model.TypeExpense},
			{ID: 4, Name: CategoryUtilities, Type: model.TypeExpense},
			{ID: 5, Name: CategoryDining, Type: model.TypeExpense},
			{ID: 6, Name: CategoryHealth, Type: model.TypeExpense},
			{ID: 7, Name: CategoryEntertainment, Type: model.TypeExpense},
			{ID: 10, Name: CategorySalary, Type: model.TypeIncome},
			{ID: 11, Name: CategoryInterest, Type: model.TypeIncome},
			{ID: 12, Name: CategoryRefunds, Type: model.TypeIncome},
		},
	}
)

// CompositeFixture combines fixtures, keeping the first definition for each name.
type CompositeFixture struct {
	name        string
	description string
	fixtures    []Fixture
}

// NewCompositeFixture creates a fixture that combines multiple fixtures.
func NewCompositeFixture(name, description string, fixtures ...Fixture) *CompositeFixture {
	return &CompositeFixture{
		name:        name,
		description: description,
		fixtures:    fixtures,
	}
}

func (c *CompositeFixture) Name() string        { return c.name }
func (c *CompositeFixture) Description() string { return c.description }

func (c *CompositeFixture) Categories() []Definition {
	seen := make(map[CategoryName]struct{})
	var defs []Definition

	for _, f := range c.fixtures {
		for _, d := range f.Categories() {
			if _, exists := seen[d.Name]; !exists {
				seen[d.Name] = struct{}{}
				defs = append(defs, d)
			}
		}
	}

	return defs
}
