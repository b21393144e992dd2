package categorization

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCategories() []Category {
	return []Category{
		{ID: uuid.New(), Title: "Food", Keywords: []string{"nespresso", "mcdonald"}},
		{ID: uuid.New(), Title: "Entertainment", Keywords: []string{"netflix", "spotify"}},
		{ID: uuid.New(), Title: "Coffee", Keywords: []string{"nespresso", "starbucks"}},
	}
}

func TestEngine_Categorize(t *testing.T) {
	cats := testCategories()
	engine := NewEngine(cats)

	t.Run("matches case-insensitive substring", func(t *testing.T) {
		m := engine.Categorize("NETFLIX.COM 19.98")
		require.NotNil(t, m)
		assert.Equal(t, "Entertainment", m.Title)
		assert.Equal(t, cats[1].ID, m.CategoryID)
	})

	t.Run("last listed category wins on shared keyword", func(t *testing.T) {
		// "nespresso" belongs to both Food and Coffee; Coffee is listed
		// later so it takes precedence.
		m := engine.Categorize("Nespresso ION Singapore SG")
		require.NotNil(t, m)
		assert.Equal(t, "Coffee", m.Title)
	})

	t.Run("no keyword means no match", func(t *testing.T) {
		assert.Nil(t, engine.Categorize("SP DIGITAL utilities"))
	})

	t.Run("empty description", func(t *testing.T) {
		assert.Nil(t, engine.Categorize(""))
	})
}

func TestEngine_EmptyTaxonomy(t *testing.T) {
	engine := NewEngine(nil)
	assert.True(t, engine.IsEmpty())
	assert.Nil(t, engine.Categorize("anything"))

	engine.Build([]Category{{ID: uuid.New(), Title: "Misc", Keywords: []string{"  ", ""}}})
	assert.True(t, engine.IsEmpty(), "blank keywords are skipped")
}

func TestEngine_Rebuild(t *testing.T) {
	engine := NewEngine(testCategories())
	require.NotNil(t, engine.Categorize("spotify premium"))

	engine.Build([]Category{{ID: uuid.New(), Title: "Transport", Keywords: []string{"grab"}}})
	assert.Nil(t, engine.Categorize("spotify premium"))

	m := engine.Categorize("GRAB *RIDE SG")
	require.NotNil(t, m)
	assert.Equal(t, "Transport", m.Title)
}

func TestEngine_CategorizeBatch(t *testing.T) {
	engine := NewEngine(testCategories())
	results := engine.CategorizeBatch([]string{"starbucks reserve", "unknown merchant", "McDonald's"})

	require.Len(t, results, 3)
	require.NotNil(t, results[0])
	assert.Equal(t, "Coffee", results[0].Title)
	assert.Nil(t, results[1])
	require.NotNil(t, results[2])
	assert.Equal(t, "Food", results[2].Title)
}

func TestTitleResolver_Resolve(t *testing.T) {
	cats := testCategories()
	r := NewTitleResolver(cats)

	t.Run("exact fold match", func(t *testing.T) {
		c := r.Resolve("  entertainment ")
		require.NotNil(t, c)
		assert.Equal(t, cats[1].ID, c.ID)
	})

	t.Run("fuzzy near miss", func(t *testing.T) {
		c := r.Resolve("Entertainmnt")
		require.NotNil(t, c)
		assert.Equal(t, "Entertainment", c.Title)
	})

	t.Run("nothing close enough", func(t *testing.T) {
		assert.Nil(t, r.Resolve("zzzz"))
	})

	t.Run("blank title", func(t *testing.T) {
		assert.Nil(t, r.Resolve("   "))
	})
}
