package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanKeywords(t *testing.T) {
	got := cleanKeywords([]string{" Nespresso ", "NETFLIX", "netflix", "", "  ", "grab"})
	assert.Equal(t, []string{"nespresso", "netflix", "grab"}, got)
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "food", NormalizeTitle("  Food "))
	assert.Equal(t, "", NormalizeTitle("   "))
}
