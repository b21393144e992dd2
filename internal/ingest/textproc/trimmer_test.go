package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrim(t *testing.T) {
	markers := []string{"Important Information", "Terms and Conditions"}

	t.Run("cuts at first marker occurrence", func(t *testing.T) {
		in := "28 Jun 2024 coffee 3.50\nImportant Information\nlegal footer text"
		out := Trim(in, markers)
		assert.Equal(t, "28 Jun 2024 coffee 3.50\n", out)
	})

	t.Run("no-op when no marker present", func(t *testing.T) {
		in := "plain transaction lines only"
		assert.Equal(t, in, Trim(in, markers))
	})

	t.Run("empty text returns empty", func(t *testing.T) {
		assert.Equal(t, "", Trim("", markers))
	})

	t.Run("empty marker list returns input", func(t *testing.T) {
		assert.Equal(t, "abc", Trim("abc", nil))
	})

	t.Run("later marker still applies to shrunk remainder", func(t *testing.T) {
		in := "keep\nTerms and Conditions\nmiddle\nImportant Information\ntail"
		// First marker cuts at "Important Information"; the second then cuts
		// the remainder at "Terms and Conditions".
		out := Trim(in, markers)
		assert.Equal(t, "keep\n", out)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := "head\nImportant Information\ntail"
		once := Trim(in, markers)
		assert.Equal(t, once, Trim(once, markers))
	})
}
