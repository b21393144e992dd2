// Package prompt builds the instruction text sent to the language model for
// statement extraction.
package prompt

import (
	"fmt"
	"strings"
)

// CategoryHint is the slice of the user's taxonomy the model is allowed to
// use, snapshotted when the statement was submitted.
type CategoryHint struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

// bankSymbols are the bank codes the model is told to choose from for the
// "bank:" metadata line.
var bankSymbols = []string{"DBS", "POSB", "OCBC", "UOB", "HSBC", "SC", "CITI", "AMEX", "TRUST"}

// Build assembles the extraction prompt: output format rules, the allowed
// category vocabulary, per-category keyword hints, metadata line labels, one
// worked example, and finally the statement text verbatim. Deterministic for
// a given input.
func Build(statementText string, categories []CategoryHint) string {
	var b strings.Builder

	b.WriteString("You are given the text of one bank or credit card statement. ")
	b.WriteString("Extract every transaction as one line in exactly this format:\n")
	b.WriteString("{date}, {description}, {amount}, {category}\n")
	b.WriteString("Use DD MMM YYYY for the date (for example 28 Jun 2024) and a bare decimal for the amount, with no currency symbol or thousands separators.\n\n")

	b.WriteString("Allowed categories:\n")
	for _, c := range categories {
		b.WriteString("- ")
		b.WriteString(c.Title)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, c := range categories {
		if len(c.Keywords) == 0 {
			continue
		}
		fmt.Fprintf(&b, "If the description contains any of %s, categorize it as %s.\n",
			strings.Join(c.Keywords, ", "), c.Title)
	}
	b.WriteString("\n")

	b.WriteString("Also output exactly three metadata lines, using these labels:\n")
	fmt.Fprintf(&b, "bank: one of %s\n", strings.Join(bankSymbols, ", "))
	b.WriteString("statement date: the statement issue date as DD MMM YYYY\n")
	b.WriteString("total amount: the statement total as a bare decimal\n\n")

	b.WriteString("Example of two transaction lines:\n")
	b.WriteString("28 Jun 2024, Nespresso ION Singapore SG, 38.60, Food\n")
	b.WriteString("02 Jul 2024, Netflix.com, 19.98, Entertainment\n\n")

	b.WriteString("Statement text:\n")
	b.WriteString(statementText)

	return b.String()
}
