package search

import "strings"

// specialChars lists entity remnants and typographic characters that search
// providers leave in titles and snippets. Order matters: removals are applied
// one after another.
var specialChars = []string{
	"&quot",
	"&amp",
	"&gt",
	"&lt",
	"&#39",
	"\u2018", // left single quote
	"\u2019", // right single quote
	"\u201c", // left double quote
	"\u201d", // right double quote
	"\u8220", // misencoded left double quote
	"\u8221", // misencoded right double quote
	"\u8222", // misencoded low double quote
	"\u2022", // bullet
	"\u2013", // en dash
	"\u2014", // em dash
	"\u00b7", // middle dot
	"\u00d7", // multiplication sign
}

// FilterSpecialChars removes every entry of specialChars from s.
func FilterSpecialChars(s string) string {
	for _, c := range specialChars {
		if strings.Contains(s, c) {
			s = strings.ReplaceAll(s, c, "")
		}
	}
	return s
}
