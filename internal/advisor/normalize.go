package advisor

import "strings"

var punctReplacer = strings.NewReplacer(
	"?", " ",
	"।", " ",
	"!", " ",
	",", " ",
)

// Normalize lowercases a question, blanks out sentence punctuation and
// collapses whitespace. Total over all strings; "" stays "".
func Normalize(question string) string {
	s := strings.ToLower(question)
	s = punctReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
