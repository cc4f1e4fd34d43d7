package advisor

import "strings"

var speechReplacer = strings.NewReplacer(
	"**", "",
	"₹", " rupees ",
	"/quintal", " per quintal",
	"/acre", " per acre",
	"•", "",
	"-", " ",
)

// SpeakableText strips display markup from an advice string so it can be
// fed to speech synthesis: bold markers removed, currency and unit
// symbols spelled out, bullets dropped, whitespace collapsed.
func SpeakableText(s string) string {
	return strings.Join(strings.Fields(speechReplacer.Replace(s)), " ")
}
