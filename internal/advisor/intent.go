package advisor

import "strings"

// Intent buckets a farmer question into one answer category.
type Intent string

const (
	IntentPrice      Intent = "price"
	IntentSell       Intent = "sell"
	IntentMSP        Intent = "msp"
	IntentStorage    Intent = "storage"
	IntentWeather    Intent = "weather"
	IntentProfit     Intent = "profit"
	IntentDisease    Intent = "disease"
	IntentFertilizer Intent = "fertilizer"
	IntentWater      Intent = "water"
	IntentLoan       Intent = "loan"
	IntentExport     Intent = "export"
	IntentSowing     Intent = "sowing"
	IntentHarvest    Intent = "harvest"
	IntentVariety    Intent = "variety"
	IntentTransport  Intent = "transport"
	IntentGeneral    Intent = "general"
)

// intentOrder fixes the tie-break: when two intents score the same, the
// one declared earlier here wins. The order is part of the contract and
// covered by tests.
var intentOrder = []Intent{
	IntentPrice,
	IntentSell,
	IntentMSP,
	IntentStorage,
	IntentWeather,
	IntentProfit,
	IntentDisease,
	IntentFertilizer,
	IntentWater,
	IntentLoan,
	IntentExport,
	IntentSowing,
	IntentHarvest,
	IntentVariety,
	IntentTransport,
}

// intentKeywords maps each intent to its keyword literals: English words,
// Hindi transliterations and Devanagari terms common in mandi talk.
// Scoring is presence based, one point per distinct literal found.
var intentKeywords = map[Intent][]string{
	IntentPrice:      {"price", "rate", "bhav", "भाव", "daam", "दाम", "kimat", "कीमत"},
	IntentSell:       {"sell", "bech", "बेच", "kab beche", "kab bechna"},
	IntentMSP:        {"msp", "minimum support", "support price", "samarthan", "समर्थन मूल्य"},
	IntentStorage:    {"store", "storage", "godown", "warehouse", "bhandaran", "भंडारण"},
	IntentWeather:    {"weather", "rain", "barish", "बारिश", "mausam", "मौसम", "monsoon"},
	IntentProfit:     {"profit", "munafa", "मुनाफा", "fayda", "फायदा", "labh", "लाभ", "earning"},
	IntentDisease:    {"disease", "pest", "keeda", "कीड़ा", "rog", "रोग", "bimari", "बीमारी", "fungus"},
	IntentFertilizer: {"fertilizer", "khad", "खाद", "urea", "यूरिया", "dap", "npk", "compost"},
	IntentWater:      {"water", "irrigation", "pani", "पानी", "sinchai", "सिंचाई", "drip"},
	IntentLoan:       {"loan", "credit", "karz", "कर्ज", "kcc", "beema", "बीमा", "insurance"},
	IntentExport:     {"export", "niryat", "निर्यात", "videsh", "विदेश", "international"},
	IntentSowing:     {"sow", "buaai", "bona", "बुवाई", "बोना", "plant"},
	IntentHarvest:    {"harvest", "katai", "कटाई", "kaatna", "काटना", "reap"},
	IntentVariety:    {"variety", "kism", "किस्म", "beej", "बीज", "hybrid"},
	IntentTransport:  {"transport", "truck", "dhulai", "ढुलाई", "bhada", "भाड़ा", "logistics"},
}

// Scores computes the presence score per non-general intent: how many of
// the intent's keyword literals occur as substrings of the normalized
// question. Each literal counts at most once.
func Scores(normalized string) map[Intent]int {
	scores := make(map[Intent]int, len(intentOrder))
	for _, intent := range intentOrder {
		n := 0
		for _, kw := range intentKeywords[intent] {
			if strings.Contains(normalized, kw) {
				n++
			}
		}
		scores[intent] = n
	}
	return scores
}

// Classify picks the highest-scoring intent for a normalized question.
// Ties go to the earlier intent in intentOrder; a zero maximum always
// yields IntentGeneral.
func Classify(normalized string) Intent {
	scores := Scores(normalized)

	best := intentOrder[0]
	bestScore := scores[best]
	for _, intent := range intentOrder[1:] {
		if scores[intent] > bestScore {
			best = intent
			bestScore = scores[intent]
		}
	}

	if bestScore == 0 {
		return IntentGeneral
	}
	return best
}

// Intents returns the full closed intent set, general last.
func Intents() []Intent {
	out := make([]Intent, 0, len(intentOrder)+1)
	out = append(out, intentOrder...)
	return append(out, IntentGeneral)
}
