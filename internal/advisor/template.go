package advisor

import (
	"fmt"
	"strings"
)

// RenderFallback renders the local templated answer for an intent when
// the remote model is unreachable. Pure and deterministic; every
// template names the crop and its harvest window.
func RenderFallback(intent Intent, crop string, meta CropMeta, tip, originalQuestion string) string {
	low := meta.BasePrice * (1 - meta.Volatility)
	high := meta.BasePrice * (1 + meta.Volatility)

	var b strings.Builder

	switch intent {
	case IntentPrice:
		fmt.Fprintf(&b, "%s **%s Mandi Price**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "Current reference price is around **₹%.0f/quintal**.\n", meta.BasePrice)
		fmt.Fprintf(&b, "Typical range this season: ₹%.0f - ₹%.0f/quintal.\n\n", low, high)
		fmt.Fprintf(&b, "• Harvest window: %s\n", meta.Harvest)
		fmt.Fprintf(&b, "• Growing season: %s\n", meta.Season)
		b.WriteString("• Rates vary by mandi and grade; check your local APMC board before selling.")

	case IntentSell:
		fmt.Fprintf(&b, "%s **When to sell %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "Harvest window is %s; arrival pressure keeps rates soft for the first 2-3 weeks after it.\n\n", meta.Harvest)
		b.WriteString("• Avoid selling the entire lot on day one\n")
		fmt.Fprintf(&b, "• Watch daily %s arrivals at your mandi\n", crop)
		fmt.Fprintf(&b, "• Reference price: **₹%.0f/quintal**", meta.BasePrice)

	case IntentMSP:
		fmt.Fprintf(&b, "%s **MSP info for %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "The government announces MSP before each season; the current open-market reference for %s is **₹%.0f/quintal** (harvest: %s).\n\n", crop, meta.BasePrice, meta.Harvest)
		b.WriteString("• Register at your nearest procurement centre with land records and bank passbook\n")
		b.WriteString("• Procurement usually opens at the start of the harvest window\n")
		b.WriteString("• Kisan helpline: **1800-180-1551**")

	case IntentStorage:
		fmt.Fprintf(&b, "%s **Storing %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "After the %s harvest, clean and dry the produce before storage.\n\n", meta.Harvest)
		if crop == "Onion" || crop == "Potato" {
			fmt.Fprintf(&b, "• %s is perishable: use ventilated or cold storage only\n", crop)
			b.WriteString("• Off-season release often earns a **30-50% premium** over harvest-time rates\n")
		} else {
			b.WriteString("• Keep moisture below safe limits and fumigate the godown\n")
			b.WriteString("• Well-stored stock typically earns a **10-20% premium** after the arrival rush\n")
		}
		b.WriteString("• Warehouse receipts can also be pledged for credit")

	case IntentWeather:
		fmt.Fprintf(&b, "%s **Weather and %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "%s grows in %s and is harvested in %s.\n\n", crop, meta.Season, meta.Harvest)
		b.WriteString("• Unseasonal rain near harvest is the main price risk\n")
		b.WriteString("• Follow IMD district advisories for spray and irrigation timing\n")
		b.WriteString("• Cover harvested produce; wet lots are heavily discounted")

	case IntentProfit:
		fmt.Fprintf(&b, "%s **%s profitability**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "At the reference price of **₹%.0f/quintal**, margins depend mostly on input cost and sale timing (harvest: %s).\n\n", meta.BasePrice, meta.Harvest)
		b.WriteString("• Track cost per quintal, not per acre\n")
		b.WriteString("• Selling in lots across the season smooths price swings\n")
		fmt.Fprintf(&b, "• Price band to plan around: ₹%.0f - ₹%.0f/quintal", low, high)

	case IntentDisease:
		fmt.Fprintf(&b, "%s **Pest & disease care for %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "Scout the %s crop weekly through the %s season; most outbreaks start on field edges.\n\n", crop, meta.Season)
		b.WriteString("• Identify before spraying; take a sample to the nearest KVK\n")
		b.WriteString("• Rotate chemical groups to avoid resistance\n")
		fmt.Fprintf(&b, "• Stop sprays well before the %s harvest to respect waiting periods", meta.Harvest)

	case IntentFertilizer:
		fmt.Fprintf(&b, "%s **Fertilizer plan for %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "Base doses on a soil test, not habit; %s (season: %s, harvest: %s) responds best to split applications.\n\n", crop, meta.Season, meta.Harvest)
		b.WriteString("• Apply basal dose at sowing, rest in 2-3 splits\n")
		b.WriteString("• Mix organic manure to hold soil moisture\n")
		b.WriteString("• Avoid urea overdose near maturity")

	case IntentWater:
		fmt.Fprintf(&b, "%s **Irrigation for %s**\n\n", meta.Icon, crop)
		switch crop {
		case "Rice":
			b.WriteString("Rice needs standing water through tillering; alternate wetting and drying saves 25-30% water.\n")
		case "Sugarcane":
			b.WriteString("Sugarcane is a heavy drinker; drip irrigation cuts water use nearly in half.\n")
		case "Wheat":
			b.WriteString("Wheat needs 4-6 irrigations; crown-root initiation and grain filling are the critical ones.\n")
		case "Cotton":
			b.WriteString("Cotton is drought-tolerant early on; avoid waterlogging at flowering.\n")
		case "Potato":
			b.WriteString("Potato needs light frequent irrigation; keep ridges moist but never flooded.\n")
		default:
			fmt.Fprintf(&b, "Irrigate %s at its critical growth stages and avoid both stress and waterlogging.\n", crop)
		}
		fmt.Fprintf(&b, "\n• Season: %s\n", meta.Season)
		fmt.Fprintf(&b, "• Harvest: %s\n", meta.Harvest)
		b.WriteString("• Mulching reduces evaporation losses")

	case IntentLoan:
		fmt.Fprintf(&b, "%s **Credit & insurance for %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "A Kisan Credit Card covers %s input costs through the %s season (harvest: %s).\n\n", crop, meta.Season, meta.Harvest)
		b.WriteString("• KCC interest is subsidised on prompt repayment\n")
		b.WriteString("• Enroll in **PMFBY** crop insurance before the season cutoff\n")
		b.WriteString("• Warehouse-receipt loans let you hold stock instead of distress-selling")

	case IntentExport:
		fmt.Fprintf(&b, "%s **Exporting %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "Export demand lifts local %s rates mainly right after the %s harvest.\n\n", crop, meta.Harvest)
		b.WriteString("• Exporters need graded, residue-compliant produce\n")
		b.WriteString("• An APEDA-registered aggregator is the usual entry route\n")
		fmt.Fprintf(&b, "• Domestic reference: **₹%.0f/quintal**", meta.BasePrice)

	case IntentSowing:
		fmt.Fprintf(&b, "%s **Sowing %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "%s is a %s crop; timely sowing sets up the %s harvest.\n\n", crop, meta.Season, meta.Harvest)
		b.WriteString("• Use certified seed and treat it before sowing\n")
		b.WriteString("• Maintain recommended spacing; crowding invites disease\n")
		b.WriteString("• Sow after a pre-irrigation for even germination")

	case IntentHarvest:
		fmt.Fprintf(&b, "%s **Harvesting %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "The usual window is **%s**.\n\n", meta.Harvest)
		b.WriteString("• Harvest at full maturity; early cutting loses weight and grade\n")
		b.WriteString("• Dry to safe moisture before bagging\n")
		fmt.Fprintf(&b, "• Plan transport early: every mandi is crowded in %s", meta.Harvest)

	case IntentVariety:
		fmt.Fprintf(&b, "%s **%s varieties**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "Pick varieties released for your zone and the %s season (harvest: %s).\n\n", meta.Season, meta.Harvest)
		b.WriteString("• Certified seed outyields saved seed by 10-15%\n")
		b.WriteString("• Ask the local KVK for current recommended releases\n")
		b.WriteString("• Premium varieties can fetch better mandi grades")

	case IntentTransport:
		fmt.Fprintf(&b, "%s **Transporting %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "Freight eats margins fastest around the %s harvest when trucks are scarce.\n\n", meta.Harvest)
		b.WriteString("• Book transport before harvest peak\n")
		b.WriteString("• Shared truckloads with neighbouring farmers cut per-quintal cost\n")
		fmt.Fprintf(&b, "• Compare nearby mandis: a better %s rate can beat the extra freight", crop)

	default: // IntentGeneral
		fmt.Fprintf(&b, "%s **About %s**\n\n", meta.Icon, crop)
		fmt.Fprintf(&b, "You asked: \"%s\"\n\n", originalQuestion)
		fmt.Fprintf(&b, "• Growing season: %s\n", meta.Season)
		fmt.Fprintf(&b, "• Harvest window: %s\n", meta.Harvest)
		fmt.Fprintf(&b, "• Reference price: **₹%.0f/quintal**\n\n", meta.BasePrice)
		b.WriteString("Ask me about price, selling time, MSP, storage, weather, fertilizer or irrigation for more specific advice.")
	}

	if tip != "" && (intent == IntentSell || intent == IntentPrice || intent == IntentProfit || intent == IntentStorage || intent == IntentGeneral) {
		fmt.Fprintf(&b, "\n\n💡 **Tip:** %s", tip)
	}

	return b.String()
}
