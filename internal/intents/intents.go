// Package intents defines the fixed intent set, the exemplar corpus used to
// seed the classifier, and the per-intent acceptance thresholds.
package intents

// Intent names. The set is fixed; classification always resolves to one of these.
const (
	ProductSearch       = "PRODUCT_SEARCH"
	PriceInquiry        = "PRICE_INQUIRY"
	BrewingHelp         = "BREWING_HELP"
	GeneralConversation = "GENERAL_CONVERSATION"
	StoreInfo           = "STORE_INFO"
)

// Fallback is the intent returned when no exemplar match clears its threshold.
const Fallback = GeneralConversation

// Classifier defaults: the global similarity floor below which no candidate is
// considered at all, and the number of nearest exemplars to retrieve.
const (
	DefaultMinSimilarity = 0.6
	DefaultMaxResults    = 5
)

// All returns the fixed intent set.
func All() []string {
	return []string{ProductSearch, PriceInquiry, BrewingHelp, GeneralConversation, StoreInfo}
}

// IsValid reports whether intent is a member of the fixed set.
func IsValid(intent string) bool {
	switch intent {
	case ProductSearch, PriceInquiry, BrewingHelp, GeneralConversation, StoreInfo:
		return true
	default:
		return false
	}
}

// RoutesToProductSearch reports whether a classified intent should be answered
// from the product catalog rather than the conversational path.
func RoutesToProductSearch(intent string) bool {
	return intent == ProductSearch || intent == PriceInquiry
}

// Thresholds maps each intent to its acceptance threshold: the best-match
// similarity must be >= the matched exemplar's threshold for the classification
// to be accepted. Lower = more inclusive.
var Thresholds = map[string]float64{
	ProductSearch:       0.75,
	PriceInquiry:        0.70,
	BrewingHelp:         0.72,
	GeneralConversation: 0.65,
	StoreInfo:           0.73,
}

// Corpus maps each intent to its exemplar phrases. Loaded at setup time via
// the exemplar loader; re-loading upserts rather than duplicating.
var Corpus = map[string][]string{
	ProductSearch: {
		"What coffee do you have?",
		"Show me your espresso options",
		"I'm looking for a dark roast",
		"Do you have any lattes?",
		"What drinks are available?",
		"Recommend a coffee",
		"What's your strongest coffee?",
		"I need something with caffeine",
		"Show me your menu",
		"What beverages do you sell?",
		"I want a coffee recommendation",
		"What types of coffee do you serve?",
		"Do you have decaf options?",
		"Show me your specialty drinks",
		"I'm looking for something smooth",
		"What's your most popular drink?",
		"I want something energizing",
		"Do you have cold brew?",
		"Show me your hot beverages",
		"What coffee blends do you offer?",
	},
	PriceInquiry: {
		"How much does it cost?",
		"What's the price?",
		"Is it expensive?",
		"What's your cheapest option?",
		"Show me drinks under $5",
		"How much for a latte?",
		"What are your prices?",
		"Is there anything affordable?",
		"What's the cost of espresso?",
		"Do you have any deals?",
		"What's your price range?",
		"How much is a cappuccino?",
		"Are there any discounts?",
		"What's the cheapest coffee?",
		"How much do you charge?",
		"What's the price list?",
		"Is it budget-friendly?",
		"How much for a small coffee?",
		"What's the pricing?",
		"Any cheap options?",
	},
	BrewingHelp: {
		"How do I make espresso?",
		"What's the best brewing method?",
		"How much coffee should I use?",
		"What temperature for brewing?",
		"How to brew the perfect cup?",
		"What's the ideal grind size?",
		"How long should I brew?",
		"What's the coffee to water ratio?",
		"How do I make a latte at home?",
		"What equipment do I need?",
		"How to froth milk properly?",
		"What's the best water temperature?",
		"How to extract espresso properly?",
		"What's the steeping time?",
		"How do I make cold brew?",
		"What grinder should I use?",
		"How to achieve the perfect crema?",
		"What's the proper tamping technique?",
		"How to calibrate my machine?",
		"Tips for better coffee extraction?",
	},
	GeneralConversation: {
		"Hello",
		"Hi there",
		"Good morning",
		"Thank you",
		"Thanks",
		"Goodbye",
		"Bye",
		"See you later",
		"How are you?",
		"Nice to meet you",
		"Tell me about coffee",
		"What's your story?",
		"How's your day?",
		"That's interesting",
		"I appreciate your help",
		"You're welcome",
		"No problem",
		"Have a great day",
		"Take care",
		"Thanks for the help",
		"What's new?",
		"How's business?",
		"That sounds good",
		"I understand",
		"Makes sense",
	},
	StoreInfo: {
		"What are your hours?",
		"When are you open?",
		"Where are you located?",
		"What's your address?",
		"Do you deliver?",
		"Can I order online?",
		"Do you have WiFi?",
		"Is parking available?",
		"What's your phone number?",
		"Do you cater events?",
		"Are you hiring?",
		"What's your website?",
		"Do you have outdoor seating?",
		"Can I make reservations?",
		"What's your capacity?",
		"Are you pet-friendly?",
		"Do you accept cards?",
		"What payment methods?",
		"Is there a drive-through?",
		"How busy are you now?",
	},
}

// ThresholdFor returns the acceptance threshold for intent, or def when the
// intent has no configured threshold.
func ThresholdFor(intent string, def float64) float64 {
	if t, ok := Thresholds[intent]; ok {
		return t
	}

	return def
}
