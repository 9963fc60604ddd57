package cart

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Item is one parsed cart addition.
type Item struct {
	Name  string
	Price int
}

// Extraction is the outcome of scanning one reply for mutations.
type Extraction struct {
	// Visible is the reply text with well-formed command tokens stripped.
	Visible string
	// Items are the additions to commit, in order of appearance.
	Items []Item
	// UsedFallback marks items recovered from the previous assistant turn
	// instead of explicit commands; the caller should append a synthesized
	// confirmation sentence (see FallbackSummary).
	UsedFallback bool
}

// cmdRe matches the mutation micro-grammar: the literal CART_ADD: token,
// an item name without a currency symbol, then a currency symbol
// immediately followed by an integer amount. The amount group matches the
// digits only, so punctuation right after the number ("₹50.") stays in
// the visible reply instead of breaking the parse.
var cmdRe = regexp.MustCompile(`CART_ADD:\s*([^₹$\n]+?)\s*([₹$])([0-9]+)`)

// fallbackRe is the looser "<word sequence> <currency><digits>" pattern
// applied to the previous assistant turn when no commands were emitted.
var fallbackRe = regexp.MustCompile(`([\p{L}][\p{L} ]*?)\s*[₹$]\s?(\d+)`)

var spaceRunRe = regexp.MustCompile(`[ \t]{2,}`)

// Filler stripped from the edges of fallback-captured names so
// "and Bread is ₹30" yields "Bread".
var fillerWords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "a": {}, "an": {}, "for": {},
	"with": {}, "at": {}, "is": {}, "aur": {}, "hai": {}, "me": {},
	"in": {}, "of": {}, "ka": {}, "ki": {},
}

// Extract parses cart mutations out of replyText. Without confirmation it
// never mutates anything and returns the reply untouched. With
// confirmation it scans for well-formed CART_ADD commands first; if none
// parse, it falls back to re-reading the previous assistant turn for
// priced items. Parsing the same text twice yields the same item set, but
// nothing deduplicates against cart history across turns: re-confirming
// the same offer re-adds the same items.
func Extract(replyText string, confirmed bool, prevAssistant string) Extraction {
	if !confirmed {
		return Extraction{Visible: replyText}
	}

	visible := replyText
	var items []Item
	for _, m := range cmdRe.FindAllStringSubmatch(replyText, -1) {
		amount, err := strconv.Atoi(m[3])
		if err != nil {
			// An out-of-range amount skips this token only; sibling
			// commands in the same reply are still extracted.
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		items = append(items, Item{Name: name, Price: amount})
		visible = strings.Replace(visible, m[0], "", 1)
	}

	if len(items) > 0 {
		return Extraction{Visible: tidy(visible), Items: items}
	}

	for _, m := range fallbackRe.FindAllStringSubmatch(prevAssistant, -1) {
		amount, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		name := trimFiller(m[1])
		if name == "" {
			continue
		}
		items = append(items, Item{Name: name, Price: amount})
	}
	return Extraction{Visible: tidy(visible), Items: items, UsedFallback: len(items) > 0}
}

// FallbackSummary synthesizes the confirmation sentence for fallback
// additions, quoting the new cart total.
func FallbackSummary(items []Item, newTotal int) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s (₹%d)", it.Name, it.Price))
	}
	return fmt.Sprintf("Added %s to your cart. New total: ₹%d 🛒", strings.Join(parts, ", "), newTotal)
}

func trimFiller(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	for len(fields) > 0 {
		if _, ok := fillerWords[strings.ToLower(fields[0])]; !ok {
			break
		}
		fields = fields[1:]
	}
	for len(fields) > 0 {
		if _, ok := fillerWords[strings.ToLower(fields[len(fields)-1])]; !ok {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func tidy(s string) string {
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
