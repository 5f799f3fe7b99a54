package cache

import (
	"strconv"
	"strings"
)

const quotePrefix = "quote:v2"

// QuoteKey identifies one cached quote.
type QuoteKey struct {
	// PolicySet fingerprints the policy parameters quotes were computed with.
	PolicySet string
	ProductID string
	// Instance distinguishes products that reused a released ID.
	Instance     string
	Revision     uint64
	Qty          int
	PromotionIDs []string
	TaxID        string
}

// KeyQuote builds the cache key of a quote. Policy parameters, the product
// instance and its revision are all part of the key, so a config change, a
// re-created product or any product mutation invalidates earlier quotes.
func KeyQuote(k QuoteKey) string {
	var b strings.Builder
	b.WriteString(quotePrefix)
	b.WriteByte(':')
	b.WriteString(k.PolicySet)
	b.WriteByte(':')
	b.WriteString(k.ProductID)
	b.WriteByte(':')
	b.WriteString(k.Instance)
	b.WriteString(":r")
	b.WriteString(strconv.FormatUint(k.Revision, 10))
	b.WriteString(":q")
	b.WriteString(strconv.Itoa(k.Qty))
	b.WriteString(":p=")
	b.WriteString(strings.Join(k.PromotionIDs, ","))
	b.WriteString(":t=")
	b.WriteString(k.TaxID)
	return b.String()
}
