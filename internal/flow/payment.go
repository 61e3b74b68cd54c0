package flow

import (
	"strings"

	"github.com/amanex/amanex/internal/config"
)

// Catalog resolves free-form payment button text to configured methods.
// Matching is a case-insensitive substring scan over each method's keywords,
// in catalog order, so decorated labels ("💳 SyriaTel Cash ✅") still resolve.
type Catalog struct {
	methods []config.PaymentMethod
}

// NewCatalog builds a Catalog from the configured payment methods.
func NewCatalog(methods []config.PaymentMethod) *Catalog {
	return &Catalog{methods: methods}
}

// Match resolves text to a payment method. The first method with a keyword
// contained in the lowercased text wins.
func (c *Catalog) Match(text string) (config.PaymentMethod, bool) {
	needle := strings.ToLower(text)
	for _, m := range c.methods {
		for _, kw := range m.Keywords {
			if kw != "" && strings.Contains(needle, strings.ToLower(kw)) {
				return m, true
			}
		}
	}
	return config.PaymentMethod{}, false
}

// Get returns the method with the given canonical key.
func (c *Catalog) Get(key string) (config.PaymentMethod, bool) {
	for _, m := range c.methods {
		if m.Key == key {
			return m, true
		}
	}
	return config.PaymentMethod{}, false
}

// Label returns the display label for a method key, falling back to the key
// itself when the method is no longer configured.
func (c *Catalog) Label(key string) string {
	if m, ok := c.Get(key); ok {
		return m.Label
	}
	return key
}

// Labels returns the display labels of all methods, in catalog order.
func (c *Catalog) Labels() []string {
	labels := make([]string, 0, len(c.methods))
	for _, m := range c.methods {
		labels = append(labels, m.Label)
	}
	return labels
}
