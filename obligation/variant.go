/*
variant.go - Variant registration and lookup

PURPOSE:
  Provides a registry for domain packages to register their obligation
  variants. This enables deserialization from storage/JSON back to
  concrete types while maintaining proper encapsulation.

HOW IT WORKS:
  1. Domain packages define their Variant implementations
  2. Domain packages register them on init()
  3. Stores and the API use the registry to reconstruct types

USAGE:
  // In loan/loan.go
  func init() {
      obligation.RegisterVariant(Variant{})
  }

  // In a store, hydrating a row
  v := obligation.LookupVariant("loan")

WHY A REGISTRY:
  - The obligation package stays variant-agnostic
  - Type safety maintained at compile time
  - Clean deserialization from strings
  - Domains own their category tagging

SEE ALSO:
  - types.go: Variant interface definition
  - loan/loan.go: Loan implementation
  - paymentplan/paymentplan.go: Payment plan implementation
*/
package obligation

import (
	"fmt"
	"sync"
)

// =============================================================================
// VARIANT REGISTRY
// =============================================================================

var (
	variantRegistry = make(map[string]Variant)
	registryMu      sync.RWMutex
)

// RegisterVariant adds a variant to the global registry.
// Call this from domain package init() functions.
func RegisterVariant(v Variant) {
	registryMu.Lock()
	defer registryMu.Unlock()
	variantRegistry[v.VariantID()] = v
}

// LookupVariant finds a registered variant by ID.
// Returns nil if not found.
func LookupVariant(id string) Variant {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return variantRegistry[id]
}

// MustLookupVariant finds a registered variant or panics.
// Use in tests or when you're certain the variant exists.
func MustLookupVariant(id string) Variant {
	v := LookupVariant(id)
	if v == nil {
		panic(fmt.Sprintf("obligation variant not registered: %s", id))
	}
	return v
}

// ListVariants returns all registered variants.
func ListVariants() []Variant {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Variant, 0, len(variantRegistry))
	for _, v := range variantRegistry {
		result = append(result, v)
	}
	return result
}
