// Package middleware decorates circuit stores with extra behavior.
package middleware

import "github.com/aretw0/breadboard/pkg/ports"

// Middleware allows wrapping a CircuitStore to add behavior.
type Middleware func(ports.CircuitStore) ports.CircuitStore

// Chain applies the middlewares so the first one is the outermost.
func Chain(store ports.CircuitStore, mws ...Middleware) ports.CircuitStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
