// Package middleware wraps learner state stores to add behavior such as encryption
// at rest.
package middleware

import "github.com/aretw0/pathway/pkg/ports"

// Middleware allows wrapping a LearnerStateStore to add behavior.
type Middleware func(ports.LearnerStateStore) ports.LearnerStateStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.LearnerStateStore, mws ...Middleware) ports.LearnerStateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
