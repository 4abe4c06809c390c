// Package resolver defines the contract used to turn a template name into a
// concrete resource plus cache validity, and the ordered chain that consults
// resolvers until one matches. Implementations live under internal/resolver
// and are constructed through the root tplengine package.
package resolver
