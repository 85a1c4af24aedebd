// Package filter implements the filter registry: named filter descriptors
// with a typed parameter schema, and the constructors that turn validated
// parameters into graph nodes.
//
// # Registration
//
// A [Registry] starts empty. Filters are added with [Registry.Register]
// and are never added implicitly; the process-wide registry returned by
// [Default] is empty too until a program registers filters into it.
//
// Registration is serialised by one writer lock. Lookups read an immutable
// snapshot through an atomic pointer, so Lookup, Names and Apply never block
// behind a concurrent Register.
//
// # Parameter Policy
//
// Apply validates every supplied parameter against the descriptor:
//
//   - keys outside the schema fail with imgerr.ErrInvalidParameter
//   - values of the wrong type fail with imgerr.ErrInvalidParameter
//   - numeric values outside the declared range are clamped, or rejected
//     when the parameter uses [PolicyReject]
//   - unset parameters take the descriptor default
package filter
