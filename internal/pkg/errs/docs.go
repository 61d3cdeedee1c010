// Package errs provides the error taxonomy shared by the lab order service.
//
// Every error type wraps one sentinel so callers classify failures with errors.Is:
//   - ErrUnauthorized: no valid acting identity
//   - ErrForbidden: the actor lacks a capability (ForbiddenError)
//   - ErrValueIsInvalid, ErrValueIsRequired, ErrValueIsOutOfRange: validation failures
//   - ErrObjectNotFound: a referenced order or item is absent (ObjectNotFoundError)
//   - ErrConflict: the entity is in an incompatible state or zero rows were affected
//     (ConflictError)
//
// Anything that matches none of the sentinels is treated as an internal failure
// by the transport adapters.
package errs
