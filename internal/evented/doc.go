// Package evented provides Entity, a schema-parameterized state container that
// broadcasts change notifications. It is structured into small files by concern:
//
//   - schema.go: Field, Schema and schema-level checks; defaults are validated once.
//   - entity.go: Entity with Get/Set, per-field Accessor and the change event.
//   - validators.go: reusable Validator constructors (OneOf, Number, Bool, ...).
//   - errors.go: ValidationError and IsValidation.
//
// Domain models hold an *Entity and delegate to it rather than embedding
// behaviour of their own; see internal/model.
//
// Set is atomic: either every field in the partial update is valid and written,
// or nothing is written, Set returns false and Invalid reports why. A successful
// Set that changes at least one value fires exactly one "change" event carrying
// the changed field names, synchronously, unless the update is silent.
package evented
