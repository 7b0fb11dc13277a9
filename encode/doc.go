// Package encode converts arbitrary attribute values into a JSON-safe,
// round-trippable representation. Values that JSON cannot express natively
// are wrapped in a tagged envelope ({"$__datatype__": ..., "data": ...}) so
// a viewer can reconstruct a faithful display without executing code.
//
// Dispatch is an explicit ordered rule list: exact type rules first, then
// interface rules (errors, enums, registered extensions), then generic
// mappings, structs and sequences, then a last-resort "unknown" envelope.
// Encoding is total: every value is representable.
package encode
