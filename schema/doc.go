// Package schema derives JSON-Schema-shaped descriptors for attribute
// values whose plain JSON form alone would be ambiguous or lossy. Scalars
// and bare containers elide to nothing so the schema payload stays
// proportional to the interesting attributes only.
package schema
