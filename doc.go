// Package mapengine implements the mapping engine core: schema
// fingerprinting, target-schema flattening, mapping-spec repair and
// validation, execution against partner payloads, and an oracle-guided
// refinement loop.
//
// The core is synchronous and holds no state beyond what each call is
// given; callers own scheduling, persistence, and oracle wiring.
package mapengine
