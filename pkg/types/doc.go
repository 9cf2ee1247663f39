// Package types defines the value types shared by the composite engine, the
// backend adapters and the agent: metric descriptors, time windows, raw samples
// read from a backend, composite results and the write payload derived from them.
//
// None of these types carry behaviour beyond small accessors; validation lives in
// package composite so that every rule is applied in one place.
package types
