// Package domain contains the core learning entities of the scheduler: the
// per-item learning record, the recall quality score and the closed learning
// status enum. It is independent of any storage or delivery mechanism.
package domain
