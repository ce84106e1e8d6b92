// Package session implements the study-session state machine: it builds a
// day's queue from the item store, applies graded answers through the SRS
// service, and keeps a recovery snapshot so an interrupted session can be
// resumed the same day.
package session
