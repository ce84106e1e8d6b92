// Package redis keeps the session snapshot in Redis so that an interrupted
// session can be resumed from another process. Keys carry a native expiry as
// a backstop; the recovery policy is still enforced on restore.
package redis
