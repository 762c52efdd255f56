// Package store defines the persistence interfaces for users, tasks and
// attachments, together with the shared error vocabulary and transaction
// helper used by every implementation.
package store
