// Package draft defines the locally persisted draft record, the composite
// key that addresses it, and the Store contract the autosave layer writes
// through. MemoryStore is the in-process backend; sqlitestore and filestore
// provide persistent ones.
package draft
