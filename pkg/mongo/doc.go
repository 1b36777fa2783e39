// Package mongo connects to MongoDB with the v2 driver and stores records in a collection.
//
// New retries the initial connection and verifies it with a ping. Store keeps
// each record as a document whose attributes live in an embedded sub-document;
// single field updates use $set on "attributes.<name>" so other persisted
// attributes stay untouched.
package mongo
