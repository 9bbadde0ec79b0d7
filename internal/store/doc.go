// Package store keeps the SQLite catalog of registered parameter sets.
//
// Three tables make up the catalog: parameter_sets holds canonical JSON
// keyed by content-addressed ID, jobs holds one row per registration run
// (UUIDv7 IDs), and job_parameter_sets records which sets a job configured
// and in what order.
//
// Stored sets never change. Identical content hashes to the same ID, so a
// repeated write inserts nothing. Listings come back in insertion order,
// with ties broken by binary ID comparison.
//
// Connections run in WAL mode with synchronous=NORMAL, a 5s busy timeout
// and foreign keys enforced. The schema version lives in user_version.
package store
