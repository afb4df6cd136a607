// Package history provides SQLite-backed storage for past run results.
//
// One row per completed run, one row per recorded case verdict. Stored
// runs let a candidate's progress be tracked across builds and let a
// past run's report be re-rendered without re-running anything.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Channel differences are stored as JSON in the differences column, so
// the full evidence of a mismatch survives in the database even after
// the artifact directory is cleaned up.
package history
