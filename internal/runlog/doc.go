// Package runlog persists per-service sync run outcomes to SQLite so past
// runs can be audited from the CLI.
package runlog
