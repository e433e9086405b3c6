// Package store provides SQLite-backed named database instances for clickcounter.
//
// A Home is rooted at an application-private directory and manages named
// instances stored as <root>/<name>.db:
//   - Exists: report whether an instance has been created
//   - Create: create an instance and issue its schema statements once
//   - Connect: open an existing instance
//   - Open: Create when absent, Connect otherwise
//
// A Conn is the handle used for every statement. Conn.Execute runs SQL text
// with positional or named parameters and returns either a lazily consumed
// ResultSet (read statements) or an Ack (write statements). Every failure
// surfaces as *ExecutionError.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: SQLite allows a single writer
//
// An open ResultSet holds the only connection. Callers must drain or Close it
// before issuing the next statement on the same Conn.
package store
