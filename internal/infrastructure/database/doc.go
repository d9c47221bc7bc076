// Package database provides the SQLite connection behind the analysis archive.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Schema migrations read from an fs.FS (see the migrations package)
//   - An in-memory mode for tests and one-shot CLI runs
//
// All queries use parameterised statements. Database files are created 0600.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:       cfg.Database.Path,
//	    WALMode:    cfg.Database.WALMode,
//	    Migrations: migrations.FS,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
