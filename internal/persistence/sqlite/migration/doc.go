// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_initial_schema.sql") and are read from an fs.FS; the schema of
// the booking service ships embedded in the binary (see Files). Applied
// versions are tracked in the schema_migrations table, each migration runs in
// its own transaction, and the version sequence must be gap free.
//
// Example usage:
//
//	scanner := migration.NewFileScanner(migration.Files)
//	executor := migration.NewSQLiteExecutor(db)
//	manager := migration.NewMigrationManager(scanner, executor, migration.Dir, logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
