// Package database opens and migrates the SQLite store that holds device
// registrations and their audit history.
//
// The schema ships inside the binary: the migrations package embeds the
// .up.sql/.down.sql pairs and registers them here at init time, and
// Migrate applies whatever is pending on every startup. WAL mode keeps
// device status polls readable while registrations commit, and the file
// is created owner-only since it carries tenant identities.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Repositories query through the embedded *sql.DB with parameterised
// statements; this package stays out of the domain.
package database
