// Package journal persists every shadow frame the harness sends or
// receives to SQLite.
//
// The journal is the post-mortem record of a run: when a test fails on a
// missing reply, the frames around it show whether the device answered on
// an unexpected topic, sent a packet that failed to decode, or never
// answered at all. Dropped frames are journaled with their error.
//
// # Usage
//
//	db, _ := database.Open(database.Config{Path: "./data/reshadow.db", WALMode: true})
//	_ = db.Migrate(ctx)
//
//	rec := journal.NewRecorder(db.DB)
//	rec.SetLogger(log)
//
//	proto, _ := protocol.New(protocol.Options{..., Tap: rec.Observe})
//
//	entries, _ := rec.Recent(ctx, 20)
package journal
