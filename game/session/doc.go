// Package session keeps the Klondike sessions of one server process in memory.
//
// A session pairs an engine with its table config and timestamps. IDs are either chosen
// by the caller (no spaces or URL metacharacters, at most 64 characters) or generated as
// 4 hex characters from crypto/rand, and they match case-insensitively.
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", table, engine.WithSeed(42))
//	if err != nil {
//		return err
//	}
//	defer manager.Delete(sess.ID)
//
// Manager implements service.SessionManager. CleanupExpiredSessions drops sessions idle
// for longer than a given age; nothing survives a restart.
package session
