package game

// PersistSessionState stores serialized sessions keyed by session id.
type PersistSessionState interface {
	Load(sessionID string) (*Session, error)
	Save(sessionID string, session *Session) error
	Remove(sessionID string) error
}
