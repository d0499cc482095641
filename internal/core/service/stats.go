package service

// Stats reports store sizes for the metrics collector.
type Stats struct {
	Sessions  *SessionStore
	Directory *Directory
}

// ActiveSessions returns the number of stored sessions.
func (s Stats) ActiveSessions() int {
	return s.Sessions.Count()
}

// PeerCounts returns the directory and connected-set sizes.
func (s Stats) PeerCounts() (registered, connected int) {
	return s.Directory.Counts()
}
