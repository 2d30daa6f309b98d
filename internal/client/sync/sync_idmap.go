package sync

// idMap binds remote ids to local row ids for the duration of one pass.
// Both directions are kept consistent: rebinding either side drops the stale pair.
type idMap struct {
	toLocal  map[string]int64
	toRemote map[int64]string
}

func newIDMap() *idMap {
	return &idMap{
		toLocal:  make(map[string]int64),
		toRemote: make(map[int64]string),
	}
}

func (m *idMap) bind(remoteID string, localID int64) {
	if old, ok := m.toLocal[remoteID]; ok {
		delete(m.toRemote, old)
	}
	if old, ok := m.toRemote[localID]; ok {
		delete(m.toLocal, old)
	}
	m.toLocal[remoteID] = localID
	m.toRemote[localID] = remoteID
}

func (m *idMap) local(remoteID string) (int64, bool) {
	id, ok := m.toLocal[remoteID]
	return id, ok
}

func (m *idMap) remote(localID int64) (string, bool) {
	id, ok := m.toRemote[localID]
	return id, ok
}

func (m *idMap) len() int {
	return len(m.toLocal)
}
