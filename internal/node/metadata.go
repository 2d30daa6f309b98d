package node

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/taskwire"
)

// MetaData is a shadow record: a task in the hidden metadata list whose notes
// hold the full document of the note its related task mirrors.
type MetaData struct {
	item
	relatedID string
}

// MetaDataFromRemote builds a shadow record from an inventory entity. A payload
// that does not parse leaves the related id empty.
func MetaDataFromRemote(e *taskwire.Entity) *MetaData {
	m := &MetaData{}
	m.setFromRemote(e)
	if m.notes != nil {
		var shadow notes.ShadowDoc
		if err := json.Unmarshal([]byte(*m.notes), &shadow); err == nil {
			m.relatedID = shadow.RemoteID
		}
	}
	return m
}

// NewMetaData builds a fresh shadow record for the task with the given remote id.
func NewMetaData(relatedID string, doc *notes.NoteDoc) (*MetaData, error) {
	m := &MetaData{}
	if err := m.SetMeta(relatedID, doc); err != nil {
		return nil, err
	}
	return m, nil
}

// SetMeta replaces the payload with doc tagged by relatedID.
func (m *MetaData) SetMeta(relatedID string, doc *notes.NoteDoc) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrBadShadow)
	}
	payload, err := json.Marshal(&notes.ShadowDoc{RemoteID: relatedID, NoteDoc: *doc})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadShadow, err)
	}
	notesText := string(payload)
	m.notes = &notesText
	m.name = notes.MetaNoteName
	m.relatedID = relatedID
	return nil
}

// RelatedID is the remote id of the task this record shadows.
func (m *MetaData) RelatedID() string {
	return m.relatedID
}

func (m *MetaData) IsWorthSaving() bool {
	return m.notes != nil
}

func (m *MetaData) CreateAction(actionID int) (*taskwire.Action, error) {
	return m.createAction(m, actionID)
}
