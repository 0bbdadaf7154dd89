package badger

import (
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/interfaces"
)

// Manager bundles the badger-backed storage services
type Manager struct {
	db            *BadgerDB
	rawJobs       interfaces.RawJobStorage
	ads           interfaces.AdvertisementStorage
	organizations interfaces.OrganizationStorage
	cursors       interfaces.CursorStorage
	logger        arbor.ILogger
}

// NewManager opens the database and wires the storage services
func NewManager(config *common.BadgerConfig, logger arbor.ILogger) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}
	return newManagerWithDB(db, logger), nil
}

func newManagerWithDB(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:            db,
		rawJobs:       NewRawJobStorage(db, logger),
		ads:           NewAdvertisementStorage(db, logger),
		organizations: NewOrganizationStorage(db, logger),
		cursors:       NewCursorStorage(db, logger),
		logger:        logger,
	}
}

func (m *Manager) RawJobs() interfaces.RawJobStorage {
	return m.rawJobs
}

func (m *Manager) Advertisements() interfaces.AdvertisementStorage {
	return m.ads
}

func (m *Manager) Organizations() interfaces.OrganizationStorage {
	return m.organizations
}

func (m *Manager) Cursors() interfaces.CursorStorage {
	return m.cursors
}

// BadgerDB exposes the raw badger handle for the queue, which shares the
// same database file.
func (m *Manager) BadgerDB() *badgerdb.DB {
	return m.db.Store().Badger()
}

func (m *Manager) Close() error {
	return m.db.Close()
}
