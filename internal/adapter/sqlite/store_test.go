package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zithekhosa/propflow/internal/adapter/sqlite"
	"github.com/zithekhosa/propflow/internal/domain"
)

// Stored timestamps have second precision, so fixtures stick to whole
// seconds for round-trip comparisons.
var storeNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	storeLandlord = domain.Actor{ID: "landlord-1", Role: domain.RoleLandlord}
	storeTenant   = domain.Actor{ID: "tenant-1", Role: domain.RoleTenant}
	storeAgency   = domain.Actor{ID: "agency-1", Role: domain.RoleAgency}
	storeProvider = domain.Actor{ID: "provider-1", Role: domain.RoleMaintenance}
)

// newTestStore opens a migrated store on a per-test temp file.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "propflow.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// advanced returns a copy of inst moved to dst with the history appended and
// the version bumped, the same shape the workflow engine produces.
func advanced(inst domain.Instance, dst domain.State, actor domain.Actor, at time.Time, note string) domain.Instance {
	history := make([]domain.HistoryEntry, len(inst.History)+1)
	copy(history, inst.History)
	history[len(inst.History)] = domain.HistoryEntry{State: dst, Actor: actor, At: at, Note: note}

	inst.History = history
	inst.State = dst
	inst.Version = len(history)
	return inst
}
