package sqlite

import (
	"fmt"

	"github.com/example/desk-booking/internal/ledger"
)

// ledgerTables names the inventory and reservation tables of one ledger kind.
// Both reservation tables share the column layout (id, user_id, resource_id,
// date, created_at).
type ledgerTables struct {
	kind         ledger.Kind
	resources    string
	reservations string
	hasLocation  bool
}

var (
	deskTables    = ledgerTables{kind: ledger.KindDesk, resources: "desks", reservations: "desk_reservations", hasLocation: true}
	parkingTables = ledgerTables{kind: ledger.KindParking, resources: "parking_spots", reservations: "parking_reservations"}
)

func allLedgerTables() []ledgerTables {
	return []ledgerTables{deskTables, parkingTables}
}

func tablesFor(kind ledger.Kind) (ledgerTables, error) {
	switch kind {
	case ledger.KindDesk:
		return deskTables, nil
	case ledger.KindParking:
		return parkingTables, nil
	default:
		return ledgerTables{}, fmt.Errorf("%w: %q", ledger.ErrUnknownKind, kind)
	}
}

// locationColumn selects the location label, or NULL for kinds without one.
func (t ledgerTables) locationColumn(alias string) string {
	if t.hasLocation {
		return alias + ".location_label"
	}
	return "NULL"
}
