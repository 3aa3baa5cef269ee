package budget

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// Fingerprint is an order-independent digest of the money-relevant fields
// (id, price, currency, title) of every reservation in the snapshot. Two
// snapshots with the same fingerprint carry the same priced bookings.
func Fingerprint(snap domain.Snapshot) string {
	var lines []string
	for _, r := range snap.Reservations() {
		lines = append(lines, strings.Join([]string{
			r.ID.String(),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			r.Currency(),
			r.Title,
		}, ":"))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// inputKey extends the fingerprint with everything else a pass reads that is
// not part of a reservation: preferences, trip dates and the reporting currency.
func inputKey(fingerprint string, snap domain.Snapshot, p Preferences, reporting string) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%t|%s|%s",
		fingerprint,
		snap.Trip.StartDate, snap.Trip.EndDate,
		p.DailyBudget, p.MealBudget, p.LuxuryLevel, p.HasPrivateDriver,
		strings.ToUpper(reporting),
		strings.Join(destinations(snap), ","),
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
