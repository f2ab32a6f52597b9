// Package selector narrows a garment inventory to the candidate set handed
// to the advisory model. It is a pure function of its inputs: no store
// access, no randomness.
package selector

import (
	"time"

	"github.com/coordii/coordii-backend/models"
)

// TempBuffer widens a garment's declared comfort range on both sides before
// comparing it against the day's forecast.
const TempBuffer = 5.0

// Garments with no declared range are assumed wearable in any weather.
const (
	defaultMinTemp = -50.0
	defaultMaxTemp = 50.0
)

// Select filters the inventory by season and temperature fit.
//
// An anchor item, when present in the inventory, is always kept regardless
// of its own season and temperature fields. If filtering leaves nothing, the
// full inventory is returned instead — the advisory step must never receive
// an empty candidate set. The same fallback applies when an anchor was
// requested and the filtered set contains only the anchor: a single-item set
// would leave the advisory model nothing to combine it with.
func Select(inventory []*models.Garment, season string, dayMaxTemp, dayMinTemp float64, anchorID string) []*models.Garment {
	var filtered []*models.Garment
	for _, g := range inventory {
		if anchorID != "" && g.ItemID() == anchorID {
			filtered = append(filtered, g)
			continue
		}
		if !seasonMatches(g.Seasons, season) {
			continue
		}
		if !tempMatches(g, dayMaxTemp, dayMinTemp) {
			continue
		}
		filtered = append(filtered, g)
	}

	if len(filtered) == 0 {
		return inventory
	}
	if anchorID != "" && len(filtered) == 1 && filtered[0].ItemID() == anchorID {
		return inventory
	}
	return filtered
}

// seasonMatches passes garments that declare no seasons at all.
func seasonMatches(seasons []string, season string) bool {
	if len(seasons) == 0 {
		return true
	}
	for _, s := range seasons {
		if s == season {
			return true
		}
	}
	return false
}

func tempMatches(g *models.Garment, dayMaxTemp, dayMinTemp float64) bool {
	minTemp := defaultMinTemp
	if g.SuitableMinTemp != nil {
		minTemp = *g.SuitableMinTemp
	}
	maxTemp := defaultMaxTemp
	if g.SuitableMaxTemp != nil {
		maxTemp = *g.SuitableMaxTemp
	}
	if minTemp > dayMaxTemp+TempBuffer {
		return false
	}
	if maxTemp < dayMinTemp-TempBuffer {
		return false
	}
	return true
}

// Season names used across the garment model and the advisory prompt.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// SeasonOf maps a date to its season: Mar-May spring, Jun-Sep summer,
// Oct-Nov autumn, Dec-Feb winter.
func SeasonOf(t time.Time) string {
	switch m := t.Month(); {
	case m >= time.March && m <= time.May:
		return SeasonSpring
	case m >= time.June && m <= time.September:
		return SeasonSummer
	case m >= time.October && m <= time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}
