package gtfs

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/OneBusAway/go-gtfs"

	"paradero.urbanbus.org/internal/models"
)

// suspensionPattern matches the phrasings the feed uses to announce a stop
// taken out of service.
var suspensionPattern = regexp.MustCompile(`(?i)suspend|anulad|sin servicio|fuera de servicio|no se realiza|clausur`)

// abbreviationReplacer expands the street-name abbreviations alert texts
// use so they can be matched against the full names in stops.txt.
var abbreviationReplacer = strings.NewReplacer(
	"c/", "calle ",
	"avda.", "avenida",
	"av.", "avenida",
	"pza.", "plaza",
	"pl.", "plaza",
	"ctra.", "carretera",
)

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
)

// SuspendedStops infers which stops are out of service from the current
// alerts. A stop is suspended when a suspension-phrased alert references
// it explicitly, or when the alert text mentions the stop by name.
func (manager *Manager) SuspendedStops(ctx context.Context) ([]models.SuspendedStop, error) {
	alerts := manager.GetAlerts()
	if len(alerts) == 0 {
		return []models.SuspendedStop{}, nil
	}

	stops, err := manager.queries().GetStops(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var suspended []models.SuspendedStop

	for i := range alerts {
		alert := &alerts[i]
		header := firstAlertText(alert.Header)
		text := header + " " + firstAlertText(alert.Description)
		if !isSuspensionAlert(alert, text) {
			continue
		}

		normalizedText := normalizeAlertText(text)

		for _, stop := range stops {
			if seen[stop.ID] {
				continue
			}
			if !alertReferencesStop(alert, stop.ID) &&
				!mentionsStopName(normalizedText, stop.Name.String) {
				continue
			}
			seen[stop.ID] = true
			suspended = append(suspended, models.SuspendedStop{
				StopID:   stop.ID,
				StopCode: stop.Code.String,
				Name:     stop.Name.String,
				AlertID:  alert.ID,
				Header:   header,
			})
		}
	}

	return suspended, nil
}

func isSuspensionAlert(alert *gtfs.Alert, text string) bool {
	if strings.EqualFold(alert.Effect.String(), "NO_SERVICE") {
		return true
	}
	return suspensionPattern.MatchString(text)
}

func alertReferencesStop(alert *gtfs.Alert, stopID string) bool {
	for _, entity := range alert.InformedEntities {
		if entity.StopID != nil && *entity.StopID == stopID {
			return true
		}
	}
	return false
}

func mentionsStopName(normalizedText, stopName string) bool {
	name := normalizeAlertText(stopName)
	// Short names like "3" or "Mayor" collide with too much text to be
	// usable as evidence.
	if len(name) < 6 {
		return false
	}
	return strings.Contains(normalizedText, name)
}

// normalizeAlertText lowercases, de-accents, expands abbreviations, and
// collapses punctuation and whitespace, so that "Avda. Segovia, 10" and
// "Avenida Segovia 10" compare equal. Abbreviations are expanded before
// punctuation goes away because the replacer keys carry their dots.
func normalizeAlertText(s string) string {
	s = strings.ToLower(s)
	s = accentReplacer.Replace(s)
	s = abbreviationReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
