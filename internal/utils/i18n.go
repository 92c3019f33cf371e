package utils

// Message catalogue for user-facing notices. Keys are stable identifiers;
// unknown locales fall back to English and unknown keys to the key itself.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":             "ok",
		"save.nothing":          "There are no changes to save.",
		"save.in_progress":      "A save is already in progress.",
		"save.locked":           "This reporting year has already been submitted and is read-only.",
		"save.draft_ok":         "Draft saved.",
		"save.submit_ok":        "Responses submitted.",
		"save.failed":           "Saving failed. Your changes are kept, please try again.",
		"save.unauthorized":     "You are not allowed to change these responses.",
		"save.network":          "The server could not be reached. Your changes are kept, please try again.",
		"groups.nothing":        "No visibility changes to save.",
		"groups.saved":          "Group visibility saved.",
		"groups.pinned":         "This group is always included.",
		"groups.no_responses":   "This group has no responses yet.",
		"session.unsaved":       "You have unsaved changes. They will be lost if you leave.",
		"session.discarded":     "Unsaved changes discarded.",
		"session.year_switched": "Switched reporting year, unsaved changes discarded.",
	},
	"de": {
		"health.ok":             "ok",
		"save.nothing":          "Es gibt keine Änderungen zum Speichern.",
		"save.in_progress":      "Es wird bereits gespeichert.",
		"save.locked":           "Dieses Berichtsjahr wurde bereits abgeschickt und ist schreibgeschützt.",
		"save.draft_ok":         "Entwurf gespeichert.",
		"save.submit_ok":        "Antworten abgeschickt.",
		"save.failed":           "Speichern fehlgeschlagen. Ihre Änderungen bleiben erhalten, bitte erneut versuchen.",
		"save.unauthorized":     "Sie sind nicht berechtigt, diese Antworten zu ändern.",
		"save.network":          "Der Server ist nicht erreichbar. Ihre Änderungen bleiben erhalten, bitte erneut versuchen.",
		"groups.nothing":        "Keine Sichtbarkeitsänderungen zum Speichern.",
		"groups.saved":          "Sichtbarkeit der Gruppen gespeichert.",
		"groups.pinned":         "Diese Gruppe ist immer enthalten.",
		"groups.no_responses":   "Diese Gruppe hat noch keine Antworten.",
		"session.unsaved":       "Sie haben ungespeicherte Änderungen. Sie gehen beim Verlassen verloren.",
		"session.discarded":     "Ungespeicherte Änderungen verworfen.",
		"session.year_switched": "Berichtsjahr gewechselt, ungespeicherte Änderungen verworfen.",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
