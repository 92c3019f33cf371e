package utils

import (
	"sort"
	"strconv"
	"strings"
)

// SupportedLocales lists the locales the message catalogue carries.
var SupportedLocales = []string{"en", "de"}

// DetermineLocale picks a locale from an explicit preference (flag, query
// parameter, TERRAMO_LOCALE), then an Accept-Language style list, then def.
// Regional variants collapse to their base language ("de-AT" -> "de").
func DetermineLocale(explicit, acceptLang string, supported []string, def string) string {
	sup := make(map[string]bool, len(supported))
	for _, s := range supported {
		sup[strings.ToLower(s)] = true
	}
	match := func(tag string) (string, bool) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if i := strings.IndexAny(tag, ".@"); i >= 0 {
			tag = tag[:i] // POSIX forms like de_AT.UTF-8
		}
		tag = strings.ReplaceAll(tag, "_", "-")
		if sup[tag] {
			return tag, true
		}
		if base, _, found := strings.Cut(tag, "-"); found && sup[base] {
			return base, true
		}
		return "", false
	}

	if l, ok := match(explicit); ok {
		return l
	}

	type weighted struct {
		lang string
		q    float64
	}
	var cands []weighted
	for _, part := range strings.Split(acceptLang, ",") {
		tag, params, _ := strings.Cut(part, ";")
		q := 1.0
		if k, v, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(k) == "q" {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				q = f
			}
		}
		if q <= 0 {
			continue
		}
		if l, ok := match(tag); ok {
			cands = append(cands, weighted{lang: l, q: q})
		}
	}
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].q > cands[j].q })
		return cands[0].lang
	}
	if l, ok := match(def); ok {
		return l
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}
