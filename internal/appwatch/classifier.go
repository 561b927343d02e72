// Package appwatch classifies the foreground window against the user's
// game blacklist/whitelist rules.
package appwatch

import (
	"strings"
	"time"

	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/window"
)

// Snapshot is the classification of one foreground-window observation.
// Recomputed on every poll, never patched in place.
type Snapshot struct {
	Name          string `json:"name,omitempty"`
	Title         string `json:"title,omitempty"`
	BundleID      string `json:"bundleId,omitempty"`
	ProcessPath   string `json:"processPath,omitempty"`
	IsBlacklisted bool   `json:"isBlacklisted"`
	IsWhitelisted bool   `json:"isWhitelisted"`
	IsGameActive  bool   `json:"isGameActive"`
	MatchedRule   string `json:"matchedRule,omitempty"`
	LastUpdated   int64  `json:"lastUpdated"` // unix milliseconds
}

// Classify maps a raw window observation plus the current rules into a
// snapshot. A nil observation (no window, unsupported platform) yields the
// neutral snapshot: nothing matched, no game active.
func Classify(obs *window.Observation, rules settings.AppRules, now time.Time) Snapshot {
	snapshot := Snapshot{LastUpdated: now.UnixMilli()}
	if obs == nil {
		return snapshot
	}

	ownerName := obs.Name
	if ownerName == "" {
		ownerName = pathBase(obs.ProcessPath)
	}

	titleCandidates := candidates(obs.Title)
	bundleCandidates := candidates(obs.BundleID)
	// The bare owner name is not a candidate field of its own; it only
	// participates in matching as the process fallback.
	processCandidates := candidates(obs.ProcessPath, ownerName)

	var selected []string
	switch rules.MatchStrategy {
	case settings.MatchTitle:
		selected = titleCandidates
	case settings.MatchProcess:
		selected = processCandidates
	case settings.MatchBundle:
		selected = bundleCandidates
	default:
		selected = append(append(append([]string{}, titleCandidates...), processCandidates...), bundleCandidates...)
	}

	matchedWhitelist, whitelistHit := matchRules(rules.GameWhitelist, selected)
	matchedBlacklist, blacklistHit := matchRules(rules.GameBlacklist, selected)

	var isBlacklisted, isWhitelisted, isGameActive bool
	if rules.ListMode == settings.ModeWhitelist {
		isWhitelisted = whitelistHit
		isBlacklisted = !isWhitelisted
		isGameActive = !isWhitelisted
	} else {
		isWhitelisted = whitelistHit
		isBlacklisted = blacklistHit
		isGameActive = isBlacklisted && !isWhitelisted
	}

	matchedRule := ""
	if blacklistHit {
		matchedRule = matchedBlacklist
	} else if whitelistHit {
		matchedRule = matchedWhitelist
	}

	snapshot.Name = ownerName
	snapshot.Title = obs.Title
	snapshot.BundleID = obs.BundleID
	snapshot.ProcessPath = obs.ProcessPath
	snapshot.IsBlacklisted = isBlacklisted
	snapshot.IsWhitelisted = isWhitelisted
	snapshot.IsGameActive = isGameActive
	snapshot.MatchedRule = matchedRule
	return snapshot
}

// matchRules returns the first rule whose normalized text is contained in any
// selected candidate. Substring match supports partial identifiers like
// "steam" against "steam_app_1234".
func matchRules(rules, selected []string) (string, bool) {
	for _, rule := range rules {
		target := normalize(rule)
		if target == "" {
			continue
		}
		for _, candidate := range selected {
			if strings.Contains(candidate, target) {
				return rule, true
			}
		}
	}
	return "", false
}

func candidates(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if normalized := normalize(value); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// pathBase returns the final segment of a path in either separator style.
func pathBase(p string) string {
	if p == "" {
		return ""
	}
	if idx := strings.LastIndexAny(p, `/\`); idx >= 0 {
		return p[idx+1:]
	}
	return p
}
