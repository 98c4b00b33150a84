/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package drills

import "strings"

// Spanish equipment names sent by older clients.
var equipmentAliases = map[string]string{
	"balon":   "ball",
	"balón":   "ball",
	"aro":     "hoop",
	"canasta": "hoop",
	"conos":   "cones",
	"cuerda":  "rope",
	"comba":   "rope",
	"bandas":  "bands",
	"gomas":   "bands",
}

// CanonicalEquipment lowercases an equipment tag and maps known aliases to
// the catalog's tag.
func CanonicalEquipment(item string) string {
	item = strings.ToLower(strings.TrimSpace(item))
	if canonical, ok := equipmentAliases[item]; ok {
		return canonical
	}
	return item
}

// NormalizeEquipment canonicalizes items, dropping blanks and duplicates.
func NormalizeEquipment(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = CanonicalEquipment(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
