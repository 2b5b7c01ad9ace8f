package main

import "strings"

// adminShareMarker is the hidden administrative share of the system drive.
const adminShareMarker = `\c$`

// checkAdminShare flags network access to an administrative share.
func checkAdminShare(d *detector, dt *detection) {
	for _, e := range dt.group.Events {
		if e.EventID != eventShare {
			continue
		}
		if strings.Contains(e.SharedName, adminShareMarker) {
			e.flag(AlertAdminShare, LevelSevere)
		}
	}
}
