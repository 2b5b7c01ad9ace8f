package main

import (
	"strings"
)

// service installed on the target by PsExec
const psexecService = "psexesvc"

// commandName is the last path component of a process name.
func commandName(processName string) string {
	if i := strings.LastIndex(processName, `\`); i >= 0 {
		return processName[i+1:]
	}
	return processName
}

func isProcessEvent(eventID int) bool {
	switch eventID {
	case eventProcess, eventPrivService, eventPrivObject:
		return true
	}
	return false
}

// checkMaliciousCommand flags processes whose command name is on the
// suspicious command list and records which distinct processes ran. The
// severity is set afterwards from the share of the list that was executed.
func checkMaliciousCommand(d *detector, dt *detection) {
	for _, e := range dt.group.Events {
		if !isProcessEvent(e.EventID) {
			continue
		}
		name := commandName(e.ProcessName)
		for _, cmd := range d.suspiciousCmd {
			if name == cmd {
				e.flag(AlertMaliciousCommand, LevelNone)
				dt.commands[e.ProcessName] = true
				break
			}
		}
	}
}

// checkPsExec flags privileged object operations on the PsExec service.
func checkPsExec(d *detector, dt *detection) {
	for _, e := range dt.group.Events {
		if e.EventID != eventPrivObject {
			continue
		}
		if strings.Contains(e.ObjectName, psexecService) {
			e.flag(AlertPsExec, LevelSevere)
		}
	}
}
