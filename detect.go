package main

import (
	"fmt"
	"strings"
)

// Command execution rate for alert
const (
	alertSevereRate  = 0.85
	alertWarningRate = 0.2
)

// detection is the working state of the rules over one computer group.
type detection struct {
	group *computerGroup
	// distinct suspicious process names executed in the group
	commands map[string]bool
}

type rule struct {
	Name string
	Run  func(d *detector, dt *detection)
}

// allRules in evaluation order.
var allRules = []rule{
	{Name: "notgt", Run: checkNoTGT},
	{Name: "adminlist", Run: checkAdminList},
	{Name: "adminshare", Run: checkAdminShare},
	{Name: "malcmd", Run: checkMaliciousCommand},
	{Name: "psexec", Run: checkPsExec},
}

type detector struct {
	rules          []rule
	suspiciousCmd  []string
	adminWhiteList map[string]bool
}

// newDetector builds a detector running the named rules, or every rule when
// names is empty. The admin list rule needs a whitelist; a nil adminWhiteList
// disables it.
func newDetector(names []string, suspiciousCmd, adminWhiteList []string) (*detector, error) {
	d := &detector{
		suspiciousCmd: suspiciousCmd,
	}
	if adminWhiteList != nil {
		d.adminWhiteList = make(map[string]bool)
		for _, a := range adminWhiteList {
			d.adminWhiteList[normalizeAccount(a)] = true
		}
	}
	enabled := make(map[string]bool)
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		found := false
		for _, r := range allRules {
			if r.Name == n {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown rule %s", n)
		}
		enabled[n] = true
	}
	for _, r := range allRules {
		if len(enabled) > 0 && !enabled[r.Name] {
			continue
		}
		if r.Name == "adminlist" && d.adminWhiteList == nil {
			continue
		}
		d.rules = append(d.rules, r)
	}
	return d, nil
}

func (d *detector) ruleNames() []string {
	ret := []string{}
	for _, r := range d.rules {
		ret = append(ret, r.Name)
	}
	return ret
}

// detect tags the events of g and reports whether the account and computer
// pair is infected.
func (d *detector) detect(g *computerGroup) bool {
	dt := &detection{
		group:    g,
		commands: make(map[string]bool),
	}
	for _, r := range d.rules {
		r.Run(d, dt)
	}
	level := rateLevel(d.commandRate(len(dt.commands)))
	flagged := false
	for _, e := range g.Events {
		if e.AlertType == AlertMaliciousCommand {
			e.AlertLevel = level
		}
		if !e.IsGolden {
			continue
		}
		// events without an origin are incomplete correlation
		if e.ClientAddress == "" && e.EventID != eventPriv {
			e.unflag()
			continue
		}
		flagged = true
	}
	g.Infected = flagged && g.Account != "" && g.Computer != ""
	return g.Infected
}

// commandRate is the share of the suspicious command list executed.
func (d *detector) commandRate(matched int) float64 {
	if len(d.suspiciousCmd) == 0 {
		return 0
	}
	return float64(matched) / float64(len(d.suspiciousCmd))
}

func rateLevel(rate float64) AlertLevel {
	switch {
	case rate > alertSevereRate:
		return LevelSevere
	case rate > alertWarningRate:
		return LevelWarning
	case rate > 0:
		return LevelNotice
	}
	return LevelNone
}
