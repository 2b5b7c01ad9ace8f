package main

import (
	"fmt"
	"sort"
	"strings"
)

// privilegeEnt is an account that was assigned special privileges (4672).
type privilegeEnt struct {
	Account   string
	Count     int
	Whitelist bool
}

func (e *privilegeEnt) String() string {
	return fmt.Sprintf("type=Privilege,account=%s,count=%d,whitelist=%v",
		e.Account, e.Count, e.Whitelist)
}

// privilegeSet keeps the accounts seen in 4672 events.
type privilegeSet map[string]*privilegeEnt

func (p privilegeSet) add(account string) {
	if e, ok := p[account]; ok {
		e.Count++
		return
	}
	p[account] = &privilegeEnt{Account: account, Count: 1}
}

// list returns the entries sorted by account, marking whitelisted accounts.
func (p privilegeSet) list(whitelist map[string]bool) []*privilegeEnt {
	ret := []*privilegeEnt{}
	for _, e := range p {
		e.Whitelist = whitelist[e.Account]
		ret = append(ret, e)
	}
	sort.Slice(ret, func(i, j int) bool {
		return strings.Compare(ret[i].Account, ret[j].Account) < 0
	})
	return ret
}

// checkAdminList flags special privilege assignments to accounts missing
// from the admin whitelist.
func checkAdminList(d *detector, dt *detection) {
	for _, e := range dt.group.Events {
		if e.EventID != eventPriv {
			continue
		}
		if d.adminWhiteList[e.AccountName] {
			continue
		}
		e.flag(AlertNotInAdminList, LevelSevere)
	}
}
