package main

import (
	"fmt"
	"log"
)

// kerberosEnt counts ticket requests of one account and computer pair.
type kerberosEnt struct {
	Account  string
	Computer string
	TGT      int
	ST       int
}

func (e *kerberosEnt) String() string {
	return fmt.Sprintf("type=Kerberos,account=%s,computer=%s,tgt=%d,st=%d",
		e.Account, e.Computer, e.TGT, e.ST)
}

func countKerberos(g *computerGroup) *kerberosEnt {
	e := &kerberosEnt{
		Account:  g.Account,
		Computer: g.Computer,
	}
	for _, ev := range g.Events {
		switch ev.EventID {
		case eventTGT:
			e.TGT++
		case eventST:
			e.ST++
		}
	}
	return e
}

// checkNoTGT flags service ticket requests made without any TGT request from
// the same computer. A forged TGT never passes through the KDC, so the
// computer only shows up on 4769.
func checkNoTGT(d *detector, dt *detection) {
	k := countKerberos(dt.group)
	if k.TGT > 0 || k.ST == 0 {
		return
	}
	if debug {
		log.Printf("no TGT %s", k)
	}
	for _, e := range dt.group.Events {
		if e.EventID == eventST {
			e.flag(AlertNoTGT, LevelSevere)
		}
	}
}
