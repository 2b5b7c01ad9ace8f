package main

import (
	"fmt"
	"strconv"
	"time"
)

// Windows security audit event IDs
const (
	eventProcess     = 4688
	eventPriv        = 4672
	eventPrivService = 4673
	eventPrivObject  = 4674
	eventTGT         = 4768
	eventST          = 4769
	eventShare       = 5140
)

var targetEventIDs = map[int]bool{
	eventProcess:     true,
	eventPriv:        true,
	eventPrivService: true,
	eventPrivObject:  true,
	eventTGT:         true,
	eventST:          true,
	eventShare:       true,
}

const timeLayout = "2006/01/02 15:04:05"

type AlertType int

const (
	AlertNone AlertType = iota
	AlertNoTGT
	AlertMaliciousCommand
	AlertAdminShare
	AlertPsExec
	AlertNotInAdminList
)

func (a AlertType) String() string {
	switch a {
	case AlertNoTGT:
		return "No TGT request"
	case AlertMaliciousCommand:
		return "Malicious Command"
	case AlertAdminShare:
		return "Administrative Share"
	case AlertPsExec:
		return "Psexec used"
	case AlertNotInAdminList:
		return "Not in Admin list"
	}
	return "None"
}

// priority decides which rule wins when two rules tag the same record.
func (a AlertType) priority() int {
	switch a {
	case AlertNoTGT:
		return 5
	case AlertNotInAdminList:
		return 4
	case AlertAdminShare:
		return 3
	case AlertPsExec:
		return 2
	case AlertMaliciousCommand:
		return 1
	}
	return 0
}

type AlertLevel int

const (
	LevelNone AlertLevel = iota
	LevelNotice
	LevelWarning
	LevelSevere
)

func (l AlertLevel) String() string {
	switch l {
	case LevelSevere:
		return "SEVERE"
	case LevelWarning:
		return "WARNING"
	case LevelNotice:
		return "NOTICE"
	}
	return "NONE"
}

// syslog severity for an alert level
func (l AlertLevel) severity() int {
	switch l {
	case LevelSevere:
		return 2
	case LevelWarning:
		return 4
	case LevelNotice:
		return 5
	}
	return 6
}

// EventRecord is one security audit event taken from an exported log.
type EventRecord struct {
	Time          time.Time
	Date          string
	EventID       int
	AccountName   string
	ClientAddress string
	ClientPort    int
	ServiceName   string
	ProcessName   string
	ObjectName    string
	SharedName    string
	TimeBucket    int64
	IsGolden      bool
	AlertType     AlertType
	AlertLevel    AlertLevel
	Target        string
	File          string
}

// key is the full-field identity used when duplicates are collapsed.
func (e *EventRecord) key() string {
	return fmt.Sprintf("%s\x00%d\x00%s\x00%s\x00%d\x00%s\x00%s\x00%s\x00%s\x00%d",
		e.Date, e.EventID, e.AccountName, e.ClientAddress, e.ClientPort,
		e.ServiceName, e.ProcessName, e.ObjectName, e.SharedName, e.TimeBucket)
}

func (e *EventRecord) flag(t AlertType, l AlertLevel) {
	if e.IsGolden && e.AlertType.priority() > t.priority() {
		return
	}
	e.IsGolden = true
	e.AlertType = t
	e.AlertLevel = l
}

func (e *EventRecord) unflag() {
	e.IsGolden = false
	e.AlertType = AlertNone
	e.AlertLevel = LevelNone
}

func (e *EventRecord) String() string {
	return fmt.Sprintf("type=GoldenTicket,account=%s,computer=%s,eventID=%d,service=%s,process=%s,object=%s,share=%s,alert=%s,level=%s,time=%s",
		e.AccountName, e.ClientAddress, e.EventID, e.ServiceName, e.ProcessName,
		e.ObjectName, e.SharedName, e.AlertType, e.AlertLevel, e.Date)
}

// eventBuilder accumulates the fields of one audit event until the field that
// terminates its event type is seen.
type eventBuilder struct {
	eventID int
	date    string
	t       time.Time
	bucket  int64
	file    string
	fields  map[string]string
	frozen  bool
}

func newEventBuilder(file string, eventID int, date string, t time.Time, bucket int64) *eventBuilder {
	return &eventBuilder{
		eventID: eventID,
		date:    date,
		t:       t,
		bucket:  bucket,
		file:    file,
		fields:  make(map[string]string),
	}
}

func (b *eventBuilder) set(field, value string) {
	if b.frozen {
		return
	}
	if field == fieldAccount && value == "" {
		return
	}
	b.fields[field] = value
}

// terminates reports whether field completes the event being built.
func (b *eventBuilder) terminates(field string) bool {
	if b.frozen {
		return false
	}
	f, ok := finalizeField[b.eventID]
	if !ok {
		f = fieldPort
	}
	return f == field
}

func (b *eventBuilder) build() *EventRecord {
	b.frozen = true
	e := &EventRecord{
		Time:          b.t,
		Date:          b.date,
		EventID:       b.eventID,
		AccountName:   normalizeAccount(b.fields[fieldAccount]),
		ClientAddress: b.fields[fieldAddress],
		ServiceName:   b.fields[fieldService],
		ProcessName:   b.fields[fieldProcess],
		ObjectName:    b.fields[fieldObject],
		SharedName:    b.fields[fieldShare],
		TimeBucket:    b.bucket,
		AlertType:     AlertNone,
		AlertLevel:    LevelNone,
		File:          b.file,
	}
	if p, err := strconv.Atoi(b.fields[fieldPort]); err == nil {
		e.ClientPort = p
	}
	switch b.eventID {
	case eventProcess, eventPrivService, eventPrivObject:
		// requester address is not recorded on these events
		e.ClientAddress = ""
	case eventPriv:
		e.ClientAddress = ""
		e.ServiceName = ""
	}
	return e
}
