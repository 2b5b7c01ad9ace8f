package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Event Viewer "Save All Events As" CSV: the first line of each event carries
// level,date,source,id,category and the quoted description spans the lines
// that follow it.

func evHeader(date string, id int, category, title string) string {
	return fmt.Sprintf("Information,%s,Microsoft-Windows-Security-Auditing,%d,%s,\"%s\n", date, id, category, title)
}

func subject(account string) string {
	return "Subject:\n" +
		"\tSecurity ID:\t\tCONTOSO\\" + account + "\n" +
		"\tAccount Name:\t\t" + account + "\n" +
		"\tAccount Domain:\t\tCONTOSO\n" +
		"\tLogon ID:\t\t0x3E7\n\n"
}

func tgtEvent(date, account, ip string) string {
	return evHeader(date, eventTGT, "Kerberos Authentication Service", "A Kerberos authentication ticket (TGT) was requested.") +
		"\nAccount Information:\n" +
		"\tAccount Name:\t\t" + account + "\n" +
		"\tSupplied Realm Name:\tCONTOSO.LOCAL\n\n" +
		"Service Information:\n" +
		"\tService Name:\t\tkrbtgt\n" +
		"\tService ID:\t\tCONTOSO\\krbtgt\n\n" +
		"Network Information:\n" +
		"\tClient Address:\t\t::ffff:" + ip + "\n" +
		"\tClient Port:\t\t49666\n\n" +
		"Additional Information:\n" +
		"\tTicket Options:\t\t0x40810010\n" +
		"\tResult Code:\t\t0x0\n" +
		"\tTicket Encryption Type:\t0x12\n\"\n"
}

func stEvent(date, account, ip, service string) string {
	return evHeader(date, eventST, "Kerberos Service Ticket Operations", "A Kerberos service ticket was requested.") +
		"\nAccount Information:\n" +
		"\tAccount Name:\t\t" + account + "@CONTOSO.LOCAL\n" +
		"\tAccount Domain:\t\tCONTOSO.LOCAL\n" +
		"\tLogon GUID:\t\t{f85c455e-c66e-205c-6b39-f6c60a7fe453}\n\n" +
		"Service Information:\n" +
		"\tService Name:\t\t" + service + "\n" +
		"\tService ID:\t\tCONTOSO\\" + service + "\n\n" +
		"Network Information:\n" +
		"\tClient Address:\t\t::ffff:" + ip + "\n" +
		"\tClient Port:\t\t49667\n\n" +
		"Additional Information:\n" +
		"\tTicket Options:\t\t0x40810000\n" +
		"\tTicket Encryption Type:\t0x12\n" +
		"\tFailure Code:\t\t0x0\n" +
		"\tTransited Services:\t-\n\"\n"
}

func privEvent(date, account string) string {
	return evHeader(date, eventPriv, "Special Logon", "Special privileges assigned to new logon.") +
		"\n" + subject(account) +
		"Privileges:\t\tSeSecurityPrivilege\n" +
		"\t\t\tSeDebugPrivilege\"\n"
}

func processEvent(date, account, process string) string {
	return evHeader(date, eventProcess, "Process Creation", "A new process has been created.") +
		"\n" + subject(account) +
		"Process Information:\n" +
		"\tNew Process ID:\t\t0x1a2c\n" +
		"\tNew Process Name:\t" + process + "\n" +
		"\tToken Elevation Type:\t%%1936\n" +
		"\tCreator Process ID:\t0x1d4\n" +
		"\tCreator Process Name:\tC:\\Windows\\explorer.exe\n\"\n"
}

func privServiceEvent(date, account, process string) string {
	return evHeader(date, eventPrivService, "Sensitive Privilege Use", "A privileged service was called.") +
		"\n" + subject(account) +
		"Service:\n" +
		"\tServer:\tSecurity\n" +
		"\tService Name:\t-\n\n" +
		"Process:\n" +
		"\tProcess ID:\t0x1f40\n" +
		"\tProcess Name:\t" + process + "\n\n" +
		"Service Request Information:\n" +
		"\tPrivileges:\t\tSeTcbPrivilege\n\"\n"
}

func privObjectEvent(date, account, object, process string) string {
	return evHeader(date, eventPrivObject, "Sensitive Privilege Use", "An operation was attempted on a privileged object.") +
		"\n" + subject(account) +
		"Object:\n" +
		"\tObject Server:\tSC Manager\n" +
		"\tObject Type:\tSERVICE OBJECT\n" +
		"\tObject Name:\t" + object + "\n" +
		"\tObject Handle:\t0xfdc6c7fc20\n\n" +
		"Process Information:\n" +
		"\tProcess ID:\t0x234\n" +
		"\tProcess Name:\t" + process + "\n\n" +
		"Requested Operation:\n" +
		"\tDesired Access:\tDELETE\n\"\n"
}

func shareEvent(date, account, ip, share string) string {
	return evHeader(date, eventShare, "File Share", "A network share object was accessed.") +
		"\n" + subject(account) +
		"Network Information:\n" +
		"\tObject Type:\t\tFile\n" +
		"\tSource Address:\t\t" + ip + "\n" +
		"\tSource Port:\t\t49670\n\n" +
		"Share Information:\n" +
		"\tShare Name:\t\t" + share + "\n" +
		"\tShare Path:\t\t\\??\\C:\\\n\n" +
		"Access Request Information:\n" +
		"\tAccess Mask:\t\t0x1\"\n"
}

func logonEvent(date, account string) string {
	return evHeader(date, 4624, "Logon", "An account was successfully logged on.") +
		"\n" + subject(account) +
		"Network Information:\n" +
		"\tSource Network Address:\t10.0.0.9\n" +
		"\tSource Port:\t\t50000\n\"\n"
}

func stEventJa(date, account, ip string) string {
	return fmt.Sprintf("情報,%s,Microsoft-Windows-Security-Auditing,%d,Kerberos サービス チケットの操作,\"Kerberos サービス チケットが要求されました。\n", date, eventST) +
		"\nアカウント情報:\n" +
		"\tアカウント名:\t\t" + account + "@CONTOSO.LOCAL\n" +
		"\tアカウント ドメイン:\t\tCONTOSO.LOCAL\n\n" +
		"サービス情報:\n" +
		"\tサービス名:\t\tcifs/fs01\n\n" +
		"ネットワーク情報:\n" +
		"\tクライアント アドレス:\t\t::ffff:" + ip + "\n" +
		"\tクライアント ポート:\t\t49667\n\"\n"
}

func processEventJa(date, account, process string) string {
	return fmt.Sprintf("情報,%s,Microsoft-Windows-Security-Auditing,%d,プロセス作成,\"新しいプロセスが作成されました。\n", date, eventProcess) +
		"\nサブジェクト:\n" +
		"\tアカウント名:\t\t" + account + "\n" +
		"\tアカウント ドメイン:\t\tCONTOSO\n\n" +
		"プロセス情報:\n" +
		"\t新しいプロセス名:\t" + process + "\n\"\n"
}

func csvHeader() string {
	return "Level,Date and Time,Source,Event ID,Task Category\n"
}

func writeLog(t *testing.T, dir, name string, events ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(csvHeader()+strings.Join(events, "")), 0o644))
	return path
}

func parseString(t *testing.T, events ...string) *fileResult {
	t.Helper()
	r, err := parseEventLog(strings.NewReader(csvHeader()+strings.Join(events, "")), "test.csv")
	require.NoError(t, err)
	return r
}
