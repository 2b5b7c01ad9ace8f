package main

import (
	"strings"
)

// canonical field names
const (
	fieldAccount = "account"
	fieldService = "service"
	fieldAddress = "address"
	fieldPort    = "port"
	fieldObject  = "object"
	fieldProcess = "process"
	fieldShare   = "share"
)

type fieldLabel struct {
	Field  string
	Labels []string
}

// fieldLabels maps each canonical field to the labels Windows writes for it in
// Japanese and English exports. Lookup is first match in this order.
var fieldLabels = []fieldLabel{
	{fieldAccount, []string{"アカウント名:", "Account Name:"}},
	{fieldService, []string{"サービス名:", "Service Name:"}},
	{fieldAddress, []string{
		"クライアント アドレス:", "Client Address:",
		"ソース ネットワーク アドレス:", "Source Network Address:",
		"送信元アドレス:", "Source Address:",
	}},
	{fieldPort, []string{"クライアント ポート:", "Client Port:", "ソース ポート:", "Source Port:"}},
	{fieldObject, []string{"オブジェクト名:", "Object Name:"}},
	{fieldProcess, []string{"プロセス名:", "Process Name:"}},
	{fieldShare, []string{"共有名:", "Share Name:"}},
}

// finalizeField is the field that completes a record per event type.
// Event types not listed finish on the client port.
var finalizeField = map[int]string{
	eventPriv:        fieldAccount,
	eventProcess:     fieldProcess,
	eventPrivService: fieldProcess,
	eventPrivObject:  fieldProcess,
	eventShare:       fieldShare,
}

// lowerFields are stored lower-cased.
var lowerFields = map[string]bool{
	fieldObject:  true,
	fieldProcess: true,
	fieldShare:   true,
}

// lookupField returns the canonical field whose label appears in token.
func lookupField(token string) (string, bool) {
	for _, fl := range fieldLabels {
		for _, l := range fl.Labels {
			if strings.Contains(token, l) {
				return fl.Field, true
			}
		}
	}
	return "", false
}

// getField returns the value after the first ':' of token when it carries
// one of labels, with tabs removed.
func getField(token string, labels ...string) string {
	found := false
	for _, l := range labels {
		if strings.Contains(token, l) {
			found = true
			break
		}
	}
	if !found {
		return ""
	}
	a := strings.SplitN(strings.TrimSpace(token), ":", 2)
	if len(a) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(a[1], "\t", ""))
}

// extractField resolves token against the label table.
func extractField(token string) (field, value string, ok bool) {
	field, ok = lookupField(token)
	if !ok {
		return "", "", false
	}
	if field == fieldAddress {
		token = strings.ReplaceAll(token, "::ffff:", "")
	}
	for _, fl := range fieldLabels {
		if fl.Field == field {
			value = getField(token, fl.Labels...)
			break
		}
	}
	if value == "-" {
		value = ""
	}
	if lowerFields[field] {
		value = strings.ToLower(value)
	}
	return field, value, true
}

// normalizeAccount strips the domain after '@' and lower-cases the name.
func normalizeAccount(s string) string {
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
