//go:build windows

package main

import (
	"golang.org/x/sys/windows"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// legacyDecoder follows the ANSI code page of the host, which is what
// Event Viewer uses for CSV exports.
func legacyDecoder() *encoding.Decoder {
	switch windows.GetACP() {
	case 936:
		return simplifiedchinese.GBK.NewDecoder()
	}
	return japanese.ShiftJIS.NewDecoder()
}
