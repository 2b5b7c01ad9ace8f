//go:build !windows

package main

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// legacyDecoder is used for exports that are not UTF-8. They come from
// Japanese hosts unless told otherwise with -encoding.
func legacyDecoder() *encoding.Decoder {
	return japanese.ShiftJIS.NewDecoder()
}
