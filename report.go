package main

import (
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// output file names
const (
	resultCSV      = "result.csv"
	resultXLSX     = "result.xlsx"
	resultManifest = "result.sha256"
)

var resultHeader = []string{"date", "eventID", "account", "ip", "service", "process", "sharedname", "target", "alerttype", "alertlevel"}
var extendedHeader = []string{"date", "eventID", "account", "ip", "service", "process", "objectname", "sharedname", "target", "alerttype", "alertlevel"}

func header(extended bool) []string {
	if extended {
		return extendedHeader
	}
	return resultHeader
}

func resultRow(e *EventRecord, extended bool) []string {
	row := []string{e.Date, strconv.Itoa(e.EventID), e.AccountName, e.ClientAddress, e.ServiceName, e.ProcessName}
	if extended {
		row = append(row, e.ObjectName)
	}
	return append(row, e.SharedName, e.Target, e.AlertType.String(), e.AlertLevel.String())
}

// removePrevResults deletes the files a previous run wrote to dir.
func removePrevResults(dir string) error {
	for _, n := range []string{resultCSV, resultXLSX, resultManifest} {
		err := os.Remove(filepath.Join(dir, n))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func writeResultCSV(path string, recs []*EventRecord, extended bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeResults(f, recs, extended); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeResults(w io.Writer, recs []*EventRecord, extended bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(extended)); err != nil {
		return err
	}
	for _, e := range recs {
		if err := cw.Write(resultRow(e, extended)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeResultXLSX writes the labeled events and the infected pairs as a workbook.
func writeResultXLSX(path string, recs []*EventRecord, infected []*computerGroup, extended bool) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	h := header(extended)
	if err := f.SetSheetRow(sheet, "A1", &h); err != nil {
		return err
	}
	for i, e := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := resultRow(e, extended)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if _, err := f.NewSheet("infected"); err != nil {
		return err
	}
	ih := []string{"account", "computer", "events", "tgt", "st"}
	if err := f.SetSheetRow("infected", "A1", &ih); err != nil {
		return err
	}
	for i, g := range infected {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		k := countKerberos(g)
		row := []interface{}{g.Account, g.Computer, len(g.Events), k.TGT, k.ST}
		if err := f.SetSheetRow("infected", cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// writeManifest records the SHA-256 of each output file in sha256sum format.
func writeManifest(dir, runID string, names []string) error {
	f, err := os.Create(filepath.Join(dir, resultManifest))
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(f, "# run=%s time=%s\n", runID, time.Now().Format(time.RFC3339))
	for _, n := range names {
		h, err := fileHash(filepath.Join(dir, n))
		if err != nil {
			return err
		}
		fmt.Fprintf(f, "%s  %s\n", h, n)
	}
	return f.Close()
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// printDetectionRate writes the run report.
func printDetectionRate(w io.Writer, e *Engine) {
	s := &e.Stats
	fmt.Fprintln(w, "Infected accounts and computers:")
	for _, g := range e.Infected() {
		fmt.Fprintln(w, g)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total amount of events: %d\n", s.LogCnt)
	fmt.Fprintf(w, "Total amount of accounts & computers: %d\n", s.DataNum)
	fmt.Fprintf(w, "TP(event): %d\n", s.DetectedEventNum)
	fmt.Fprintf(w, "TN(event): %d\n", s.LogCnt-s.DetectedEventNum)
	fmt.Fprintf(w, "TP(accounts & computers): %d\n", s.InfectedNum)
	fmt.Fprintf(w, "TN(accounts & computers): %d\n", s.DataNum-s.InfectedNum)
}
