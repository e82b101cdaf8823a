package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"foodforward-data/internal/projection"
)

// LedgerExportHeader 账本导出表头
var LedgerExportHeader = []string{
	"Hash",
	"Block",
	"Donation ID",
	"Status",
	"Donor",
	"Recipient",
	"Organization",
	"Title",
	"Category",
	"Quantity",
	"Verified By",
	"Beneficiaries",
	"Impact Tier",
	"Timestamp",
}

func ledgerRow(tx *projection.LedgerTransaction) []string {
	item := projection.LedgerItem{}
	if len(tx.Items) > 0 {
		item = tx.Items[0]
	}
	return []string{
		tx.Hash,
		strconv.FormatInt(tx.BlockNumber, 10),
		tx.DonationID,
		tx.Status,
		tx.Donor.Name,
		tx.Recipient.Name,
		tx.Recipient.Organization,
		item.Title,
		item.Category,
		item.Quantity + " " + item.Unit,
		tx.Verification.VerifiedBy,
		strconv.Itoa(tx.Impact.EstimatedBeneficiaries),
		tx.Impact.Tier,
		tx.Timestamp.Format("2006-01-02 15:04:05"),
	}
}

// GenerateLedgerExcel 生成账本导出 Excel 文件
func GenerateLedgerExcel(txs []projection.LedgerTransaction) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Donation Ledger"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range LedgerExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for rowIdx := range txs {
		row := ledgerRow(&txs[rowIdx])
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	f.Close()
	return buf.Bytes(), nil
}

// GenerateLedgerCSV 生成账本导出 CSV 文件
func GenerateLedgerCSV(txs []projection.LedgerTransaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(LedgerExportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range txs {
		if err := w.Write(ledgerRow(&txs[i])); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
