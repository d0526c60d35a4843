/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"storyboarder/internal/domain"
)

// Formats gofpdf can embed directly.
var pdfImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

// WriteContactSheet renders a review PDF: one block per scene with its code,
// texts, keywords and (when the linked file exists and has an embeddable
// format) a small copy of the reference image. Missing or unsupported images
// degrade to a blank cell; they never fail the sheet.
//
// Built-in Helvetica keeps text vector without font embedding; non-latin
// glyphs are transliterated best-effort by the cp1252 translator.
func WriteContactSheet(scenes []domain.Scene, outPath string) error {
	if !strings.HasSuffix(strings.ToLower(outPath), ".pdf") {
		outPath += ".pdf"
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Storyboard contact sheet", true)
	pdf.SetAuthor("Storyboarder", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	const (
		marginX   = 15.0
		blockH    = 42.0
		imgW      = 48.0
		imgH      = 36.0
		textX     = marginX + imgW + 6
		pageBreak = 280.0
	)

	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	y := 15.0

	for _, sc := range scenes {
		if y+blockH > pageBreak {
			pdf.AddPage()
			y = 15.0
		}

		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(marginX, y)
		code := sc.Code
		if code == "" {
			code = "(no code)"
		}
		pdf.CellFormat(0, 6, tr(code), "", 0, "L", false, 0, "")

		if p := sc.ImagePath(); p != "" && pdfImageExts[strings.ToLower(filepath.Ext(p))] {
			if _, err := os.Stat(p); err == nil {
				opts := gofpdf.ImageOptions{ImageType: "", ReadDpi: true}
				pdf.ImageOptions(p, marginX, y+7, imgW, imgH, false, opts, 0, "")
			}
		}

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(textX, y+7)
		pdf.MultiCell(180-imgW-6, 4.5, tr(sc.EnText), "", "L", false)
		pdf.SetX(textX)
		pdf.MultiCell(180-imgW-6, 4.5, tr(sc.ViText), "", "L", false)

		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetX(textX)
		kw := sc.Keywords
		if sc.HasCharacterImage {
			kw = strings.TrimSpace(kw + " [character]")
		}
		pdf.MultiCell(180-imgW-6, 4, tr(kw), "", "L", false)

		y += blockH
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(marginX, y-3, 195, y-3)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write contact sheet: %w", err)
	}
	return nil
}
