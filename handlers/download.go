package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/jung-kurt/gofpdf"

	"dialogue_ai/story"
)

type transcriptLine struct {
	Speaker string
	Text    string
}

// transcript prefers the journal, which spans every character the player
// has met, and falls back to the live conversation.
func (h *Handler) transcript(r *http.Request, snap story.Snapshot) []transcriptLine {
	var lines []transcriptLine
	if h.Store != nil {
		exchanges, err := h.Store.Exchanges(r.Context(), snap.SessionID)
		if err != nil {
			log.Printf("[Session %s] Journal read failed, using live history: %v", snap.SessionID, err)
		}
		for _, e := range exchanges {
			lines = append(lines,
				transcriptLine{"You", e.PlayerLine},
				transcriptLine{h.displayName(e.CharacterID), e.Reply},
			)
		}
		if len(lines) > 0 {
			return lines
		}
	}
	for _, t := range snap.History {
		lines = append(lines,
			transcriptLine{"You", t.PlayerLine},
			transcriptLine{snap.Character.DisplayName, t.Reply},
		)
	}
	return lines
}

func (h *Handler) displayName(characterID string) string {
	if h.Characters != nil {
		if p, ok := h.Characters.Get(characterID); ok {
			return p.DisplayName
		}
	}
	return characterID
}

func writeTranscriptPDF(w io.Writer, title string, lines []transcriptLine) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(14)

	if len(lines) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.MultiCell(0, 6, "Nothing has been said yet.", "", "L", false)
	}
	for _, l := range lines {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, tr(l.Speaker+":"))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(l.Text), "", "L", false)
		pdf.Ln(2)
	}
	return pdf.Output(w)
}

// Download sends the caller's conversation as a PDF.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	e, err := h.entry(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap := e.Snapshot()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="conversation-%s.pdf"`, snap.SessionID))
	if err := writeTranscriptPDF(w, "Conversation Transcript", h.transcript(r, snap)); err != nil {
		log.Printf("[Session %s] PDF generation failed: %v", snap.SessionID, err)
	}
}
