package flow

import (
	"strings"

	"github.com/amanex/amanex/internal/config"
)

// Main menu button labels. Inbound matching tolerates surrounding
// decoration, so these are also the match keywords.
const (
	BtnSell       = "📤 Sell Account"
	BtnBuy        = "📥 Buy Account"
	BtnMyActivity = "👤 My Activity"
	BtnTerms      = "📄 Terms of Service"
	BtnSupport    = "☎️ Contact Support"

	BtnBack   = "⬅️ Back"
	BtnCancel = "❌ Cancel"
	BtnDone   = "✅ Done"
)

// Admin menu button labels.
const (
	BtnAdminFindListing = "🔎 Find Listing"
	BtnAdminFindOrder   = "🔎 Find Order"
	BtnAdminPending     = "⏳ Pending Listings"
	BtnAdminPaid        = "💰 Paid Orders"
	BtnAdminBackup      = "💾 Backup Database"
)

// mainMenu is the idle-state reply keyboard.
func mainMenu() [][]string {
	return [][]string{
		{BtnSell, BtnBuy},
		{BtnMyActivity, BtnTerms},
		{BtnSupport},
	}
}

// adminMenu is the operator reply keyboard.
func adminMenu() [][]string {
	return [][]string{
		{BtnAdminFindListing, BtnAdminFindOrder},
		{BtnAdminPending, BtnAdminPaid},
		{BtnAdminBackup, BtnCancel},
	}
}

// categoryMenu lists category labels one per row, plus Cancel.
func categoryMenu(categories []config.Category) [][]string {
	rows := make([][]string, 0, len(categories)+1)
	for _, cat := range categories {
		rows = append(rows, []string{cat.Label})
	}
	rows = append(rows, []string{BtnCancel})
	return rows
}

// subcategoryMenu lists subcategories two per row, plus Back and Cancel.
func subcategoryMenu(subs []string) [][]string {
	var rows [][]string
	for i := 0; i < len(subs); i += 2 {
		if i+1 < len(subs) {
			rows = append(rows, []string{subs[i], subs[i+1]})
		} else {
			rows = append(rows, []string{subs[i]})
		}
	}
	rows = append(rows, []string{BtnBack, BtnCancel})
	return rows
}

// paymentMenu lists payment labels one per row, plus Done and Cancel.
func paymentMenu(labels []string) [][]string {
	rows := make([][]string, 0, len(labels)+1)
	for _, label := range labels {
		rows = append(rows, []string{label})
	}
	rows = append(rows, []string{BtnDone, BtnCancel})
	return rows
}

// cancelOnly is the keyboard for free-text steps.
func cancelOnly() [][]string {
	return [][]string{{BtnCancel}}
}

// photosMenu is the keyboard for the photo-collection step.
func photosMenu() [][]string {
	return [][]string{{BtnDone, BtnCancel}}
}

// matchesButton reports whether text matches the button label, tolerating
// extra whitespace and decoration around the label's core words.
func matchesButton(text, button string) bool {
	t := strings.TrimSpace(text)
	if t == button {
		return true
	}
	// Compare without the leading emoji.
	core := strings.TrimSpace(trimLeadingSymbol(button))
	return core != "" && strings.EqualFold(strings.TrimSpace(trimLeadingSymbol(t)), core)
}

// trimLeadingSymbol drops a leading non-letter rune cluster (emoji plus the
// space after it).
func trimLeadingSymbol(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 && !isASCIIWord(s[:i]) {
		return s[i+1:]
	}
	return s
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// isCancel reports whether text is a cancel request.
func isCancel(text string) bool {
	return matchesButton(text, BtnCancel) || strings.EqualFold(strings.TrimSpace(text), "cancel")
}

// isBack reports whether text is a back request.
func isBack(text string) bool {
	return matchesButton(text, BtnBack) || strings.EqualFold(strings.TrimSpace(text), "back")
}

// isDone reports whether text is a done token.
func isDone(text string) bool {
	return matchesButton(text, BtnDone) || strings.EqualFold(strings.TrimSpace(text), "done")
}
