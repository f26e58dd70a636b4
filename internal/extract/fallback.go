package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const datePattern = `(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{4})`

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	labeledPhoneRe = regexp.MustCompile(`(?i)\b(?:phone|mobile|call)\b[^0-9+]{0,12}(\+?\d{9,15})`)
	barePhoneRe    = regexp.MustCompile(`(?:^|[^\d+])(\+?\d{9,15})(?:[^\d]|$)`)

	nameCueRe = regexp.MustCompile(`(?i)\b(?:my name is|i am|name:)\s+(.+)$`)

	dateRangeRe = regexp.MustCompile(`(?i)\bfrom\s+` + datePattern + `.*?\b(?:to|until|till)\s+` + datePattern)
	checkInRe   = regexp.MustCompile(`(?i)\b(?:check[\s-]?in|start|from)\b[^0-9]{0,18}` + datePattern)
	checkOutRe  = regexp.MustCompile(`(?i)\b(?:check[\s-]?out|end|to|until)\b[^0-9]{0,18}` + datePattern)

	guestsBeforeRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:guests?|people|persons?|adults?|pax)\b`)
	guestsAfterRe  = regexp.MustCompile(`(?i)\b(?:guests?|people|persons?|adults?|pax)\b[^0-9]{0,8}(\d{1,2})\b`)
)

// Words that terminate a captured name. The guest typically runs several
// facts together in one line ("my name is Jane Doe, email jane@x.com ...").
var nameStopWords = map[string]bool{
	"email":  true,
	"phone":  true,
	"mobile": true,
	"check":  true,
	"from":   true,
	"to":     true,
	"guests": true,
	"guest":  true,
	"room":   true,
	"rooms":  true,
	"and":    true,
	"my":     true,
}

// fallbackExtract is the deterministic tier: pure pattern matching and
// normalization, no model involved.
func fallbackExtract(text string) Slots {
	var slots Slots

	if email := emailRe.FindString(text); email != "" {
		slots.Email = &email
	}
	if phone := extractPhone(text); phone != "" {
		slots.Phone = &phone
	}
	if name := extractName(text); name != "" {
		slots.Name = &name
	}

	checkIn, checkOut := extractDates(text)
	if checkIn != "" {
		slots.CheckInDate = &checkIn
	}
	if checkOut != "" {
		slots.CheckOutDate = &checkOut
	}

	if guests := extractGuests(text); guests > 0 {
		slots.Guests = &guests
	}

	return slots
}

func extractPhone(text string) string {
	// Prefer a digit run following a phone/mobile/call label, falling back
	// to the first standalone run.
	if m := labeledPhoneRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := barePhoneRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractName(text string) string {
	m := nameCueRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	var words []string
	for _, raw := range strings.Fields(m[1]) {
		word := strings.Trim(raw, ",.;:!?")
		lower := strings.ToLower(word)
		if word == "" || nameStopWords[lower] || strings.HasPrefix(lower, "check") {
			break
		}
		// "i need ..." ends the name even though "i" alone would not.
		if lower == "i" {
			break
		}
		if strings.ContainsAny(word, "@0123456789") {
			break
		}
		words = append(words, titleCase(lower))
		// A trailing separator on the raw token ends the name run.
		if strings.ContainsAny(raw, ",.;:") {
			break
		}
	}
	return strings.Join(words, " ")
}

func extractDates(text string) (checkIn, checkOut string) {
	if m := dateRangeRe.FindStringSubmatch(text); m != nil {
		in, okIn := normalizeDate(m[1])
		out, okOut := normalizeDate(m[2])
		if okIn && okOut {
			return in, out
		}
	}

	if m := checkInRe.FindStringSubmatch(text); m != nil {
		if iso, ok := normalizeDate(m[1]); ok {
			checkIn = iso
		}
	}
	if m := checkOutRe.FindStringSubmatch(text); m != nil {
		if iso, ok := normalizeDate(m[1]); ok {
			checkOut = iso
		}
	}
	return checkIn, checkOut
}

func extractGuests(text string) int {
	if m := guestsBeforeRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := guestsAfterRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}

// normalizeDate maps day-first D[D]/M[M]/YYYY (slash or dash separated) to
// zero-padded ISO. Already-ISO strings pass through untouched. The result
// must re-parse as a real calendar date or the input is rejected.
func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)

	if len(s) == 10 && s[4] == '-' && s[7] == '-' {
		if _, err := time.Parse(dateLayout, s); err == nil {
			return s, true
		}
		return "", false
	}

	sep := "/"
	if strings.Contains(s, "-") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return "", false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}

	iso := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if _, err := time.Parse(dateLayout, iso); err != nil {
		return "", false
	}
	return iso, true
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
