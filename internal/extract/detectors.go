package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ndquoc/grounder/internal/model"
)

// Normalized is the canonical value plus extra attributes a normalizer
// derives from a raw match.
type Normalized struct {
	Value string
	Attrs map[string]interface{}
}

// Normalizer turns a raw match into a canonical value, or rejects matches
// that are syntactically present but semantically invalid.
type Normalizer func(raw string, groups map[string]string) (Normalized, bool)

// Detector pairs a pattern with field-specific normalization.
type Detector struct {
	Name       string
	Type       model.SpanType
	Pattern    *regexp.Regexp
	Normalize  Normalizer
	Confidence float64
}

// DetectOptions identify where the input text sits inside the document.
type DetectOptions struct {
	DocID      string
	SentenceID string
	PassageID  *int
	BaseOffset int
}

// Detect runs the detector over text. Match offsets are rebased by
// opts.BaseOffset to document-absolute coordinates.
func (d Detector) Detect(text string, opts DetectOptions) []model.Span {
	var spans []model.Span
	names := d.Pattern.SubexpNames()
	for _, loc := range d.Pattern.FindAllStringSubmatchIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		groups := make(map[string]string)
		for i, name := range names {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			groups[name] = text[loc[2*i]:loc[2*i+1]]
		}
		normalized, ok := d.Normalize(raw, groups)
		if !ok {
			continue
		}
		attrs := map[string]interface{}{
			"detector":   d.Name,
			"normalized": normalized.Value,
			"raw":        raw,
		}
		for k, v := range normalized.Attrs {
			attrs[k] = v
		}
		confidence := d.Confidence
		spans = append(spans, model.Span{
			DocID:      opts.DocID,
			SpanType:   d.Type,
			Text:       strings.TrimSpace(raw),
			Start:      opts.BaseOffset + loc[0],
			End:        opts.BaseOffset + loc[1],
			SentenceID: opts.SentenceID,
			Source:     model.SourceRegex,
			PassageID:  opts.PassageID,
			Confidence: &confidence,
			Attributes: attrs,
		})
	}
	return spans
}

var (
	phonePattern = regexp.MustCompile(`(?:(?:\+?84)|0)(?:[\s\-.]?\d){8,10}`)

	nationalIDPattern = regexp.MustCompile(`(?i)(?:(?:CMND|CCCD)(?:\s+s(?:ố|o))?|s(?:ố|o)\s+(?:CMND|CCCD))[:\s-]*(?P<id>\d[\d\s.]{8,})`)

	dobDatePattern = regexp.MustCompile(`(?i)(?:(?:sinh\s+ngày\s*)|(?:ngày\s+sinh\s*)|)(?P<day>\d{1,2})[./-](?P<month>\d{1,2})[./-](?P<year>\d{2,4})`)

	dobYearPattern = regexp.MustCompile(`(?i)(?:sinh\s+năm|sinh|sn)\s*(?P<year>19\d{2}|20\d{2})`)

	currencyPattern = regexp.MustCompile(`(?i)(?P<amount>\d{1,3}(?:[.\s]\d{3})*(?:,\d+)?|\d+(?:,\d+)?)\s*(?P<unit>tỷ|ty|triệu|trieu|nghìn|ngàn|ngan|đồng|dong|đ|d|vnd)`)

	lawPattern = regexp.MustCompile(`(?i)Điều\s+(?P<article>\d{1,3}[A-Za-z]?)(?:\s+(?P<code>(?:Bộ\s+luật\s+Hình\s+sự)|BLHS)(?:\s+(?P<year>\d{4}))?)?`)

	nonDigitRe = regexp.MustCompile(`\D`)
	nonAlnumRe = regexp.MustCompile(`[^\dA-Za-z]`)
)

// currencyMultipliers maps Vietnamese amount units to their VND factor.
var currencyMultipliers = map[string]int64{
	"tỷ":    1_000_000_000,
	"ty":    1_000_000_000,
	"triệu": 1_000_000,
	"trieu": 1_000_000,
	"nghìn": 1_000,
	"ngàn":  1_000,
	"ngan":  1_000,
	"đồng":  1,
	"dong":  1,
	"đ":     1,
	"d":     1,
	"vnd":   1,
}

func normalizePhone(raw string, _ map[string]string) (Normalized, bool) {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if len(digits) < 9 {
		return Normalized{}, false
	}
	national := digits
	if strings.HasPrefix(digits, "84") {
		national = digits[2:]
		if !strings.HasPrefix(national, "0") {
			national = "0" + national
		}
	}
	if len(national) != 10 && len(national) != 11 {
		return Normalized{}, false
	}
	e164 := "+84" + strings.TrimLeft(national, "0")
	return Normalized{Value: national, Attrs: map[string]interface{}{"e164": e164}}, true
}

func normalizeNationalID(raw string, groups map[string]string) (Normalized, bool) {
	source := groups["id"]
	if source == "" {
		source = raw
	}
	digits := nonDigitRe.ReplaceAllString(source, "")
	if len(digits) != 9 && len(digits) != 12 {
		return Normalized{}, false
	}
	return Normalized{Value: digits, Attrs: map[string]interface{}{"length": len(digits)}}, true
}

func normalizeFullDate(_ string, groups map[string]string) (Normalized, bool) {
	day, err1 := strconv.Atoi(groups["day"])
	month, err2 := strconv.Atoi(groups["month"])
	year, err3 := strconv.Atoi(groups["year"])
	if err1 != nil || err2 != nil || err3 != nil {
		return Normalized{}, false
	}
	if year < 1900 {
		// 2-digit years rebase with a pivot at 30
		if year >= 30 {
			year += 1900
		} else {
			year += 2000
		}
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return Normalized{}, false
	}
	value := strconv.Itoa(year) + "-" + pad2(month) + "-" + pad2(day)
	return Normalized{
		Value: value,
		Attrs: map[string]interface{}{"precision": "date", "year": year, "month": month, "day": day},
	}, true
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func normalizeBirthYear(_ string, groups map[string]string) (Normalized, bool) {
	year, err := strconv.Atoi(groups["year"])
	if err != nil || year < 1900 || year > 2100 {
		return Normalized{}, false
	}
	return Normalized{
		Value: strconv.Itoa(year),
		Attrs: map[string]interface{}{"precision": "year", "year": year},
	}, true
}

// parseVietnameseNumber parses Vietnamese numeral formatting: dot as
// thousands separator, comma as decimal separator.
func parseVietnameseNumber(text string) (float64, bool) {
	sanitized := strings.NewReplacer(".", "", " ", "").Replace(text)
	sanitized = strings.ReplaceAll(sanitized, ",", ".")
	value, err := strconv.ParseFloat(sanitized, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func normalizeCurrency(_ string, groups map[string]string) (Normalized, bool) {
	number, ok := parseVietnameseNumber(groups["amount"])
	if !ok {
		return Normalized{}, false
	}
	unit := strings.ToLower(groups["unit"])
	attrs := map[string]interface{}{}
	multiplier, known := currencyMultipliers[unit]
	if !known {
		multiplier = 1
		attrs["unit_assumed"] = true
	}
	amountVND := int64(math.Round(number * float64(multiplier)))
	attrs["amount_vnd"] = amountVND
	if unit == "" {
		unit = "đồng"
	}
	attrs["unit"] = unit
	return Normalized{Value: strconv.FormatInt(amountVND, 10), Attrs: attrs}, true
}

func normalizeLaw(_ string, groups map[string]string) (Normalized, bool) {
	article := groups["article"]
	if article == "" {
		return Normalized{}, false
	}
	attrs := map[string]interface{}{}
	if code := strings.TrimSpace(groups["code"]); code != "" {
		attrs["code"] = code
	}
	if yearText := groups["year"]; yearText != "" {
		if year, err := strconv.Atoi(yearText); err == nil {
			attrs["year"] = year
		}
	}
	return Normalized{Value: nonAlnumRe.ReplaceAllString(article, ""), Attrs: attrs}, true
}

// DefaultDetectors returns the registered detector bank. The slice is fresh
// on each call so callers can prune or extend it without touching shared
// state.
func DefaultDetectors() []Detector {
	return []Detector{
		{Name: "phone", Type: model.SpanPhone, Pattern: phonePattern, Normalize: normalizePhone, Confidence: 0.95},
		{Name: "national_id", Type: model.SpanNationalID, Pattern: nationalIDPattern, Normalize: normalizeNationalID, Confidence: 0.9},
		{Name: "dob_full", Type: model.SpanDateOfBirth, Pattern: dobDatePattern, Normalize: normalizeFullDate, Confidence: 0.85},
		{Name: "dob_year", Type: model.SpanDateOfBirth, Pattern: dobYearPattern, Normalize: normalizeBirthYear, Confidence: 0.8},
		{Name: "currency", Type: model.SpanCurrency, Pattern: currencyPattern, Normalize: normalizeCurrency, Confidence: 0.8},
		{Name: "law_article", Type: model.SpanLaw, Pattern: lawPattern, Normalize: normalizeLaw, Confidence: 0.9},
	}
}

// RunDetectors runs every detector in the bank over text.
func RunDetectors(text string, detectors []Detector, opts DetectOptions) []model.Span {
	var spans []model.Span
	for _, detector := range detectors {
		spans = append(spans, detector.Detect(text, opts)...)
	}
	return spans
}
