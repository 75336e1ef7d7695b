package model

// TextSpan is a field value the upstream extractor grounds with character
// offsets into the passage. Start/End of -1 mean the extractor supplied no
// position.
type TextSpan struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// AgeField carries a numeric age plus the offsets of its mention. The value
// itself is not a verbatim span, so only the offsets get structural checks.
type AgeField struct {
	Value *int `json:"value"`
	Start int  `json:"start"`
	End   int  `json:"end"`
}

// Role labels a person within the reported events (suspect, victim, ...).
type Role struct {
	Label      string `json:"label"`
	SentenceID int    `json:"sentence_id"`
}

// Action is a legal event predicated of a person (arrested, charged, ...).
type Action struct {
	Predicate         string    `json:"predicate"`
	ObjectDescription *TextSpan `json:"object_description,omitempty"`
	ItemsSeized       []TextSpan `json:"items_seized,omitempty"`
	Location          *TextSpan `json:"location,omitempty"`
	Time              *TextSpan `json:"time,omitempty"`
	AmountVND         *int64    `json:"amount_vnd,omitempty"`
	LawArticle        string    `json:"law_article,omitempty"`
	SentenceYears     *float64  `json:"sentence_years,omitempty"`
	SentenceID        int       `json:"sentence_id"`
}

// Person is one extracted individual with grounded attribute fields.
type Person struct {
	Name          *TextSpan  `json:"name"`
	Aliases       []TextSpan `json:"aliases,omitempty"`
	Age           *AgeField  `json:"age,omitempty"`
	BirthDate     *TextSpan  `json:"birth_date,omitempty"`
	Address       *TextSpan  `json:"address,omitempty"`
	Occupation    *TextSpan  `json:"occupation,omitempty"`
	Phones        []TextSpan `json:"phones,omitempty"`
	Organizations []TextSpan `json:"organizations,omitempty"`
	NationalID    *TextSpan  `json:"national_id,omitempty"`
	Roles         []Role     `json:"roles,omitempty"`
	Actions       []Action   `json:"actions,omitempty"`
	Confidence    float64    `json:"confidence,omitempty"`
}

// DisplayName returns the person's extracted name or "Unknown".
func (p Person) DisplayName() string {
	if p.Name != nil && p.Name.Text != "" {
		return p.Name.Text
	}
	return "Unknown"
}

// PeoplePayload is the parsed body of an extraction response.
type PeoplePayload struct {
	People []Person `json:"people"`
}

// ExtractionResponse holds both the raw model output and the parsed payload.
type ExtractionResponse struct {
	Raw    string         `json:"raw,omitempty"`
	Parsed *PeoplePayload `json:"parsed,omitempty"`
}

// ExtractionRecord is the per-(doc, passage) artifact the extraction pass
// writes and both validators consume.
type ExtractionRecord struct {
	DocID        string             `json:"doc_id"`
	PassageID    int                `json:"passage_id"`
	ArticleTitle string             `json:"article_title,omitempty"`
	PublishedAt  string             `json:"published_at,omitempty"`
	Model        string             `json:"model,omitempty"`
	Status       string             `json:"status,omitempty"`
	Error        string             `json:"error,omitempty"`
	Passage      Passage            `json:"passage"`
	Response     ExtractionResponse `json:"response"`
}
