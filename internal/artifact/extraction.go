package artifact

import (
	"encoding/json"

	"github.com/ndquoc/grounder/internal/model"
)

// LoadExtraction reads a per-passage extraction record. Records whose parsed
// payload is absent but whose raw model text is present get a best-effort
// re-parse, which rescues extractions from runs that crashed between the
// model call and the parse.
func LoadExtraction(path string) (*model.ExtractionRecord, error) {
	var record model.ExtractionRecord
	if err := ReadJSON(path, &record); err != nil {
		return nil, err
	}
	if record.Response.Parsed == nil && record.Response.Raw != "" {
		var payload model.PeoplePayload
		if err := json.Unmarshal([]byte(record.Response.Raw), &payload); err == nil {
			record.Response.Parsed = &payload
		}
	}
	return &record, nil
}
