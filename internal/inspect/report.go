package inspect

import "encoding/json"

// Report is the structured payload the deep worker produces for one subject.
// It is stored verbatim as the deep_result column of group_checks and is the
// payload rendezvous waiters receive.
type Report struct {
	SubjectID   int64  `json:"subject_id"`
	Title       string `json:"title,omitempty"`
	Username    string `json:"username,omitempty"`
	JoinSuccess bool   `json:"join_success"`

	GeoGroup   bool     `json:"is_geo_group"`
	GeoReasons []string `json:"geo_reasons,omitempty"`

	ImportedStatus string   `json:"imported_status,omitempty"`
	ImportedSigns  []string `json:"imported_signs,omitempty"`

	GroupType        string `json:"group_type,omitempty"`
	ParticipantCount int    `json:"participants_count"`
	MessageCount     int    `json:"message_count"`

	CreationDate   string `json:"creation_date,omitempty"`
	CreationMethod string `json:"creation_method,omitempty"`

	Error string `json:"error,omitempty"`
}

// Encode serializes the report for storage.
func (r *Report) Encode() (json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// DecodeReport parses a stored deep-result payload.
func DecodeReport(payload json.RawMessage) (*Report, error) {
	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
