package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// ID is a record identifier. Backends emit either numbers or strings;
// both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// FileRecord is an uploaded file as returned by /upload and /file.
type FileRecord struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Mime      string    `json:"mime,omitempty"`
	Size      float64   `json:"size,omitempty"` // kilobytes
	CreatedAt time.Time `json:"created_at"`
}
