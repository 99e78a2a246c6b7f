package models

import (
	"encoding/json"
	"strconv"
)

// Match is one passage returned by the vector index.
type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Metadata is the payload stored next to every chunk in the index.
// Every field is optional and defaults to "".
type Metadata struct {
	StandardNumber string `json:"standard_number,omitempty"`
	StandardName   string `json:"standard_name,omitempty"`
	SectionNumber  string `json:"section_number,omitempty"`
	SectionTitle   string `json:"section_title,omitempty"`
	ChunkText      string `json:"chunk_text,omitempty"`
	// Source is the page URL or file the chunk was seeded from.
	Source string `json:"source,omitempty"`
}

// Metadata keys as stored in the index.
const (
	KeyStandardNumber = "standard_number"
	KeyStandardName   = "standard_name"
	KeyTitle          = "title"
	KeySectionNumber  = "section_number"
	KeySectionTitle   = "section_title"
	KeyChunkText      = "chunk_text"
	KeySource         = "source"
)

// UnmarshalJSON accepts numbers as well as strings for every field, since
// older index entries store standard and section numbers as floats.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MetadataFromMap(raw)
	return nil
}

// MetadataFromMap builds Metadata from a loosely typed payload. The "title"
// key is used when "standard_name" is missing.
func MetadataFromMap(raw map[string]interface{}) Metadata {
	md := Metadata{
		StandardNumber: StringValue(raw[KeyStandardNumber]),
		StandardName:   StringValue(raw[KeyStandardName]),
		SectionNumber:  StringValue(raw[KeySectionNumber]),
		SectionTitle:   StringValue(raw[KeySectionTitle]),
		ChunkText:      StringValue(raw[KeyChunkText]),
		Source:         StringValue(raw[KeySource]),
	}
	if md.StandardName == "" {
		md.StandardName = StringValue(raw[KeyTitle])
	}
	return md
}

// Map returns the payload written to the index.
func (m Metadata) Map() map[string]interface{} {
	return map[string]interface{}{
		KeyStandardNumber: m.StandardNumber,
		KeyStandardName:   m.StandardName,
		KeySectionNumber:  m.SectionNumber,
		KeySectionTitle:   m.SectionTitle,
		KeyChunkText:      m.ChunkText,
		KeySource:         m.Source,
	}
}

// StringValue renders a decoded JSON scalar as text. 5.0 becomes "5".
func StringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// MetadataFilter restricts index candidates. Conditions are OR-combined:
// a chunk qualifies when its standard number is listed or its section title
// matches one of SectionTitles.
type MetadataFilter struct {
	StandardNumbers []string `json:"standard_numbers,omitempty"`
	SectionTitles   []string `json:"section_titles,omitempty"`
}

// IsEmpty reports whether the filter has no conditions.
func (f *MetadataFilter) IsEmpty() bool {
	return f == nil || (len(f.StandardNumbers) == 0 && len(f.SectionTitles) == 0)
}
