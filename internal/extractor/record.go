package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/theakash04/termify/internal/entity"
)

// valueSeparator joins flattened record values.
const valueSeparator = ", "

// RecordExtractor flattens a structured (JSON) record into plain text.
// Mappings contribute all of their values in sorted key order, sequences
// contribute every element in order, and scalars are serialized as-is, so
// no field of the record is silently discarded.
type RecordExtractor struct{}

func NewRecordExtractor() *RecordExtractor {
	return &RecordExtractor{}
}

func (e *RecordExtractor) Extract(ctx context.Context, sourceRef string) (entity.Document, error) {
	data, err := os.ReadFile(sourceRef)
	if err != nil {
		return entity.Document{}, &entity.ExtractionError{SourceRef: sourceRef, Err: err}
	}

	var record any
	if err := json.Unmarshal(data, &record); err != nil {
		return entity.Document{}, &entity.ExtractionError{SourceRef: sourceRef, Err: err}
	}

	var parts []string
	flattenRecord(record, &parts)

	return entity.Document{
		SourceRef: sourceRef,
		Text:      strings.Join(parts, valueSeparator),
	}, nil
}

func (e *RecordExtractor) SourceType() SourceType {
	return SourceTypeJSON
}

func flattenRecord(value any, out *[]string) {
	switch v := value.(type) {
	case string:
		if v != "" {
			*out = append(*out, v)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenRecord(v[k], out)
		}
	case []any:
		for _, item := range v {
			flattenRecord(item, out)
		}
	case nil:
		// skip nulls
	default:
		*out = append(*out, fmt.Sprintf("%v", v))
	}
}
