package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupResult(t *testing.T) {
	record := &CaseRecord{FullName: "Jane Doe", RegistrationNumber: "A123", Nationality: "MX"}

	found := Found(record)
	assert.True(t, found.IsFound())
	assert.Same(t, record, found.Record())

	query := CaseQuery{RegistrationNumber: " a999 ", Nationality: "mx"}
	missing := NotFound(query)
	assert.False(t, missing.IsFound())
	assert.Nil(t, missing.Record())
	assert.Equal(t, query, missing.Query(), "query is echoed without normalisation")

	assert.False(t, LookupResult{}.IsFound())
}

func TestCaseRecordMatches(t *testing.T) {
	record := &CaseRecord{RegistrationNumber: "A123", Nationality: "MX"}

	tests := []struct {
		name  string
		query CaseQuery
		want  bool
	}{
		{"both fields match", CaseQuery{"A123", "MX"}, true},
		{"registration number only", CaseQuery{"A123", "GT"}, false},
		{"nationality only", CaseQuery{"A999", "MX"}, false},
		{"case differs", CaseQuery{"a123", "MX"}, false},
		{"whitespace differs", CaseQuery{"A123 ", "MX"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, record.Matches(tt.query))
		})
	}

	var nilRecord *CaseRecord
	assert.False(t, nilRecord.Matches(CaseQuery{}))
}
