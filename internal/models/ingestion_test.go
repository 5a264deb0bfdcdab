package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestionStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from IngestionStatus
		to   IngestionStatus
		want bool
	}{
		{IngestionStatusReceived, IngestionStatusHashed, true},
		{IngestionStatusHashed, IngestionStatusShortCircuited, true},
		{IngestionStatusHashed, IngestionStatusTextExtracted, true},
		{IngestionStatusTextExtracted, IngestionStatusProfileExtracted, true},
		{IngestionStatusProfileExtracted, IngestionStatusPersisted, true},
		{IngestionStatusPersisted, IngestionStatusDone, true},
		{IngestionStatusTextExtracted, IngestionStatusFailed, true},
		{IngestionStatusReceived, IngestionStatusTextExtracted, false},
		{IngestionStatusHashed, IngestionStatusPersisted, false},
		{IngestionStatusDone, IngestionStatusFailed, false},
		{IngestionStatusShortCircuited, IngestionStatusTextExtracted, false},
		{IngestionStatusFailed, IngestionStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}
