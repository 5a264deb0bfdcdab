package models

import (
	"time"

	"github.com/google/uuid"
)

type IngestionStatus string

const (
	IngestionStatusReceived         IngestionStatus = "received"
	IngestionStatusHashed           IngestionStatus = "hashed"
	IngestionStatusShortCircuited   IngestionStatus = "short_circuited"
	IngestionStatusTextExtracted    IngestionStatus = "text_extracted"
	IngestionStatusProfileExtracted IngestionStatus = "profile_extracted"
	IngestionStatusPersisted        IngestionStatus = "persisted"
	IngestionStatusDone             IngestionStatus = "done"
	IngestionStatusFailed           IngestionStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s IngestionStatus) IsTerminal() bool {
	return s == IngestionStatusDone || s == IngestionStatusShortCircuited || s == IngestionStatusFailed
}

var ingestionTransitions = map[IngestionStatus][]IngestionStatus{
	IngestionStatusReceived:         {IngestionStatusHashed},
	IngestionStatusHashed:           {IngestionStatusShortCircuited, IngestionStatusTextExtracted},
	IngestionStatusTextExtracted:    {IngestionStatusProfileExtracted},
	IngestionStatusProfileExtracted: {IngestionStatusPersisted},
	IngestionStatusPersisted:        {IngestionStatusDone},
}

// CanTransition reports whether a run in status s may move to next.
// Failed is reachable from every non-terminal status.
func (s IngestionStatus) CanTransition(next IngestionStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == IngestionStatusFailed {
		return true
	}
	for _, allowed := range ingestionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IngestionRecord is the audit row for one pipeline run.
type IngestionRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ContentHash      string          `gorm:"type:varchar(64);index" json:"content_hash"`
	OriginalFilename string          `gorm:"type:text" json:"original_filename"`
	Status           IngestionStatus `gorm:"type:varchar(32);default:'received'" json:"status"`
	FailedStage      string          `gorm:"type:varchar(32)" json:"failed_stage,omitempty"`
	ErrorMessage     string          `gorm:"type:text" json:"-"`
	RawKey           string          `gorm:"type:text" json:"raw_key,omitempty"`
	ParsedKey        string          `gorm:"type:text" json:"parsed_key,omitempty"`
	CandidateName    string          `gorm:"type:text" json:"candidate_name,omitempty"`
	PageCount        int             `gorm:"default:0" json:"page_count,omitempty"`
	Uploaded         bool            `gorm:"default:false" json:"uploaded"`
	CreatedAt        time.Time       `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"type:timestamp;default:now()" json:"updated_at"`
	CompletedAt      *time.Time      `gorm:"type:timestamp" json:"completed_at,omitempty"`
}

func (r *IngestionRecord) TableName() string {
	return "ingestion_records"
}
