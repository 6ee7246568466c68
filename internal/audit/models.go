// Package audit appends an immutable trail of who did what to which entity.
// Recording never fails the triggering request: a lost audit entry is logged
// and counted, a lost business mutation is not an acceptable trade.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"erpcore/pkg/domain"
)

// Action is the mutation kind an entry records.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"

	// Authentication events share the trail with entity mutations.
	ActionLogin       Action = "LOGIN"
	ActionLoginFailed Action = "LOGIN_FAILED"
)

// PlatformScope marks entries produced by platform principals, which have no
// owning organization.
const PlatformScope = "platform"

// FieldChange captures one changed field. Entries store the specific fields
// changed, not full row dumps, to bound storage growth.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes maps field names to their before/after values.
type Changes map[string]FieldChange

// Entry is one immutable audit record. Application code never mutates or
// deletes rows of this type.
type Entry struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OrgScope   string        `gorm:"size:64;index" json:"org_scope"`
	ActorID    domain.UserID `gorm:"type:uuid" json:"actor_id"`
	EntityType string        `gorm:"size:64;index" json:"entity_type"`
	EntityID   string        `gorm:"size:64" json:"entity_id"`
	Action     Action        `gorm:"size:16" json:"action"`
	Changes    string        `gorm:"type:jsonb" json:"changes"`
	At         time.Time     `gorm:"index" json:"at"`
	SourceIP   string        `gorm:"size:64" json:"source_ip"`
	UserAgent  string        `gorm:"size:256" json:"user_agent"`
}

// TableName keeps the table naming consistent with the rest of the schema.
func (Entry) TableName() string { return "audit_entries" }

// DecodeChanges unmarshals the stored change payload.
func (e *Entry) DecodeChanges() (Changes, error) {
	if e.Changes == "" {
		return nil, nil
	}
	var c Changes
	if err := json.Unmarshal([]byte(e.Changes), &c); err != nil {
		return nil, err
	}
	return c, nil
}
