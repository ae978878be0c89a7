package dto

import (
	"encoding/json"
	"time"
)

type SnapshotDTO struct {
	Id             string
	OrganizationId string
	TakenAt        time.Time
	Payload        json.RawMessage
}

type ListSnapshotsDTO struct {
	OrganizationId string
	Limit          int
}
