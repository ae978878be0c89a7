package request

type ScopeAnalyticsRequest struct {
	Id string `json:"-" validate:"required"`
}

type ListSnapshotsRequest struct {
	OrganizationId string `json:"-" validate:"required"`
	Limit          int    `json:"-" validate:"gte=0,lte=100"`
}
