package models

// Requests for the data API endpoints. Defined in domain for consistency and reuse.

type DataRequest struct {
	Dataset string `query:"dataset" json:"dataset" validate:"required"`
	Days    int    `query:"days" json:"days" default:"365" validate:"gte=1,lte=3650"`
	Refresh bool   `query:"refresh" json:"refresh"`
}

type NormalizedRequest struct {
	Dataset string `query:"dataset" json:"dataset" validate:"required"`
	Against string `query:"against" json:"against" validate:"required"`
	Days    int    `query:"days" json:"days" default:"365" validate:"gte=1,lte=3650"`
	Window  int    `query:"window" json:"window" default:"30" validate:"oneof=14 30 50 100 200"`
	Variant string `query:"variant" json:"variant" default:"levels" validate:"oneof=levels velocity"`
}

type CompositeRequest struct {
	Against string `query:"against" json:"against" validate:"required"`
	Days    int    `query:"days" json:"days" default:"365" validate:"gte=1,lte=3650"`
	Window  int    `query:"window" json:"window" default:"30" validate:"oneof=14 30 50 100 200"`
	Variant string `query:"variant" json:"variant" default:"levels" validate:"oneof=levels velocity"`
	// Datasets limits the composite to a comma separated subset of the
	// configured inputs. Empty means all configured inputs.
	Datasets string `query:"datasets" json:"datasets"`
	Weighted bool   `query:"weighted" json:"weighted"`
}

type RegimeRequest struct {
	Asset        string `query:"asset" json:"asset" validate:"required"`
	Days         int    `query:"days" json:"days" default:"365" validate:"gte=50,lte=3650"`
	ForceRefresh bool   `query:"force_refresh" json:"force_refresh"`
}

type CacheDeleteRequest struct {
	Dataset string `query:"dataset" json:"dataset"`
}
