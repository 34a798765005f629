package models

// Requests for the market/prediction HTTP endpoints. Defined in domain for
// consistency and reuse.

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=12"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=12"`
	Range  string `query:"range" json:"range" default:"1y"`
}

type IndicatorsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=12"`
	Range  string `query:"range" json:"range" default:"1y"`
}

type SearchRequest struct {
	Query string `query:"q" json:"q" validate:"required,min=1,max=40"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=25"`
}

type PredictRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=12"`
}
