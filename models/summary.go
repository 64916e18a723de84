package models

type SummarizeRequest struct {
	Query            string `json:"query"`
	Option           string `json:"option,omitempty"`
	OriginalResponse string `json:"originalResponse,omitempty"`
}
