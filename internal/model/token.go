package model

// TokenField tags the metadata field a search token came from.
type TokenField string

const (
	FieldCustomer     TokenField = "customer"
	FieldOffice       TokenField = "office"
	FieldDocumentType TokenField = "documentType"
	FieldDate         TokenField = "date"
	FieldFileName     TokenField = "fileName"
)

// TokenInfo is a weighted, field-tagged search token.
type TokenInfo struct {
	Token  string     `json:"token"`
	Field  TokenField `json:"field"`
	Weight float64    `json:"weight"`
}
