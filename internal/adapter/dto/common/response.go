package common

// ListResponse represents a list response
type ListResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}
