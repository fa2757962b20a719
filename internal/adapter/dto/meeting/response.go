package meeting

// ExportResponse carries the presigned download URL of an exported report
type ExportResponse struct {
	URL string `json:"url"`
}
