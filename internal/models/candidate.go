package models

// CandidateRecord is synthesized from one parsed artifact on every catalog read.
type CandidateRecord struct {
	Name     string `json:"name"`
	FileName string `json:"fileName"`
	Content  string `json:"content"`
	Error    string `json:"error,omitempty"`
}

type CandidateSearchHit struct {
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	FileName    string  `json:"fileName"`
	ContentHash string  `json:"contentHash"`
	Score       float32 `json:"score"`
}

type UploadResponse struct {
	Message     string `json:"message"`
	Uploaded    bool   `json:"uploaded"`
	FileName    string `json:"fileName"`
	Bucket      string `json:"bucket"`
	TxtFileName string `json:"txtFileName,omitempty"`
}

type ParseResumeRequest struct {
	RawPDF string `json:"rawpdf" validate:"required"`
}
