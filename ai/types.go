package ai

// PredictRequest is the body sent to the remote classifier.
type PredictRequest struct {
	Text string `json:"text"`
}

// PredictResponse is what the remote classifier answers with.
// Confidence is optional and only logged.
type PredictResponse struct {
	Sentiment  string   `json:"sentiment"`
	Confidence *float64 `json:"confidence,omitempty"`
}
