package dto

import "github.com/noah-isme/student-insight-api/pkg/genai"

// AnalysisRequest optionally narrows a chart analysis with a question.
type AnalysisRequest struct {
	Question string `json:"question" validate:"max=500"`
}

// AnalysisResponse carries the generated explanation of a chart.
type AnalysisResponse struct {
	RequestID string `json:"requestId"`
	Chart     string `json:"chart"`
	Reply     string `json:"reply"`
}

// ProxyRequest is the chat transcript accepted by the raw proxy route.
type ProxyRequest struct {
	Messages []genai.Message `json:"messages" validate:"required,min=1,dive"`
}

// ProxyReply is the raw proxy success body.
type ProxyReply struct {
	Reply string `json:"reply"`
}

// ProxyError is the raw proxy failure body.
type ProxyError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
