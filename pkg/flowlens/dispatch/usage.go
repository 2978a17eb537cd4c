package dispatch

import (
	"math"
	"time"
)

// UsageRecord is one remote backend attempt.
type UsageRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ModelID        string    `json:"modelId"`
	AnalysisType   string    `json:"analysisType"`
	Success        bool      `json:"success"`
	ResponseTimeMs int64     `json:"responseTime,omitempty"`
	TokensUsed     int       `json:"tokensUsed,omitempty"`
	Error          string    `json:"error,omitempty"`
	Category       string    `json:"category,omitempty"`
}

// UsageStats summarizes the usage history.
type UsageStats struct {
	TotalRequests       int   `json:"totalRequests"`
	SuccessfulRequests  int   `json:"successfulRequests"`
	FailedRequests      int   `json:"failedRequests"`
	AverageResponseTime int64 `json:"averageResponseTime"`
	TotalTokensUsed     int   `json:"totalTokensUsed"`
}

// Export is the full usage snapshot served by the stats endpoint.
type Export struct {
	Config  ExportConfig  `json:"config"`
	Usage   UsageStats    `json:"usage"`
	History []UsageRecord `json:"history"`
}

// ExportConfig describes the registry at export time.
type ExportConfig struct {
	CurrentModel    string `json:"currentModel"`
	AvailableModels int    `json:"availableModels"`
}

// computeStats averages response time over records that report one.
func computeStats(records []UsageRecord) UsageStats {
	var s UsageStats
	var timed int
	var totalMs int64
	for _, r := range records {
		s.TotalRequests++
		if r.Success {
			s.SuccessfulRequests++
		}
		if r.ResponseTimeMs > 0 {
			timed++
			totalMs += r.ResponseTimeMs
		}
		s.TotalTokensUsed += r.TokensUsed
	}
	s.FailedRequests = s.TotalRequests - s.SuccessfulRequests
	if timed > 0 {
		s.AverageResponseTime = int64(math.Round(float64(totalMs) / float64(timed)))
	}
	return s
}
