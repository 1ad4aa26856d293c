package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type DashboardStats struct {
	TotalLogs            int64             `json:"totalLogs"`
	TotalErrors          int64             `json:"totalErrors"`
	TotalWarnings        int64             `json:"totalWarnings"`
	TotalExceptionGroups int64             `json:"totalExceptionGroups"`
	NewExceptions        int64             `json:"newExceptions"`
	ResolvedExceptions   int64             `json:"resolvedExceptions"`
	LogsByLevel          []LogLevelCount   `json:"logsByLevel"`
	LogsOverTime         []TimeSeriesPoint `json:"logsOverTime"`
	TopExceptions        []TopException    `json:"topExceptions"`
	ProjectStats         []ProjectStats    `json:"projectStats"`
}

type LogLevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

type TimeSeriesPoint struct {
	Timestamp string `json:"timestamp"`
	Count     int64  `json:"count"`
	Errors    int64  `json:"errors"`
}

type TopException struct {
	ExceptionClass string `json:"exceptionClass"`
	Message        string `json:"message"`
	Count          int64  `json:"count"`
	LastSeen       string `json:"lastSeen"`
	Status         string `json:"status"`
}

type ProjectStats struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	LogCount    int64  `json:"logCount"`
	ErrorCount  int64  `json:"errorCount"`
}

// ExceptionStatus is the triage state of an exception group.
type ExceptionStatus string

const (
	ExceptionNew        ExceptionStatus = "NEW"
	ExceptionInProgress ExceptionStatus = "IN_PROGRESS"
	ExceptionResolved   ExceptionStatus = "RESOLVED"
	ExceptionIgnored    ExceptionStatus = "IGNORED"
)

type ExceptionGroup struct {
	ID               string          `json:"id"`
	ProjectID        string          `json:"projectId"`
	TenantID         string          `json:"tenantId"`
	Fingerprint      string          `json:"fingerprint"`
	ExceptionClass   string          `json:"exceptionClass"`
	Message          string          `json:"message"`
	SampleStackTrace string          `json:"sampleStackTrace"`
	FirstSeen        Timestamp       `json:"firstSeen"`
	LastSeen         Timestamp       `json:"lastSeen"`
	Count            int64           `json:"count"`
	Status           ExceptionStatus `json:"status"`
	LastAnalysisID   *string         `json:"lastAnalysisId"`
	Environment      *string         `json:"environment"`
}

// ExceptionQuery filters the exception list. Zero values are omitted,
// except Size which defaults to 20.
type ExceptionQuery struct {
	ProjectID string
	Status    ExceptionStatus
	Page      int
	Size      int
}

// AgentStatus values reported by the code fix agent.
const (
	AgentFinished = "FINISHED"
	AgentError    = "ERROR"
	AgentFailed   = "FAILED"
)

type AgentMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type AgentResponse struct {
	AgentID      string         `json:"agentId"`
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	PRURL        string         `json:"prUrl,omitempty"`
	AgentURL     string         `json:"agentUrl,omitempty"`
	BranchName   string         `json:"branchName,omitempty"`
	Conversation []AgentMessage `json:"conversation,omitempty"`
}

// Terminal reports whether the agent has stopped.
func (r *AgentResponse) Terminal() bool {
	return r.Status == AgentFinished || r.Failed()
}

func (r *AgentResponse) Failed() bool {
	return r.Status == AgentError || r.Status == AgentFailed
}

// Timestamp decodes the backend's instants, which arrive either as an
// RFC 3339 string or as epoch seconds (fractional) or milliseconds.
type Timestamp struct {
	time.Time
}

const epochMillisThreshold = 1e11

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", b, err)
	}
	if n >= epochMillisThreshold {
		t.Time = time.UnixMilli(int64(n)).UTC()
		return nil
	}
	sec := int64(n)
	t.Time = time.Unix(sec, int64((n-float64(sec))*1e9)).UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
