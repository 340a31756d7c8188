package model

import (
	"time"
)

// Trend represents the direction of the latest metric value transition
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Well-known metric names. Some operations address metrics by name instead of id.
const (
	MetricWellnessScore = "Wellness Score"
	MetricSymptomChecks = "Symptom Checks"
	MetricSleepQuality  = "Sleep Quality"
	MetricHydration     = "Hydration"
)

// HealthMetric represents a named numeric health measurement
type HealthMetric struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit"`
	Target      *float64  `json:"target"`
	Trend       Trend     `json:"trend"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TargetReached reports whether the metric has a goal and the value is at or above it
func (m HealthMetric) TargetReached() bool {
	return m.Target != nil && m.Value >= *m.Target
}

// Frequency is one of the fixed medication schedule strings
type Frequency string

const (
	FrequencyOnceDaily       Frequency = "Once daily"
	FrequencyTwiceDaily      Frequency = "Twice daily"
	FrequencyThreeTimesDaily Frequency = "Three times daily"
	FrequencyEvery4Hours     Frequency = "Every 4 hours"
	FrequencyEvery6Hours     Frequency = "Every 6 hours"
	FrequencyEvery8Hours     Frequency = "Every 8 hours"
	FrequencyEvery12Hours    Frequency = "Every 12 hours"
	FrequencyAsNeeded        Frequency = "As needed"
)

// Medication represents a prescribed medication course as held by the backend
type Medication struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Frequency    Frequency `json:"frequency"`
	PrescribedBy string    `json:"prescribedBy"`
	StartDate    Date      `json:"startDate"`
	EndDate      *Date     `json:"endDate,omitempty"`
	TotalDoses   int       `json:"totalDoses"`
	Instructions *string   `json:"instructions,omitempty"`
}

// DoseLedger maps a medication id to the number of doses taken locally
type DoseLedger map[string]int

// MedicationView is a medication together with its derived dose-tracking state
type MedicationView struct {
	Medication
	DosesTaken     int    `json:"dosesTaken"`
	RemainingDoses int    `json:"remainingDoses"`
	Completed      bool   `json:"completed"`
	Status         string `json:"status"`
}

// AuthUser represents the signed-in user as returned by the backend
type AuthUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token,omitempty"`
}

// AuthSession is the persisted authenticated-session record
type AuthSession struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	User            *AuthUser `json:"user"`
}

// Severity of a reported symptom
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// SymptomInputType tells whether a symptom is qualified by severity or by body part
type SymptomInputType string

const (
	InputTypeSeverity SymptomInputType = "severity"
	InputTypeBodyPart SymptomInputType = "bodyPart"
)

// Symptom is a single selected symptom sent for analysis
type Symptom struct {
	Name      string           `json:"name"`
	Severity  Severity         `json:"severity,omitempty"`
	BodyPart  string           `json:"bodyPart,omitempty"`
	InputType SymptomInputType `json:"-"`
}

// Condition is a possible condition returned by the symptom analysis
type Condition struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Description string  `json:"description,omitempty"`
	Urgent      bool    `json:"urgent"`
}

// Assessment is the symptom analysis result. Every section is optional.
type Assessment struct {
	RiskLevel        string      `json:"riskLevel,omitempty"`
	Conditions       []Condition `json:"conditions,omitempty"`
	ImmediateActions []string    `json:"immediateActions,omitempty"`
	Precautions      []string    `json:"precautions,omitempty"`
	Medications      []string    `json:"medications,omitempty"`
	LifestyleChanges []string    `json:"lifestyleChanges,omitempty"`
	WhenToSeekHelp   []string    `json:"whenToSeekHelp,omitempty"`
	FollowUp         string      `json:"followUp,omitempty"`
}

// AgentType selects the specialised chat agent
type AgentType string

const (
	AgentGeneral      AgentType = "general"
	AgentSymptom      AgentType = "symptom"
	AgentNutrition    AgentType = "nutrition"
	AgentMentalHealth AgentType = "mental-health"
)

// ResponseStyle selects the chat answer length
type ResponseStyle string

const (
	StyleConcise  ResponseStyle = "concise"
	StyleDetailed ResponseStyle = "detailed"
)

// MessageSender represents the author of a chat message
type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderAI   MessageSender = "ai"
)

// ChatMessage represents a conversation message
type ChatMessage struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Sender    MessageSender `json:"sender"`
	Timestamp time.Time     `json:"timestamp"`
	AgentType AgentType     `json:"agentType,omitempty"`
}

// Theme is the display theme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// BackendStatus is the result of the backend health check
type BackendStatus string

const (
	BackendOK          BackendStatus = "ok"
	BackendUnavailable BackendStatus = "unavailable"
	BackendTimeout     BackendStatus = "timeout"
	BackendUnknown     BackendStatus = "unknown"
)
