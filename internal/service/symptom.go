package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// Default qualifiers of a freshly selected symptom
const (
	DefaultSeverity = model.SeverityModerate
	DefaultBodyPart = "General"
)

const disclaimer = "**Disclaimer:** This is informational only. Consult a doctor."

// CommonSymptoms are offered as quick picks
var CommonSymptoms = []string{
	"Headache", "Fever", "Cough", "Fatigue", "Nausea", "Dizziness", "Joint Pain", "Chest Pain",
}

// ExtendedSymptoms is the searchable catalogue
var ExtendedSymptoms = []string{
	"Abdominal Pain", "Back Pain", "Shortness of Breath", "Rash", "Swelling", "Numbness", "Tremors", "Memory Loss",
	"Vision Problems", "Hearing Loss", "Difficulty Swallowing", "Constipation", "Diarrhea", "Vomiting", "Loss of Appetite",
	"Weight Loss", "Weight Gain", "Night Sweats", "Insomnia", "Anxiety", "Depression", "Mood Changes", "Confusion",
	"Seizures", "Paralysis", "Bleeding", "Bruising", "Pale Skin", "Yellow Skin", "Dark Urine", "Blood in Stool",
	"Difficulty Urinating", "Frequent Urination", "Painful Urination", "Irregular Heartbeat", "High Blood Pressure",
	"Low Blood Pressure", "Diabetes Symptoms", "Thyroid Problems", "Allergic Reactions", "Hives", "Itching",
	"Hair Loss", "Nail Changes", "Mouth Sores", "Tooth Pain", "Ear Pain", "Sinus Pain", "Sore Throat",
	"Runny Nose", "Congestion", "Sneezing", "Watery Eyes", "Dry Eyes", "Blurred Vision", "Double Vision",
	"Light Sensitivity", "Eye Pain", "Eye Redness", "Eye Discharge", "Ear Discharge", "Tinnitus", "Vertigo",
	"Balance Problems", "Coordination Issues", "Muscle Weakness", "Muscle Spasms", "Stiffness", "Tingling",
	"Burning Sensation", "Cold Sensitivity", "Heat Sensitivity", "Sweating", "Chills", "Hot Flashes",
	"Menstrual Problems", "Breast Changes", "Testicular Pain", "Erectile Dysfunction", "Libido Changes",
	"Pregnancy Symptoms", "Menopause Symptoms", "Hormonal Changes", "Acne", "Eczema", "Psoriasis",
	"Warts", "Moles", "Skin Tags", "Age Spots", "Wrinkles", "Dry Skin", "Oily Skin", "Sensitive Skin",
}

// BodyParts are the locations a body-part symptom can be qualified with
var BodyParts = []string{
	"Head", "Neck", "Chest", "Back", "Abdomen", "Arms", "Hands", "Legs", "Feet",
	"Shoulders", "Joints", "Muscles", "Skin", "Eyes", "Ears", "Throat", "General",
}

// bodyPartKeywords mark symptoms that are located rather than graded
var bodyPartKeywords = []string{
	"pain", "ache", "swelling", "numbness", "tingling", "burning sensation",
	"stiffness", "weakness", "spasms", "tremors", "rash", "itching",
	"bruising", "bleeding", "discharge", "sensitivity", "cramps",
}

// bodySystems maps known symptoms to the body system sent when no body part was chosen
var bodySystems = map[string]string{
	"Headache":            "head",
	"Fever":               "general",
	"Cough":               "respiratory",
	"Chest Pain":          "chest",
	"Abdominal Pain":      "abdomen",
	"Back Pain":           "back",
	"Joint Pain":          "joints",
	"Shortness of Breath": "respiratory",
	"Dizziness":           "neurological",
	"Nausea":              "digestive",
	"Vomiting":            "digestive",
	"Diarrhea":            "digestive",
	"Constipation":        "digestive",
	"Rash":                "skin",
	"Swelling":            "general",
	"Numbness":            "neurological",
	"Tremors":             "neurological",
	"Memory Loss":         "neurological",
	"Vision Problems":     "eyes",
	"Hearing Loss":        "ears",
	"Sore Throat":         "throat",
	"Runny Nose":          "respiratory",
	"Congestion":          "respiratory",
	"Fatigue":             "general",
	"Insomnia":            "neurological",
	"Anxiety":             "psychological",
	"Depression":          "psychological",
}

// InputTypeFor tells whether a symptom is qualified by body part or by severity
func InputTypeFor(name string) model.SymptomInputType {
	lower := strings.ToLower(name)
	for _, kw := range bodyPartKeywords {
		if strings.Contains(lower, kw) {
			return model.InputTypeBodyPart
		}
	}
	return model.InputTypeSeverity
}

// SelectSymptom builds a symptom entry with its default qualifier
func SelectSymptom(name string) model.Symptom {
	s := model.Symptom{Name: name, InputType: InputTypeFor(name)}
	if s.InputType == model.InputTypeSeverity {
		s.Severity = DefaultSeverity
	} else {
		s.BodyPart = DefaultBodyPart
	}
	return s
}

// BodySystemFor returns the body system of a known symptom, "general" otherwise
func BodySystemFor(name string) string {
	if system, ok := bodySystems[name]; ok {
		return system
	}
	return "general"
}

// SearchSymptoms filters the catalogue by a case-insensitive substring
func SearchSymptoms(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []string{}
	for _, s := range ExtendedSymptoms {
		if strings.Contains(strings.ToLower(s), term) {
			out = append(out, s)
		}
	}
	return out
}

// SymptomBackend is the remote symptom-analysis service
type SymptomBackend interface {
	AssessSymptoms(ctx context.Context, symptoms []model.Symptom) (*model.Assessment, error)
}

// AnalysisResult is an assessment together with its rendered report
type AnalysisResult struct {
	Assessment *model.Assessment `json:"assessment"`
	Report     string            `json:"report"`
}

// SymptomChecker shapes symptom selections for the analysis service
type SymptomChecker struct {
	remote  SymptomBackend
	metrics *MetricStore
	session SessionInvalidator
	logger  *zap.Logger
}

// NewSymptomChecker creates a new SymptomChecker. metrics and session may be nil.
func NewSymptomChecker(remote SymptomBackend, metrics *MetricStore, session SessionInvalidator, logger *zap.Logger) *SymptomChecker {
	return &SymptomChecker{
		remote:  remote,
		metrics: metrics,
		session: session,
		logger:  logger,
	}
}

// Prepare validates a selection and fills in missing qualifiers. Repeated
// names keep their first entry.
func (c *SymptomChecker) Prepare(symptoms []model.Symptom) ([]model.Symptom, error) {
	prepared := make([]model.Symptom, 0, len(symptoms))
	seen := make(map[string]bool, len(symptoms))

	for _, s := range symptoms {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" || seen[s.Name] {
			continue
		}
		seen[s.Name] = true

		switch s.Severity {
		case "":
			s.Severity = DefaultSeverity
		case model.SeverityMild, model.SeverityModerate, model.SeveritySevere:
		default:
			return nil, newValidationError("severity", "unknown severity %q for %s", s.Severity, s.Name)
		}
		if strings.TrimSpace(s.BodyPart) == "" {
			s.BodyPart = BodySystemFor(s.Name)
		}
		s.InputType = InputTypeFor(s.Name)
		prepared = append(prepared, s)
	}

	if len(prepared) == 0 {
		return nil, newValidationError("symptoms", "select at least one symptom")
	}
	return prepared, nil
}

// Analyze sends the selection for analysis and renders the report. A
// successful analysis counts as one symptom check.
func (c *SymptomChecker) Analyze(ctx context.Context, symptoms []model.Symptom) (*AnalysisResult, error) {
	prepared, err := c.Prepare(symptoms)
	if err != nil {
		return nil, err
	}

	assessment, err := c.remote.AssessSymptoms(ctx, prepared)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) && c.session != nil {
			c.session.Invalidate(ctx, "symptom analysis rejected")
		}
		c.logger.Error("symptom analysis failed",
			zap.Error(err),
			zap.Int("symptom_count", len(prepared)),
		)
		return nil, fmt.Errorf("symptom analysis failed: %w", err)
	}

	if c.metrics != nil {
		c.metrics.IncrementSymptomChecks(ctx)
	}

	c.logger.Info("symptoms analyzed",
		zap.Int("symptom_count", len(prepared)),
		zap.String("risk_level", assessment.RiskLevel),
	)

	return &AnalysisResult{
		Assessment: assessment,
		Report:     FormatAssessment(assessment),
	}, nil
}

// AnalysisFailureMessage turns an analysis error into the text shown to the user
func AnalysisFailureMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" && !strings.HasPrefix(apiErr.Detail, "HTTP ") {
		return "Analysis error: " + apiErr.Detail
	}
	return "Unable to analyze symptoms at this time."
}

// FormatAssessment renders an assessment as a markdown report. Absent
// sections are skipped; the disclaimer is always present.
func FormatAssessment(a *model.Assessment) string {
	var sb strings.Builder

	if a.RiskLevel != "" && a.RiskLevel != "unknown" {
		fmt.Fprintf(&sb, "## Risk Level: %s\n\n", strings.ToUpper(a.RiskLevel))
	}

	if len(a.Conditions) > 0 {
		sb.WriteString("## Possible Conditions\n\n")
		for _, cond := range a.Conditions {
			description := ""
			if cond.Description != "" {
				description = " - " + cond.Description
			}
			urgency := "Monitor closely"
			if cond.Urgent {
				urgency = "URGENT"
			}
			fmt.Fprintf(&sb, "- **%s** (%s%% likely)%s (%s)\n",
				cond.Name, strconv.FormatFloat(cond.Probability, 'f', -1, 64), description, urgency)
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Immediate Actions", a.ImmediateActions)
	writeList(&sb, "Precautions", a.Precautions)
	writeList(&sb, "Medications", a.Medications)
	writeList(&sb, "Lifestyle Changes", a.LifestyleChanges)
	writeList(&sb, "When to Seek Medical Help", a.WhenToSeekHelp)

	if a.FollowUp != "" {
		fmt.Fprintf(&sb, "## Follow-up\n\n%s\n\n", a.FollowUp)
	}

	sb.WriteString("---\n\n")
	sb.WriteString(disclaimer)
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteString("\n")
}
