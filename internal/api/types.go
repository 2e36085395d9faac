package api

import "time"

// User is the profile owned by the user service. It is always replaced
// wholesale from a server response, never merged client-side.
type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// UserPatch carries a profile update. Nil fields are left out of the
// request so an unset field never clears a value; the server returns
// the full normalized profile.
type UserPatch struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// ContributingFactor is one health parameter the prediction service
// singled out as significant, with a qualitative impact label.
// Factors arrive pre-ranked by impact; order is preserved.
type ContributingFactor struct {
	Factor string `json:"factor"`
	Impact string `json:"impact"`
	Value  string `json:"value"`
}

// PredictionResult is the opaque prediction service's output for one
// assessment. RiskScore is a probability in [0, 1].
type PredictionResult struct {
	RiskScore       float64              `json:"risk_score"`
	RiskLevel       string               `json:"risk_level"`
	ConfidenceScore float64              `json:"confidence_score"`
	Recommendations []string             `json:"recommendations"`
	RiskFactors     []ContributingFactor `json:"risk_factors"`
}

// Assessment is a stored submission together with its prediction.
type Assessment struct {
	AssessmentID string            `json:"assessment_id"`
	Data         map[string]string `json:"assessment_data"`
	Prediction   *PredictionResult `json:"prediction_result"`
	CreatedAt    time.Time         `json:"created_at"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
