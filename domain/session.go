package domain

import "time"

// AuthProvider identifies which path established the user's identity.
type AuthProvider string

const (
	AuthProviderNone     AuthProvider = ""
	AuthProviderEmail    AuthProvider = "email"
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderFacebook AuthProvider = "facebook"
)

// UserType is the role chosen at registration or OAuth initiation.
// It determines which registration form and downstream capabilities apply.
type UserType string

const (
	UserTypeNone         UserType = ""
	UserTypeIndividual   UserType = "individual"
	UserTypeOrganization UserType = "organization"
)

// Valid reports whether t is one of the two selectable roles.
func (t UserType) Valid() bool {
	return t == UserTypeIndividual || t == UserTypeOrganization
}

// Table returns the backend user table the role maps to.
func (t UserType) Table() string {
	if t == UserTypeOrganization {
		return "organizations"
	}
	return "individuals"
}

// OAuthTransaction marks an in-flight third-party login handshake.
// It exists only between initiation and callback and is cleared on any
// callback outcome, successful or not.
type OAuthTransaction struct {
	Provider    AuthProvider `json:"provider"`
	UserType    UserType     `json:"user_type"`
	State       string       `json:"state"`
	InitiatedAt time.Time    `json:"initiated_at"`
}

// Session is the per-browser authentication and registration state.
// It is mutated exclusively by the auth and registration controllers,
// which always take it as an explicit parameter.
type Session struct {
	ID               string            `json:"id"`
	Authenticated    bool              `json:"authenticated"`
	AuthProvider     AuthProvider      `json:"auth_provider"`
	UserType         UserType          `json:"user_type"`
	UserData         map[string]any    `json:"user_data,omitempty"`
	IsRegistered     bool              `json:"is_registered"`
	AccessToken      string            `json:"access_token,omitempty"`
	RefreshToken     string            `json:"refresh_token,omitempty"`
	OAuthTransaction *OAuthTransaction `json:"oauth_transaction,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	LastActivity     time.Time         `json:"last_activity"`
}

// NewSession returns an empty session in its initial state.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Clear resets the session to its empty initial state, keeping only the ID.
func (s *Session) Clear() {
	*s = Session{ID: s.ID}
}

// Expired reports whether the session's absolute lifetime has elapsed.
func (s *Session) Expired(timeout time.Duration, now time.Time) bool {
	if !s.Authenticated {
		return false
	}
	return now.Sub(s.CreatedAt) >= timeout
}

// Email returns the user's email from the profile, if present.
func (s *Session) Email() string {
	if s.UserData == nil {
		return ""
	}
	email, _ := s.UserData["email"].(string)
	return email
}
