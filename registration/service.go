// Package registration implements the role-gated onboarding flow:
// role selection, form validation, submission to the backend, and the
// routing decision that keeps unregistered users inside the flow.
package registration

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haven-platform/gateway/backend"
	"github.com/haven-platform/gateway/domain"
	autherrors "github.com/haven-platform/gateway/errors"
	"github.com/haven-platform/gateway/internal/audit"
	"github.com/haven-platform/gateway/internal/metrics"
)

const auditService = "registration"

// Destination is where the frontend should send the user next.
type Destination string

const (
	DestLogin            Destination = "login"
	DestTypeSelection    Destination = "registration_type"
	DestIndividualForm   Destination = "registration_individual"
	DestOrganizationForm Destination = "registration_organization"
	DestDashboard        Destination = "dashboard"
)

// Backend is the slice of the crowdfunding backend API the registration
// flow needs.
type Backend interface {
	Register(ctx context.Context, payload map[string]any) (map[string]any, error)
	RegistrationStatus(ctx context.Context, bearerToken string) (*backend.RegistrationStatus, error)
}

// Service drives the registration workflow over a session.
type Service struct {
	backend Backend
}

func NewService(be Backend) *Service {
	return &Service{backend: be}
}

// SelectType records the chosen role on the session. Changing the role
// after registration is not supported; an already registered session is
// left untouched.
func (s *Service) SelectType(sess *domain.Session, userType domain.UserType) error {
	if !userType.Valid() {
		return autherrors.NewRegistrationRejected("please choose the individual or organization role")
	}
	if sess.IsRegistered {
		return autherrors.NewRegistrationRejected("registration is already complete")
	}
	sess.UserType = userType
	return nil
}

// SubmitIndividual validates and submits the donor registration.
// Validation failures are returned as the violations slice and never reach
// the backend; err is reserved for submission outcomes.
func (s *Service) SubmitIndividual(ctx context.Context, sess *domain.Session, form *IndividualForm) ([]string, error) {
	if violations := form.Validate(); len(violations) > 0 {
		return violations, nil
	}
	return nil, s.submit(ctx, sess, domain.UserTypeIndividual, form.Payload())
}

// SubmitOrganization validates and submits the organization registration.
func (s *Service) SubmitOrganization(ctx context.Context, sess *domain.Session, form *OrganizationForm) ([]string, error) {
	if violations := form.Validate(); len(violations) > 0 {
		return violations, nil
	}
	return nil, s.submit(ctx, sess, domain.UserTypeOrganization, form.Payload())
}

// submit sends the record once. Submissions are never retried: the backend
// may treat a second attempt as a duplicate account.
func (s *Service) submit(ctx context.Context, sess *domain.Session, userType domain.UserType, payload map[string]any) error {
	email, _ := payload["email"].(string)

	userData, err := s.backend.Register(ctx, payload)
	if err != nil {
		metrics.RegistrationRejectedTotal.Inc()
		audit.Log(auditService, "submit", email, string(userType), "", false, err)
		return err
	}

	// Registration creates the account, so a successful submission also
	// signs the user in. A session arriving here already authenticated
	// (OAuth completion) keeps its provider and timestamps.
	if !sess.Authenticated {
		now := time.Now()
		sess.Authenticated = true
		sess.AuthProvider = domain.AuthProviderEmail
		sess.CreatedAt = now
		sess.LastActivity = now
		metrics.ActiveSessionsGauge.Inc()
	}

	sess.UserType = userType
	sess.IsRegistered = true
	if userData != nil {
		sess.UserData = userData
	}

	metrics.RegistrationSuccessTotal.Inc()
	audit.Log(auditService, "submit", email, string(userType), "registration completed", true, nil)
	return nil
}

// Route decides where a session belongs in the onboarding flow. The
// backend is consulted on every call rather than trusting the cached
// session flag: verification status can change out of band.
func (s *Service) Route(ctx context.Context, sess *domain.Session) Destination {
	if !sess.Authenticated {
		return DestLogin
	}

	status, err := s.backend.RegistrationStatus(ctx, sess.AccessToken)
	if err != nil {
		// Fall back to the session's last known state rather than
		// bouncing a registered user back into the flow.
		log.Warn().Err(err).Msg("Registration status check failed, using cached state")
	} else {
		sess.IsRegistered = status.IsRegistered
		if t := domain.UserType(status.RegistrationType); t.Valid() {
			sess.UserType = t
		}
	}

	if sess.IsRegistered {
		return DestDashboard
	}

	switch sess.UserType {
	case domain.UserTypeIndividual:
		return DestIndividualForm
	case domain.UserTypeOrganization:
		return DestOrganizationForm
	default:
		return DestTypeSelection
	}
}
