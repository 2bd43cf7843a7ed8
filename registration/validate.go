package registration

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether the address matches the platform's email
// format.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePasswordStrength checks the password against the platform's
// strength policy and returns the first unmet requirement. The
// registration forms only enforce the minimum length; this stricter check
// backs the live strength hint in the UI.
func ValidatePasswordStrength(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters long"
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*()_+-=[]{}|;:,.<>?", c):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return false, "Password must contain at least one uppercase letter"
	case !hasLower:
		return false, "Password must contain at least one lowercase letter"
	case !hasDigit:
		return false, "Password must contain at least one digit"
	case !hasSpecial:
		return false, "Password must contain at least one special character"
	}
	return true, "Password is strong"
}

// IndividualForm is the donor registration submission.
type IndividualForm struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	PhoneNumber     string `json:"phone_number"`
	DateOfBirth     string `json:"date_of_birth"`

	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`

	IDType        string `json:"id_type"`
	IDNumber      string `json:"id_number"`
	IDDocumentURL string `json:"id_document_url"`

	TermsAccepted bool `json:"terms_accepted"`
}

// Validate returns every unmet requirement, in form order. An empty slice
// means the form is submittable.
func (f *IndividualForm) Validate() []string {
	var violations []string

	if len(strings.TrimSpace(f.FullName)) < 2 {
		violations = append(violations, "Full name is required (minimum 2 characters)")
	}
	if !ValidEmail(f.Email) {
		violations = append(violations, "Valid email address is required")
	}
	if len(f.Password) < 8 {
		violations = append(violations, "Password must be at least 8 characters long")
	}
	if f.Password != f.ConfirmPassword {
		violations = append(violations, "Passwords do not match")
	}
	if !f.TermsAccepted {
		violations = append(violations, "You must accept the Terms of Service and Privacy Policy")
	}

	return violations
}

// Payload builds the backend registration record. Optional fields are
// omitted rather than sent empty.
func (f *IndividualForm) Payload() map[string]any {
	p := map[string]any{
		"user_type": "individual",
		"full_name": strings.TrimSpace(f.FullName),
		"email":     strings.ToLower(strings.TrimSpace(f.Email)),
		"password":  f.Password,
		"country":   f.Country,
	}
	putOptional(p, "phone_number", f.PhoneNumber)
	putOptional(p, "date_of_birth", f.DateOfBirth)
	putOptional(p, "address_line1", f.AddressLine1)
	putOptional(p, "address_line2", f.AddressLine2)
	putOptional(p, "city", f.City)
	putOptional(p, "state", f.State)
	putOptional(p, "postal_code", f.PostalCode)
	putOptional(p, "id_type", f.IDType)
	putOptional(p, "id_number", f.IDNumber)
	putOptional(p, "id_document_url", f.IDDocumentURL)
	return p
}

// OrganizationForm is the organization registration submission, including
// the legal and contact-person sections required for verification.
type OrganizationForm struct {
	OrganizationName string `json:"organization_name"`
	OrganizationType string `json:"organization_type"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirm_password"`
	PhoneNumber      string `json:"phone_number"`
	Website          string `json:"website"`

	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`

	RegistrationNumber         string `json:"registration_number"`
	TaxID                      string `json:"tax_id"`
	FCRANumber                 string `json:"fcra_number"`
	NGODarpanID                string `json:"ngo_darpan_id"`
	RegistrationCertificateURL string `json:"registration_certificate_url"`
	TaxExemptionCertificateURL string `json:"tax_exemption_certificate_url"`

	ContactPersonName        string `json:"contact_person_name"`
	ContactPersonDesignation string `json:"contact_person_designation"`
	ContactPersonPhone       string `json:"contact_person_phone"`
	ContactPersonEmail       string `json:"contact_person_email"`

	TermsAccepted       bool `json:"terms_accepted"`
	VerificationConsent bool `json:"verification_consent"`
}

// Validate returns every unmet requirement, in form order. An incomplete
// address reports as a single violation regardless of how many of its
// parts are missing.
func (f *OrganizationForm) Validate() []string {
	var violations []string

	if len(strings.TrimSpace(f.OrganizationName)) < 2 {
		violations = append(violations, "Organization name is required (minimum 2 characters)")
	}
	if f.OrganizationType == "" {
		violations = append(violations, "Organization type is required")
	}
	if !ValidEmail(f.Email) {
		violations = append(violations, "Valid email address is required")
	}
	if len(f.Password) < 8 {
		violations = append(violations, "Password must be at least 8 characters long")
	}
	if f.Password != f.ConfirmPassword {
		violations = append(violations, "Passwords do not match")
	}
	if f.AddressLine1 == "" || f.City == "" || f.State == "" || f.PostalCode == "" {
		violations = append(violations, "Complete address is required")
	}
	if f.ContactPersonName == "" {
		violations = append(violations, "Contact person name is required")
	}
	if !f.TermsAccepted {
		violations = append(violations, "You must accept the Terms of Service and Privacy Policy")
	}
	if !f.VerificationConsent {
		violations = append(violations, "You must consent to the verification process")
	}

	return violations
}

// Payload builds the backend registration record.
func (f *OrganizationForm) Payload() map[string]any {
	p := map[string]any{
		"user_type":           "organization",
		"organization_name":   strings.TrimSpace(f.OrganizationName),
		"organization_type":   f.OrganizationType,
		"email":               strings.ToLower(strings.TrimSpace(f.Email)),
		"password":            f.Password,
		"address_line1":       strings.TrimSpace(f.AddressLine1),
		"city":                strings.TrimSpace(f.City),
		"state":               strings.TrimSpace(f.State),
		"postal_code":         strings.TrimSpace(f.PostalCode),
		"country":             f.Country,
		"contact_person_name": strings.TrimSpace(f.ContactPersonName),
	}
	putOptional(p, "phone_number", f.PhoneNumber)
	putOptional(p, "website", f.Website)
	putOptional(p, "address_line2", f.AddressLine2)
	putOptional(p, "registration_number", f.RegistrationNumber)
	putOptional(p, "tax_id", f.TaxID)
	putOptional(p, "fcra_number", f.FCRANumber)
	putOptional(p, "ngo_darpan_id", f.NGODarpanID)
	putOptional(p, "registration_certificate_url", f.RegistrationCertificateURL)
	putOptional(p, "tax_exemption_certificate_url", f.TaxExemptionCertificateURL)
	putOptional(p, "contact_person_designation", f.ContactPersonDesignation)
	putOptional(p, "contact_person_phone", f.ContactPersonPhone)
	putOptional(p, "contact_person_email", f.ContactPersonEmail)
	return p
}

func putOptional(p map[string]any, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		p[key] = v
	}
}
