package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIndividualForm() *IndividualForm {
	return &IndividualForm{
		FullName:        "Asha Rao",
		Email:           "asha@example.com",
		Password:        "longenough",
		ConfirmPassword: "longenough",
		Country:         "India",
		TermsAccepted:   true,
	}
}

func validOrganizationForm() *OrganizationForm {
	return &OrganizationForm{
		OrganizationName:    "Hope Foundation",
		OrganizationType:    "NGO",
		Email:               "contact@hope.org",
		Password:            "longenough",
		ConfirmPassword:     "longenough",
		AddressLine1:        "12 Charity Lane",
		City:                "Mumbai",
		State:               "Maharashtra",
		PostalCode:          "400001",
		Country:             "India",
		ContactPersonName:   "Ravi Kumar",
		TermsAccepted:       true,
		VerificationConsent: true,
	}
}

func TestIndividualFormValid(t *testing.T) {
	assert.Empty(t, validIndividualForm().Validate())
}

func TestIndividualFormEachMissingFieldAddsOneViolation(t *testing.T) {
	mutations := map[string]func(*IndividualForm){
		"full_name":        func(f *IndividualForm) { f.FullName = "A" },
		"email":            func(f *IndividualForm) { f.Email = "not-an-email" },
		"password":         func(f *IndividualForm) { f.Password = "short"; f.ConfirmPassword = "short" },
		"confirm_password": func(f *IndividualForm) { f.ConfirmPassword = "different-pw" },
		"terms":            func(f *IndividualForm) { f.TermsAccepted = false },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			form := validIndividualForm()
			mutate(form)
			assert.Len(t, form.Validate(), 1)
		})
	}
}

func TestIndividualFormCollectsAllViolations(t *testing.T) {
	form := &IndividualForm{}
	violations := form.Validate()
	assert.Len(t, violations, 4)
	// Empty passwords match each other, so that rule does not fire.
	assert.NotContains(t, violations, "Passwords do not match")
}

func TestOrganizationFormValid(t *testing.T) {
	assert.Empty(t, validOrganizationForm().Validate())
}

func TestOrganizationFormIncompleteAddressIsOneViolation(t *testing.T) {
	form := validOrganizationForm()
	form.AddressLine1 = ""
	form.City = ""
	form.PostalCode = ""

	violations := form.Validate()
	require.Len(t, violations, 1)
	assert.Equal(t, "Complete address is required", violations[0])
}

func TestOrganizationFormEachMissingFieldAddsOneViolation(t *testing.T) {
	mutations := map[string]func(*OrganizationForm){
		"organization_name":    func(f *OrganizationForm) { f.OrganizationName = "" },
		"organization_type":    func(f *OrganizationForm) { f.OrganizationType = "" },
		"email":                func(f *OrganizationForm) { f.Email = "bad" },
		"password":             func(f *OrganizationForm) { f.Password = "short"; f.ConfirmPassword = "short" },
		"contact_person":       func(f *OrganizationForm) { f.ContactPersonName = "" },
		"terms":                func(f *OrganizationForm) { f.TermsAccepted = false },
		"verification_consent": func(f *OrganizationForm) { f.VerificationConsent = false },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			form := validOrganizationForm()
			mutate(form)
			assert.Len(t, form.Validate(), 1)
		})
	}
}

func TestOrganizationPayloadOmitsEmptyOptionals(t *testing.T) {
	form := validOrganizationForm()
	form.Website = "  https://hope.org  "

	p := form.Payload()
	assert.Equal(t, "organization", p["user_type"])
	assert.Equal(t, "https://hope.org", p["website"])
	assert.NotContains(t, p, "tax_id")
	assert.NotContains(t, p, "fcra_number")
}

func TestIndividualPayloadNormalizesEmail(t *testing.T) {
	form := validIndividualForm()
	form.Email = "  Asha@Example.COM "
	form.ConfirmPassword = form.Password

	p := form.Payload()
	assert.Equal(t, "asha@example.com", p["email"])
	assert.Equal(t, "individual", p["user_type"])
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last+tag@sub.domain.org", "UPPER@CASE.NET"}
	invalid := []string{"", "plainaddress", "@no-local.com", "user@no-tld", "user@.com", "user@domain.c"}

	for _, email := range valid {
		assert.True(t, ValidEmail(email), email)
	}
	for _, email := range invalid {
		assert.False(t, ValidEmail(email), email)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
		message  string
	}{
		{"Short1!", false, "Password must be at least 8 characters long"},
		{"alllower1!", false, "Password must contain at least one uppercase letter"},
		{"ALLUPPER1!", false, "Password must contain at least one lowercase letter"},
		{"NoDigits!", false, "Password must contain at least one digit"},
		{"NoSpecial1", false, "Password must contain at least one special character"},
		{"Str0ng!pass", true, "Password is strong"},
	}

	for _, tc := range cases {
		ok, message := ValidatePasswordStrength(tc.password)
		assert.Equal(t, tc.ok, ok, tc.password)
		assert.Equal(t, tc.message, message, tc.password)
	}
}
