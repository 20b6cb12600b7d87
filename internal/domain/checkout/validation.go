package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationResult is the outcome of a step validation pass
// Validation never fails with an error; callers decide whether the
// field-keyed messages block navigation or submission
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// trPhonePattern matches Turkish mobile numbers: optional +90/0 prefix
// followed by a 5xx number
var trPhonePattern = regexp.MustCompile(`^(\+90|0)?5[0-9]{9}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names so error keys match the API field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("trphone", func(fl validator.FieldLevel) bool {
		phone := strings.ReplaceAll(fl.Field().String(), " ", "")
		return trPhonePattern.MatchString(phone)
	})
	return v
}

// addressRules is the required-field set for a checkout address
type addressRules struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Phone       string `json:"phone" validate:"required,trphone"`
	Email       string `json:"email" validate:"required,email"`
	City        string `json:"city" validate:"required"`
	District    string `json:"district" validate:"required"`
	AddressLine string `json:"addressLine" validate:"required"`
}

// companyRules is the additional required set for corporate invoices
type companyRules struct {
	TaxNumber string `json:"taxNumber" validate:"required"`
	TaxOffice string `json:"taxOffice" validate:"required"`
}

// cardRules is the structural card check; digit counts only, the
// issuer validates checksums downstream
type cardRules struct {
	HolderName  string `json:"cardHolderName" validate:"required"`
	Number      string `json:"cardNumber" validate:"required,len=16,number"`
	ExpiryMonth string `json:"cardExpiryMonth" validate:"required,len=2,number"`
	ExpiryYear  string `json:"cardExpiryYear" validate:"required,len=2,number"`
	CVV         string `json:"cardCvv" validate:"required,min=3,max=4,number"`
}

// ValidateStep1 checks the address/review step: billing address, the
// corporate invoice extras, and the shipping address when a separate
// one is enabled (under prefixed keys so both forms surface errors
// independently)
func ValidateStep1(s *State) ValidationResult {
	errs := make(map[string]string)

	billing := addressRulesFrom(s.BillingAddress)
	collectErrors(errs, "", validate.Struct(billing))

	if s.InvoiceType == InvoiceCompany {
		company := companyRulesFrom(s.BillingAddress)
		collectErrors(errs, "", validate.Struct(company))
	}

	if s.UseDifferentShipping {
		shipping := addressRulesFrom(s.ShippingAddress)
		collectErrors(errs, "shipping", validate.Struct(shipping))
	}

	return newResult(errs)
}

// ValidateStep2 checks the payment/contracts step: both contract flags
// are required regardless of payment method, and card-based methods
// additionally require structurally valid card details
func ValidateStep2(s *State) ValidationResult {
	errs := make(map[string]string)

	if !s.Contracts.TermsAccepted {
		errs["terms"] = "Terms of service must be accepted"
	}
	if !s.Contracts.DistanceSalesAccepted {
		errs["distanceSales"] = "Distance sales contract must be accepted"
	}

	if s.PaymentMethod.RequiresCard() {
		card := cardRulesFrom(s.CardData)
		collectErrors(errs, "", validate.Struct(card))
	}

	return newResult(errs)
}

// CanProceedToPayment gates the transition to the payment step
func CanProceedToPayment(s *State) bool {
	return ValidateStep1(s).Valid && s.HasItems()
}

// CanSubmitOrder gates order submission; callers must check this
// before invoking the submission adapter
func CanSubmitOrder(s *State) bool {
	return ValidateStep1(s).Valid && ValidateStep2(s).Valid && s.HasItems() && !s.IsSubmitting
}

func addressRulesFrom(addr *Address) addressRules {
	if addr == nil {
		return addressRules{}
	}
	return addressRules{
		FirstName:   addr.FirstName,
		LastName:    addr.LastName,
		Phone:       addr.Phone,
		Email:       addr.Email,
		City:        addr.City,
		District:    addr.District,
		AddressLine: addr.AddressLine,
	}
}

func companyRulesFrom(addr *Address) companyRules {
	if addr == nil {
		return companyRules{}
	}
	return companyRules{
		TaxNumber: addr.TaxNumber,
		TaxOffice: addr.TaxOffice,
	}
}

func cardRulesFrom(card *CardData) cardRules {
	if card == nil {
		return cardRules{}
	}
	return cardRules{
		HolderName:  card.HolderName,
		Number:      strings.ReplaceAll(card.Number, " ", ""),
		ExpiryMonth: card.ExpiryMonth,
		ExpiryYear:  card.ExpiryYear,
		CVV:         card.CVV,
	}
}

// collectErrors folds validator errors into the field-keyed map,
// prefixing keys when the same rule set covers a second form
func collectErrors(errs map[string]string, prefix string, err error) {
	if err == nil {
		return
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["general"] = "Validation failed"
		return
	}
	for _, e := range validationErrors {
		key := e.Field()
		if prefix != "" {
			key = prefix + strings.ToUpper(key[:1]) + key[1:]
		}
		errs[key] = validationMessage(e)
	}
}

func newResult(errs map[string]string) ValidationResult {
	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// validationMessage returns a human-readable message for a field error
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "trphone":
		return "Invalid phone number"
	case "number":
		return "Must contain only digits"
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "min":
		return "Must be at least " + e.Param() + " characters"
	case "max":
		return "Must be at most " + e.Param() + " characters"
	default:
		return "Invalid value"
	}
}
