package model

import "fmt"

// LicenseType names the top-level licensing choice.
type LicenseType string

const (
	LicensePublicUse     LicenseType = "public-use"
	LicenseAttribution   LicenseType = "attribution"
	LicenseAllowed       LicenseType = "allowed"
	LicenseNoncommercial LicenseType = "noncommercial"
)

// License is the licensing choice attached to a release. It is a closed
// sum type: PublicUse, Attribution, Allowed and Noncommercial are the only
// implementations, and each carries only the fields its branch requires.
type License interface {
	// Type returns the top-level license type.
	Type() LicenseType

	// Validate checks the variant's own fields.
	Validate() error

	isLicense()
}

// PublicUse places no conditions on use.
type PublicUse struct{}

// Attribution allows commercial use and derivation with credit.
type Attribution struct{}

// Allowed permits commercial use under the given terms and derivation
// under the given rights.
type Allowed struct {
	Commercial Commercial
	Derivation Derivation
}

// Noncommercial forbids commercial use and permits derivation under the
// given rights.
type Noncommercial struct {
	Derivation Derivation
}

func (PublicUse) Type() LicenseType     { return LicensePublicUse }
func (Attribution) Type() LicenseType   { return LicenseAttribution }
func (Allowed) Type() LicenseType       { return LicenseAllowed }
func (Noncommercial) Type() LicenseType { return LicenseNoncommercial }

func (PublicUse) Validate() error   { return nil }
func (Attribution) Validate() error { return nil }

func (l Allowed) Validate() error {
	if l.Commercial == nil {
		return &ValidationError{Field: "license.commercial", Reason: "required for allowed licenses"}
	}
	if err := l.Commercial.validate(); err != nil {
		return err
	}
	return validateDerivation(l.Derivation)
}

func (l Noncommercial) Validate() error {
	return validateDerivation(l.Derivation)
}

func (PublicUse) isLicense()     {}
func (Attribution) isLicense()   {}
func (Allowed) isLicense()       {}
func (Noncommercial) isLicense() {}

// Commercial is the commercial-use term of an Allowed license:
// CommercialWithCredit or CommercialWithFee.
type Commercial interface {
	// Term returns the option name, "with-credit" or "with-fee".
	Term() string

	validate() error
}

// CommercialWithCredit allows commercial use with credit to the creator.
type CommercialWithCredit struct{}

// CommercialWithFee allows commercial use against a fee.
type CommercialWithFee struct {
	// Fee is the amount charged per recurrence. Must be positive.
	Fee float64

	Recurrence  FeeRecurrence
	Currency    Currency
	PaymentMode PaymentMode
}

func (CommercialWithCredit) Term() string { return "with-credit" }
func (CommercialWithFee) Term() string    { return "with-fee" }

func (CommercialWithCredit) validate() error { return nil }

func (c CommercialWithFee) validate() error {
	if c.Fee <= 0 {
		return &ValidationError{Field: "license.fee", Reason: "must be positive"}
	}
	switch c.Recurrence {
	case RecurrenceOneTime, RecurrenceMonthly:
	default:
		return &ValidationError{Field: "license.recurrence", Reason: fmt.Sprintf("unknown value %q", c.Recurrence)}
	}
	switch c.Currency {
	case CurrencyAR, CurrencyU:
	default:
		return &ValidationError{Field: "license.currency", Reason: fmt.Sprintf("unknown value %q", c.Currency)}
	}
	switch c.PaymentMode {
	case PaymentGlobal, PaymentRandom:
	default:
		return &ValidationError{Field: "license.paymentMode", Reason: fmt.Sprintf("unknown value %q", c.PaymentMode)}
	}
	return nil
}

// FeeRecurrence is how often a license fee is charged.
type FeeRecurrence string

const (
	RecurrenceOneTime FeeRecurrence = "one-time"
	RecurrenceMonthly FeeRecurrence = "monthly"
)

// Currency is the token a license fee is paid in.
type Currency string

const (
	CurrencyAR Currency = "AR"
	CurrencyU  Currency = "U"
)

// PaymentMode decides who receives a license fee.
type PaymentMode string

const (
	PaymentGlobal PaymentMode = "global"
	PaymentRandom PaymentMode = "random"
)

// Derivation is the derivation-rights term of an Allowed or
// Noncommercial license: one of the DerivationTerm constants or a
// RevenueShare.
type Derivation interface {
	// Term returns the option name, e.g. "with-credit".
	Term() string

	validate() error
}

// DerivationTerm is a derivation right without parameters.
type DerivationTerm string

const (
	DerivationWithCredit      DerivationTerm = "with-credit"
	DerivationWithIndication  DerivationTerm = "with-indication"
	DerivationWithPassthrough DerivationTerm = "with-passthrough"
)

func (d DerivationTerm) Term() string { return string(d) }

func (d DerivationTerm) validate() error {
	switch d {
	case DerivationWithCredit, DerivationWithIndication, DerivationWithPassthrough:
		return nil
	}
	return &ValidationError{Field: "license.derivation", Reason: fmt.Sprintf("unknown value %q", string(d))}
}

// RevenueShare allows derivation in exchange for a share of revenue.
type RevenueShare struct {
	// Percent is the revenue share, 1 to 100.
	Percent int
}

func (RevenueShare) Term() string { return "with-revenue-share" }

func (r RevenueShare) validate() error {
	if r.Percent < 1 || r.Percent > 100 {
		return &ValidationError{Field: "license.revShare", Reason: "percentage must be between 1 and 100"}
	}
	return nil
}

func validateDerivation(d Derivation) error {
	if d == nil {
		return &ValidationError{Field: "license.derivation", Reason: "required"}
	}
	return d.validate()
}
