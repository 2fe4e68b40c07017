package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radar-music/radar/internal/model"
)

// ErrEmpty is returned for a manifest without any document.
var ErrEmpty = errors.New("manifest is empty")

// Manifest is the on-disk description of a release.
//
// Example YAML:
//
//	title: Night Drives
//	description: Tape recordings from the ring road
//	topics: [lofi, late night]
//	genre: electronic
//	releaseDate: 2024-05-01
//	artwork: artwork/cover.png
//	license:
//	  type: allowed
//	  commercial: with-fee
//	  fee: 5
//	  recurrence: monthly
//	  currency: U
//	  paymentMode: global
//	  derivation: with-credit
//	tracks:
//	  - file: tracks/01-intro.mp3
//	    title: Intro
//	    description: Opening loop
//	  - file: tracks/02-exit.mp3
//	    title: Exit
//	    description: Last light
//	    artwork: artwork/exit.png
//
// File paths are resolved relative to the manifest's directory.
type Manifest struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Topics      Topics   `yaml:"topics"`
	Genre       string   `yaml:"genre"`
	ReleaseDate string   `yaml:"releaseDate"`
	Artwork     string   `yaml:"artwork"`
	License     *License `yaml:"license"`

	// TokenQuantity is accepted for compatibility. Track tags always carry
	// the fixed asset supply.
	TokenQuantity int `yaml:"tokenQuantity"`

	Tracks []Track `yaml:"tracks"`
}

// Track is one entry of the manifest tracklist.
type Track struct {
	File        string `yaml:"file"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Genre       string `yaml:"genre"`
	Artwork     string `yaml:"artwork"`
}

// Topics accepts either a comma-separated string or a YAML list.
//
//	topics: "lofi, late night"
//	topics: [lofi, late night]
type Topics string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Topics) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*t = Topics(value.Value)
		return nil
	}

	var list []string
	if err := value.Decode(&list); err != nil {
		return fmt.Errorf("topics: %w", err)
	}
	*t = Topics(strings.Join(list, ","))
	return nil
}

// License mirrors the licensing form fields. Only the fields relevant to
// Type are read.
type License struct {
	Type        string  `yaml:"type"`
	Commercial  string  `yaml:"commercial"`
	Fee         float64 `yaml:"fee"`
	Recurrence  string  `yaml:"recurrence"`
	Currency    string  `yaml:"currency"`
	PaymentMode string  `yaml:"paymentMode"`
	Derivation  string  `yaml:"derivation"`
	RevShare    int     `yaml:"revShare"`
}

const revenueShareTerm = "with-revenue-share"

// Model converts the license fields into the model's closed license type.
// Missing sub-choices are left nil so model validation reports them with
// the usual field names.
func (l *License) Model() (model.License, error) {
	switch model.LicenseType(l.Type) {
	case model.LicensePublicUse:
		return model.PublicUse{}, nil
	case model.LicenseAttribution:
		return model.Attribution{}, nil
	case model.LicenseAllowed:
		commercial, err := l.commercial()
		if err != nil {
			return nil, err
		}
		return model.Allowed{Commercial: commercial, Derivation: l.derivation()}, nil
	case model.LicenseNoncommercial:
		return model.Noncommercial{Derivation: l.derivation()}, nil
	}
	return nil, &model.ValidationError{Field: "license.type", Reason: fmt.Sprintf("unknown value %q", l.Type)}
}

func (l *License) commercial() (model.Commercial, error) {
	switch l.Commercial {
	case "":
		return nil, nil
	case model.CommercialWithCredit{}.Term():
		return model.CommercialWithCredit{}, nil
	case model.CommercialWithFee{}.Term():
		return model.CommercialWithFee{
			Fee:         l.Fee,
			Recurrence:  model.FeeRecurrence(l.Recurrence),
			Currency:    model.Currency(l.Currency),
			PaymentMode: model.PaymentMode(l.PaymentMode),
		}, nil
	}
	return nil, &model.ValidationError{Field: "license.commercial", Reason: fmt.Sprintf("unknown value %q", l.Commercial)}
}

func (l *License) derivation() model.Derivation {
	switch l.Derivation {
	case "":
		return nil
	case revenueShareTerm:
		return model.RevenueShare{Percent: l.RevShare}
	}
	return model.DerivationTerm(l.Derivation)
}

// Parse decodes a manifest. Unknown keys are rejected so typos such as
// "descripton" do not silently drop metadata.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	} else if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// parseReleaseDate accepts a calendar date or an RFC 3339 timestamp.
func parseReleaseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &model.ValidationError{Field: "releaseDate", Reason: fmt.Sprintf("cannot parse %q", s)}
	}
	return t, nil
}
