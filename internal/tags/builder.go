package tags

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/radar-music/radar/internal/model"
)

// builder accumulates tags in insertion order.
type builder struct {
	tags []model.Tag
}

func (b *builder) add(name, value string) {
	b.tags = append(b.tags, model.Tag{Name: name, Value: value})
}

func (b *builder) list() []model.Tag {
	return b.tags
}

// BuildTrackTags returns the tags for a track upload.
//
// The order is fixed:
//  1. Content-Type of the audio payload
//  2. Title, Description
//  3. Thumbnail (artworkID)
//  4. Topic:genre
//  5. one Topic:<topic> per non-empty entry of release.Topics
//  6. Init-State and the atomic asset contract tags
//  7. License tags, only when release.License is set
//
// address is the wallet that receives the initial token balance.
func BuildTrackTags(release *model.Release, track *model.Track, address, artworkID string) []model.Tag {
	var b builder

	b.add(NameContentType, track.Audio.ContentType)
	b.add(NameTitle, track.Metadata.Title)
	b.add(NameDescription, track.Metadata.Description)
	b.add(NameThumbnail, artworkID)
	b.add(NameGenre, track.Metadata.Genre)

	for _, topic := range SplitTopics(release.Topics) {
		b.add(NameTopicPrefix+topic, topic)
	}

	b.add(NameInitState, initState(track.Metadata.Title, address))
	b.add(NameAppName, AppName)
	b.add(NameAppVersion, AppVersion)
	b.add(NameIndexedBy, IndexedBy)
	b.add(NameContractSrc, ContractSrc)
	b.add(NameContractManifest, ContractManifest)

	if release.License != nil {
		addLicense(&b, release.License)
	}

	return b.list()
}

// ArtworkTags returns the tags for an artwork upload.
func ArtworkTags(artwork model.Asset) []model.Tag {
	var b builder
	if artwork.ContentType != "" {
		b.add(NameContentType, artwork.ContentType)
	}
	return b.list()
}

// CollectionTags returns the tags for the collection manifest of a
// multi-track release.
func CollectionTags(release *model.Release) []model.Tag {
	var b builder
	b.add(NameDataProtocol, CollectionProtocol)
	b.add(NameCollectionType, CollectionAudio)
	b.add(NameTitle, release.Title)
	b.add(NameDescription, release.Description)
	return b.list()
}

// SplitTopics splits a comma-separated topic list. Whitespace is removed
// from every entry and empty entries are dropped, so leading, trailing
// or doubled commas produce no tags.
func SplitTopics(topics string) []string {
	var out []string
	for _, part := range strings.Split(topics, ",") {
		topic := strings.Join(strings.Fields(part), "")
		if topic == "" {
			continue
		}
		out = append(out, topic)
	}
	return out
}

type assetState struct {
	Ticker    string         `json:"ticker"`
	Name      string         `json:"name"`
	Balances  map[string]int `json:"balances"`
	Claimable []string       `json:"claimable"`
}

// initState encodes the initial contract state: the whole supply held
// by address. Titles are encoded the same way a browser's JSON.stringify
// encodes them: no HTML escaping and raw U+2028/U+2029.
func initState(title, address string) string {
	state := assetState{
		Ticker:    AssetTicker,
		Name:      title,
		Balances:  map[string]int{address: AssetSupply},
		Claimable: []string{},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings, ints and maps cannot fail.
	_ = enc.Encode(state)
	return unescapeLineSeparators(strings.TrimSuffix(buf.String(), "\n"))
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes written by
// encoding/json back into raw characters. Other escapes are copied.
func unescapeLineSeparators(s string) string {
	if !strings.Contains(s, `\u202`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch rest := s[i:]; {
		case strings.HasPrefix(rest, `\u2028`):
			b.WriteRune('\u2028')
			i += 5
		case strings.HasPrefix(rest, `\u2029`):
			b.WriteRune('\u2029')
			i += 5
		default:
			b.WriteString(rest[:2])
			i++
		}
	}
	return b.String()
}

func addLicense(b *builder, license model.License) {
	b.add(NameLicense, UDL)

	switch l := license.(type) {
	case model.Allowed:
		switch c := l.Commercial.(type) {
		case model.CommercialWithFee:
			b.add(NameCommercial, "allowed")
			b.add(NameLicenseFee, string(c.Recurrence)+"-"+strconv.FormatFloat(c.Fee, 'f', -1, 64))
			b.add(NameCurrency, string(c.Currency))
			b.add(NamePaymentMode, string(c.PaymentMode))
		case nil:
		default:
			b.add(NameCommercial, "allowed-"+c.Term())
		}
		addDerivation(b, l.Derivation)

	case model.Attribution:
		b.add(NameCommercial, "allowed-with-credit")
		b.add(NameDerivation, "allowed-with-credit")

	case model.Noncommercial:
		addDerivation(b, l.Derivation)
	}
}

func addDerivation(b *builder, derivation model.Derivation) {
	switch d := derivation.(type) {
	case model.RevenueShare:
		b.add(NameDerivation, "allowed-with-revenueShare-"+strconv.Itoa(d.Percent)+"%")
	case nil:
	default:
		b.add(NameDerivation, "allowed-"+d.Term())
	}
}
