package tags

// Tag names.
const (
	NameContentType      = "Content-Type"
	NameTitle            = "Title"
	NameDescription      = "Description"
	NameThumbnail        = "Thumbnail"
	NameTopicPrefix      = "Topic:"
	NameGenre            = NameTopicPrefix + "genre"
	NameInitState        = "Init-State"
	NameAppName          = "App-Name"
	NameAppVersion       = "App-Version"
	NameIndexedBy        = "Indexed-By"
	NameContractSrc      = "Contract-Src"
	NameContractManifest = "Contract-Manifest"
	NameLicense          = "License"
	NameCommercial       = "Commercial"
	NameDerivation       = "Derivation"
	NameLicenseFee       = "License-Fee"
	NameCurrency         = "Currency"
	NamePaymentMode      = "Payment-Mode"
	NameDataProtocol     = "Data-Protocol"
	NameCollectionType   = "Collection-Type"
)

// Atomic asset contract values. These are read by the external indexing
// contract and must match byte for byte.
const (
	AppName          = "SmartWeaveContract"
	AppVersion       = "0.3.0"
	IndexedBy        = "ucm"
	ContractSrc      = "Of9pi--Gj7hCTawhgxOwbuWnFI1h24TTgO5pw8ENJNQ"
	ContractManifest = `{"evaluationOptions":{"sourceType":"redstone-sequencer","allowBigInt":true,"internalWrites":true,"unsafeClient":"skip","useConstructor":true}}`

	// AssetTicker is the ticker of the per-track ownership token.
	AssetTicker = "ATOMIC-SONG"

	// AssetSupply is the number of units minted to the uploader.
	AssetSupply = 100
)

// UDL is the transaction id of the Universal Data License text that the
// License tag points at.
const UDL = "yRj4a5KMctX_uOmKWCFJIjmY8DeJcusVk6-HzLiM_t8"

// Collection manifest values.
const (
	CollectionProtocol = "Collection"
	CollectionAudio    = "audio"
)
