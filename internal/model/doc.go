// Package model defines the core data structures used throughout
// the radar uploader.
//
// # Release
//
// Release is a validated audio release ready to be published: release
// level metadata and artwork, an optional license, and one or more tracks.
//
//	release := &model.Release{
//	    Title:       "Night Drives",
//	    Description: "Four tracks recorded on tape",
//	    Artwork:     model.Asset{Data: cover, ContentType: "image/jpeg"},
//	    Tracks:      []*model.Track{track},
//	}
//	release.Normalize()
//	if err := release.Validate(); err != nil {
//	    return err
//	}
//
// # License
//
// License is a closed sum type. Each variant carries only the fields
// that are meaningful for it:
//
//	model.PublicUse{}
//	model.Attribution{}
//	model.Allowed{Commercial: model.CommercialWithFee{...}, Derivation: model.DerivationWithCredit}
//	model.Noncommercial{Derivation: model.RevenueShare{Percent: 20}}
//
// # Upload results
//
// UploadResult tracks the lifecycle of a single track upload:
// idle → in-progress → success | failed. Registered flips to true only
// after the content id has been registered with the indexing contract.
package model
