// Package tags builds the ordered name/value tag lists attached to
// uploaded objects.
//
// Track tags follow a fixed schema: content typing, descriptive
// metadata, topic tags, the atomic-asset contract fields consumed by the
// indexing layer, and the license terms. BuildTrackTags is pure and
// deterministic: the same inputs always yield the same ordered list.
//
//	tags := tags.BuildTrackTags(release, track, walletAddress, artworkID)
//
// Collection manifests and artwork uploads use CollectionTags and
// ArtworkTags.
package tags
