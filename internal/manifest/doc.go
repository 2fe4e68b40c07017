// Package manifest loads a release described in YAML.
//
// A manifest names the release metadata, its license and the audio and
// artwork files on disk. Loading reads every referenced file once, sniffs
// its content type and optionally normalizes artwork and fills gaps from
// ID3 tags:
//
//	loader := manifest.NewLoader(manifest.Options{
//	    Images:         ioutils.NewImageService(),
//	    ArtworkMaxSide: 1400,
//	    ProbeAudio:     true,
//	    InheritArtwork: true,
//	})
//	release, err := loader.Load(ctx, "night-drives/release.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package manifest
