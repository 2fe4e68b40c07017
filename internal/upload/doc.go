// Package upload publishes a release through an upload backend.
//
// The Assembler owns a release upload from start to finish:
//
//  1. upload the release artwork
//  2. upload every track through the Orchestrator, in list order
//  3. for multi-track releases, upload a collection manifest
//  4. register each track content id with the asset registry
//
// Any failure in steps 1 to 3 fails the release. Registration failures
// are reported as warnings and leave the track unregistered; the
// release still completes.
//
// # Progress
//
// Both the Assembler and the Orchestrator report through an
// onProgress callback, the same way the UI consumes them:
//
//	a := upload.NewAssembler(upload.Config{
//	    Backend:    b,
//	    Registrar:  reg,
//	    OnProgress: func(e upload.ProgressEvent) { fmt.Println(e.Message) },
//	})
//	outcome, err := a.Upload(ctx, release, upload.Options{Address: addr})
//
// Per-track state can also be polled with Results.
package upload
