// Package backend implements the upload services a release can be
// published through.
//
// Both implementations satisfy Backend: they sign the payload and tags
// into a data item with the configured wallet, transmit it, and return
// the content id assigned by the service.
//
//   - Chunked streams the signed item to a bundling node in fixed-size
//     chunks and reports progress after every chunk.
//   - Signed posts the whole signed item in one request. It reports a
//     coarse progress value on submit and 100 on success.
//
// # Progress
//
// Progress is delivered through a ProgressFunc callback on the calling
// goroutine. Percent values are non-decreasing and the last event of a
// successful upload always carries 100.
//
// # Errors
//
// Non-2xx responses surface as *http.StatusError. A failed chunk is
// wrapped in *ChunkError, which records the chunk index and offset.
package backend
