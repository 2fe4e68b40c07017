// Package audio reads metadata embedded in audio files.
//
// Radar never rewrites audio payloads: the bytes that are signed and
// uploaded are the bytes on disk. The package only inspects ID3v2 tags so a
// release manifest can leave out titles, genres or artwork that the MP3
// already carries.
//
//	info, err := audio.Probe(data)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(info.Title, info.Genre)
//	if !info.Cover.IsZero() {
//	    fmt.Println("embedded cover:", info.Cover.ContentType)
//	}
package audio
