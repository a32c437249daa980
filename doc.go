// Package soundbox implements the core of a customizable soundboard: a
// grid of virtual buttons bound to recorded or uploaded sounds, organized
// into named collections ("toys") with per-toy theming, persisted locally
// and portable through JSON backups.
//
// Example:
//
//	sb := soundbox.New(soundbox.Options{DataDir: "/var/lib/soundbox"})
//
//	toy := sb.State().ActiveToy()
//	btn, err := sb.AddButton(toy.ID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := sb.StartRecording(func(level float64) {
//	    fmt.Printf("\rlevel: %0.2f", level)
//	}); err != nil {
//	    log.Fatal(err)
//	}
//	time.Sleep(2 * time.Second)
//	if err := sb.FinishRecording(toy.ID, btn.ID); err != nil {
//	    log.Fatal(err)
//	}
//
//	sb.PlayButton(btn.ID, 1.0)
//
// The heavy lifting lives in the subpackages: audio (capture, decode,
// playback, trim/normalize), asset (resource handles and the decoded-buffer
// cache), store (durable local persistence), and backup (portable JSON
// export/import). This package wires them together and enforces the global
// state invariants on every mutation.
package soundbox
