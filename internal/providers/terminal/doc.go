// Package terminal owns the pseudo-terminal processes behind every
// terminal session.
//
// The Registry spawns a shell on a pty, hands out a term-N id, streams the
// pty output and the exit code to subscribers, and forwards input and
// resizes. It knows nothing about projects, names or layout; those live in
// the session store.
//
// Features:
//   - Hard cap on live sessions (ErrResourceExhausted)
//   - creack/pty on Unix, ConPTY on Windows, both behind Spawner
//   - Ordered per-session output, Exited only after the last Output
//   - Write and Resize on an unknown id are silent no-ops
//   - Destroy is idempotent and never produces Exited
//   - Default shell probing with optional allow-list globs
//
// Example Usage:
//
//	reg := terminal.NewRegistry(terminal.Config{Spawner: terminal.NewPTYSpawner()})
//	sub := reg.Subscribe()
//	defer sub.Cancel()
//
//	tid, err := reg.Create(ctx, terminal.CreateRequest{Cwd: "/home/user"})
//	reg.Write(tid, []byte("ls -la\n"))
//
//	for ev := range sub.C() {
//		switch e := ev.(type) {
//		case terminal.Output:
//			os.Stdout.Write(e.Data)
//		case terminal.Exited:
//			return
//		}
//	}
package terminal
