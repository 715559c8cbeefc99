package domain

import "fmt"

// RemoteResult records the outcome of a best-effort remote call (ledger
// write, reminder send) so callers can log and discard failures explicitly.
type RemoteResult struct {
	Op  string
	Err error
}

func Succeeded(op string) RemoteResult { return RemoteResult{Op: op} }

func Failed(op string, err error) RemoteResult { return RemoteResult{Op: op, Err: err} }

func (r RemoteResult) OK() bool { return r.Err == nil }

func (r RemoteResult) String() string {
	if r.OK() {
		return r.Op + ": ok"
	}
	return fmt.Sprintf("%s: %v", r.Op, r.Err)
}
