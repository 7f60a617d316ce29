package envsource

import "os"

// Snapshot is an in-memory environment. It is both the conflict lookup and the
// export sink of a run, so later keys observe earlier exports.
type Snapshot map[string]string

func (s Snapshot) LookupEnv(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

func (s Snapshot) ExportVariable(name, value string) error {
	s[name] = value
	return nil
}

func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Process is the live environment of the current process.
type Process struct{}

func (Process) LookupEnv(name string) (string, bool) { return os.LookupEnv(name) }

func (Process) ExportVariable(name, value string) error { return os.Setenv(name, value) }
