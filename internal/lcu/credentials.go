package lcu

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrNotFound means no running client could be discovered. It is the
// expected result while the game client is not running and is never logged
// as an error.
var ErrNotFound = errors.New("lcu: client not found")

// Credentials are the connection parameters the client writes to its
// lockfile. A value is immutable once built; discovery replaces it
// wholesale, never field by field.
type Credentials struct {
	Port     int
	Password string
	Protocol string
	PID      int
}

// Lockfile candidates per platform, in priority order. The first existing
// path wins; candidates are fixed by where Riot installs the client.
var lockfilePaths = map[string][]string{
	"windows": {
		`C:\Riot Games\League of Legends\lockfile`,
		`D:\Riot Games\League of Legends\lockfile`,
		`C:\Program Files\Riot Games\League of Legends\lockfile`,
		`D:\Program Files\Riot Games\League of Legends\lockfile`,
	},
	"darwin": {
		"/Applications/League of Legends.app/Contents/LoL/lockfile",
	},
}

// CredentialSource discovers current client credentials. Implementations
// return ErrNotFound when no client is running; any other error is
// unexpected.
type CredentialSource interface {
	Discover() (*Credentials, error)
}

// LockfileSource scans the platform's fixed lockfile paths and falls back
// to a process scan when none exists (the client was installed somewhere
// custom). It holds no state between calls.
type LockfileSource struct {
	// Paths overrides the platform candidate list. Tests use this.
	Paths []string
	// DisableProcessScan skips the gopsutil fallback.
	DisableProcessScan bool
}

func (s *LockfileSource) candidates() []string {
	if s.Paths != nil {
		return s.Paths
	}
	return lockfilePaths[runtime.GOOS]
}

func (s *LockfileSource) Discover() (*Credentials, error) {
	for _, path := range s.candidates() {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return ParseLockfile(string(data))
	}

	if s.DisableProcessScan {
		return nil, ErrNotFound
	}
	return discoverFromProcess()
}

// ParseLockfile parses the client's positional lockfile record:
// name:pid:port:password:protocol. Malformed content yields ErrNotFound,
// never an error of its own; the file may be half-written while the
// client starts up.
func ParseLockfile(content string) (*Credentials, error) {
	fields := strings.Split(strings.TrimSpace(content), ":")
	if len(fields) < 5 {
		return nil, ErrNotFound
	}

	pid, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, ErrNotFound
	}
	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, ErrNotFound
	}
	if fields[3] == "" || fields[4] == "" {
		return nil, ErrNotFound
	}

	return &Credentials{
		Port:     port,
		Password: fields[3],
		Protocol: fields[4],
		PID:      pid,
	}, nil
}

// discoverFromProcess locates the client UX process and recovers
// credentials from its command line, or from the lockfile next to its
// executable. Scan failures degrade to ErrNotFound: a failed enumeration
// is indistinguishable from "client not running" for our purposes.
func discoverFromProcess() (*Credentials, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, ErrNotFound
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !strings.Contains(name, "LeagueClientUx") {
			continue
		}

		args, err := p.CmdlineSlice()
		if err == nil {
			if creds := credentialsFromArgs(args, int(p.Pid)); creds != nil {
				return creds, nil
			}
		}

		// No usable arguments, try the lockfile in the install directory.
		exe, err := p.Exe()
		if err != nil || exe == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), "lockfile"))
		if err != nil {
			continue
		}
		return ParseLockfile(string(data))
	}

	return nil, ErrNotFound
}

// credentialsFromArgs extracts --app-port and --remoting-auth-token from a
// client command line. Both must be present.
func credentialsFromArgs(args []string, pid int) *Credentials {
	var port int
	var token string

	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--app-port="); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil
			}
			port = n
		}
		if v, ok := strings.CutPrefix(arg, "--remoting-auth-token="); ok {
			token = v
		}
	}

	if port == 0 || token == "" {
		return nil
	}
	return &Credentials{
		Port:     port,
		Password: token,
		Protocol: "https",
		PID:      pid,
	}
}
