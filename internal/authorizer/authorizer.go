// Package authorizer gates the destructive operations SnapGuard performs
// (taking a precautionary snapshot, rolling a dataset back) behind a polkit
// authorization check. Unlike zsys's daemon, snapview runs the check
// in-process against its own caller: there is no grpc peer to extract
// credentials from, so the pid and uid are simply the running process's.
package authorizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/log"
)

type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Authorizer is an abstraction of polkit authorization.
type Authorizer struct {
	authority caller
	root      string
}

func withAuthority(c caller) func(*Authorizer) {
	return func(a *Authorizer) {
		a.authority = c
	}
}

func withRoot(root string) func(*Authorizer) {
	return func(a *Authorizer) {
		a.root = root
	}
}

// New returns a new authorizer backed by the system polkit authority. If
// withAuthority is among options, the system bus is never dialed: that
// option fully replaces the authority, which is how tests substitute a
// mock without requiring a running dbus-daemon.
func New(options ...func(*Authorizer)) (*Authorizer, error) {
	a := Authorizer{root: "/"}

	for _, option := range options {
		option(&a)
	}

	if a.authority == nil {
		bus, err := dbus.SystemBus()
		if err != nil {
			return nil, err
		}
		a.authority = bus.Object("org.freedesktop.PolicyKit1",
			"/org/freedesktop/PolicyKit1/Authority")
	}

	return &a, nil
}

// Action is a polkit action.
type Action string

const (
	// ActionAlwaysAllowed is a no-op bypassing any dbus check, used for
	// read-only version lookups.
	ActionAlwaysAllowed Action = "always-allowed"
	// ActionSnapshot gates SnapGuard taking a precautionary snapshot.
	ActionSnapshot Action = "com.ubuntu.snapview.snapshot"
	// ActionRollback gates SnapGuard rolling a dataset back to a
	// precautionary snapshot.
	ActionRollback Action = "com.ubuntu.snapview.rollback"
)

type polkitCheckFlags uint32

const (
	checkAllowInteration polkitCheckFlags = 0x01
)

type authSubject struct {
	Kind    string
	Details map[string]dbus.Variant
}

type authResult struct {
	IsAuthorized bool
	IsChallenge  bool
	Details      map[string]string
}

// IsAllowed returns nil if the calling process is allowed to perform action.
// ActionAlwaysAllowed and a uid of 0 (root) both short-circuit the dbus
// round-trip entirely.
func (a Authorizer) IsAllowed(ctx context.Context, action Action) (err error) {
	log.Debug(ctx, i18n.G("Checking caller authorization"))

	defer func() {
		if err != nil {
			err = fmt.Errorf(i18n.G("permission denied: %w"), err)
		}
	}()

	return a.isAllowed(ctx, action, int32(os.Getpid()), uint32(os.Getuid()))
}

func (a Authorizer) isAllowed(ctx context.Context, action Action, pid int32, uid uint32) error {
	if uid == 0 {
		log.Debug(ctx, i18n.G("Authorized as being administrator"))
		return nil
	} else if action == ActionAlwaysAllowed {
		log.Debug(ctx, i18n.G("Any user always authorized"))
		return nil
	}

	f, err := os.Open(filepath.Join(a.root, fmt.Sprintf("proc/%d/stat", pid)))
	if err != nil {
		return fmt.Errorf(i18n.G("couldn't open stat file for process: %v"), err)
	}
	defer f.Close()

	startTime, err := getStartTimeFromReader(f)
	if err != nil {
		return fmt.Errorf(i18n.G("couldn't determine start time of client process: %v"), err)
	}

	subject := authSubject{
		Kind: "unix-process",
		Details: map[string]dbus.Variant{
			"pid":        dbus.MakeVariant(uint32(pid)),
			"start-time": dbus.MakeVariant(startTime),
			"uid":        dbus.MakeVariant(uid),
		},
	}

	var result authResult
	var details map[string]string
	err = a.authority.Call(
		"org.freedesktop.PolicyKit1.Authority.CheckAuthorization", dbus.FlagAllowInteractiveAuthorization,
		subject, string(action), details, checkAllowInteration, "").Store(&result)
	if err != nil {
		return fmt.Errorf(i18n.G("call to polkit failed: %v"), err)
	}

	log.Debugf(ctx, i18n.G("Polkit call result, authorized: %t"), result.IsAuthorized)

	if !result.IsAuthorized {
		return errors.New(i18n.G("polkit denied access"))
	}
	return nil
}

// getStartTimeFromReader determines the start time from a process stat file
// content.
//
// The implementation is intended to be compatible with polkit:
//
//	https://cgit.freedesktop.org/polkit/tree/src/polkit/polkitunixprocess.c
func getStartTimeFromReader(r io.Reader) (uint64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	contents := string(data)

	// start time is the token at index 19 after the '(process name)'
	// entry - since only this field can contain the ')' character, search
	// backwards for this to avoid malicious processes trying to fool us.
	//
	// See proc(5) man page for a description of the /proc/[pid]/stat file
	// format and the meaning of the starttime field.
	idx := strings.LastIndexByte(contents, ')')
	if idx < 0 {
		return 0, errors.New(i18n.G("parsing error: missing )"))
	}
	idx += 2 // skip ") "
	if idx > len(contents) {
		return 0, errors.New(i18n.G("parsing error: ) at the end"))
	}
	tokens := strings.Split(contents[idx:], " ")
	if len(tokens) < 20 {
		return 0, errors.New(i18n.G("parsing error: less fields than required"))
	}
	v, err := strconv.ParseUint(tokens[19], 10, 64)
	if err != nil {
		return 0, fmt.Errorf(i18n.G("parsing error: %v"), err)
	}
	return v, nil
}
