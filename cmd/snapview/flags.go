package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/i18n"
)

var (
	_ pflag.Value = lastSnapFlag{}
	_ pflag.Value = deletedModeFlag{}
)

// lastSnapFlag is a pflag.Value adapting config.LastSnapMode to the
// --last-snap=mode CLI surface spec.md §6/§8's last_snap option requires.
type lastSnapFlag struct {
	mode *config.LastSnapMode
}

func (f lastSnapFlag) String() string {
	if f.mode == nil {
		return "none"
	}
	switch *f.mode {
	case config.LastSnapAny:
		return "any"
	case config.LastSnapDittoOnly:
		return "ditto-only"
	case config.LastSnapNoDittoExclusive:
		return "no-ditto-exclusive"
	case config.LastSnapNoDittoInclusive:
		return "no-ditto-inclusive"
	default:
		return "none"
	}
}

func (f lastSnapFlag) Set(s string) error {
	switch s {
	case "none", "":
		*f.mode = config.LastSnapNone
	case "any":
		*f.mode = config.LastSnapAny
	case "ditto-only":
		*f.mode = config.LastSnapDittoOnly
	case "no-ditto-exclusive":
		*f.mode = config.LastSnapNoDittoExclusive
	case "no-ditto-inclusive":
		*f.mode = config.LastSnapNoDittoInclusive
	default:
		return fmt.Errorf(i18n.G("unknown last-snap mode %q (want none, any, ditto-only, no-ditto-exclusive or no-ditto-inclusive)"), s)
	}
	return nil
}

func (f lastSnapFlag) Type() string { return "mode" }

// deletedModeFlag is a pflag.Value adapting config.DeletedMode to the
// --deleted=mode CLI surface.
type deletedModeFlag struct {
	mode *config.DeletedMode
}

func (f deletedModeFlag) String() string {
	if f.mode == nil {
		return "disabled"
	}
	switch *f.mode {
	case config.DeletedDepthOfOne:
		return "depth-of-one"
	case config.DeletedAll:
		return "all"
	case config.DeletedOnly:
		return "only"
	default:
		return "disabled"
	}
}

func (f deletedModeFlag) Set(s string) error {
	switch s {
	case "disabled", "":
		*f.mode = config.DeletedDisabled
	case "depth-of-one":
		*f.mode = config.DeletedDepthOfOne
	case "all":
		*f.mode = config.DeletedAll
	case "only":
		*f.mode = config.DeletedOnly
	default:
		return fmt.Errorf(i18n.G("unknown deleted mode %q (want disabled, depth-of-one, all or only)"), s)
	}
	return nil
}

func (f deletedModeFlag) Type() string { return "mode" }
