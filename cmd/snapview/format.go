package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/mattn/go-isatty"

	"github.com/ubuntu/snapview/internal/versionengine"
)

// useColor reports whether out is a terminal worth colorizing, matching
// kopia's CLI TTY-detection (github.com/mattn/go-isatty) rather than
// unconditionally emitting ANSI codes into a pipe.
func useColor(out *os.File) bool {
	return isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
}

// printHuman renders a DisplayMap as an aligned, optionally colorized
// table: one row per live path, with every distinct historical version
// beneath it. Phantom entries (deleted live paths, or snapshot-only
// versions that can never be phantom by construction) are highlighted the
// same way kopia's CLI distinguishes removed vs present repository
// objects.
// noLive, when set, withholds the live path line itself from the table
// (spec.md's "no_live" option), matching the original's vec_live
// suppression in DisplaySet::new: the engine's DisplayMap computation is
// unaffected, only this rendering step.
func printHuman(out io.Writer, dm *versionengine.DisplayMap, colorize bool, noLive bool) {
	liveColor := color.New(color.Bold)
	deletedColor := color.New(color.FgRed)
	versionColor := color.New(color.FgCyan)
	if !colorize {
		liveColor.DisableColor()
		deletedColor.DisableColor()
		versionColor.DisableColor()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, live := range dm.Keys() {
		if !noLive {
			label := liveColor
			if live.IsPhantom() {
				label = deletedColor
			}
			fmt.Fprintf(tw, "%s\n", label.Sprint(live.Path))
		}

		for _, v := range dm.Versions(live) {
			fmt.Fprintf(tw, "  %s\t%s\t%d\n",
				versionColor.Sprint(v.Path),
				v.Metadata.ModTime.Format(time.RFC3339),
				v.Metadata.Size)
		}
	}
}

// jsonRecord is the wire shape of one live-to-versions entry in --json
// output: stdlib encoding/json, matching the machine renderer spec.md §6
// calls for.
type jsonRecord struct {
	Path     string        `json:"path,omitempty"`
	Deleted  bool          `json:"deleted"`
	Versions []jsonVersion `json:"versions"`
}

type jsonVersion struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// noLive withholds the live path (and its deleted marker) from each entry,
// the JSON-layer equivalent of printHuman's suppression.
func printJSON(out io.Writer, dm *versionengine.DisplayMap, noLive bool) error {
	entries := make([]jsonRecord, 0, dm.Len())
	for _, live := range dm.Keys() {
		var jr jsonRecord
		if !noLive {
			jr.Path = live.Path
			jr.Deleted = live.IsPhantom()
		}
		for _, v := range dm.Versions(live) {
			jr.Versions = append(jr.Versions, jsonVersion{Path: v.Path, ModTime: v.Metadata.ModTime, Size: v.Metadata.Size})
		}
		entries = append(entries, jr)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// debugDump pretty-prints any core value (a DatasetInventory, a
// DisplayMap, a PathRecord) with k0kubun/pp for --debug-dump, the same
// troubleshooting role zsys's debug printing plays.
func debugDump(out io.Writer, v interface{}) {
	fmt.Fprintln(out, pp.Sprint(v))
}
