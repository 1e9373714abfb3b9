// riginfo prints what the loader makes of a rigged model file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/rigview/internal/loader"
	"github.com/Faultbox/rigview/internal/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdDump(command, args, scene.WriteSummary)
	case "meshes":
		cmdDump(command, args, scene.WriteMeshes)
	case "tree":
		cmdDump(command, args, scene.WriteTree)
	case "bones":
		cmdDump(command, args, scene.WriteBones)
	case "anims":
		cmdAnims(args)
	case "bounds":
		cmdBounds(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`riginfo - rigged model inspector

Usage:
  riginfo <command> [options] <model.glb>

Commands:
  info    <model>               Scene summary
  meshes  <model>               Meshes with vertex, face and bone counts
  tree    <model>               Node hierarchy
  bones   <model>               Bones with inverse bind matrices
  anims   [-keys] <model>       Animation clips and channels
  bounds  [-tick N] <model>     Bounding box after posing a tick

Options:
  -tps N   Keyframe ticks per second (default 30)

Examples:
  riginfo info models/Dwarf/dwarf.glb
  riginfo anims -keys models/Mannequin/run.glb
  riginfo bounds -tick 12 models/Dwarf/dwarf.glb`)
}

func loadScene(fs *flag.FlagSet, tps float64, usage string) *scene.Scene {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: riginfo "+usage)
		os.Exit(1)
	}
	sc, err := loader.Load(fs.Arg(0), loader.Options{TicksPerSecond: tps, SkipTextures: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return sc
}

func cmdDump(name string, args []string, write func(io.Writer, *scene.Scene)) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	tps := fs.Float64("tps", loader.DefaultTicksPerSecond, "Keyframe ticks per second")
	fs.Parse(args)

	sc := loadScene(fs, *tps, name+" <model>")
	write(os.Stdout, sc)
}

func cmdAnims(args []string) {
	fs := flag.NewFlagSet("anims", flag.ExitOnError)
	tps := fs.Float64("tps", loader.DefaultTicksPerSecond, "Keyframe ticks per second")
	keys := fs.Bool("keys", false, "Print every keyframe")
	fs.Parse(args)

	sc := loadScene(fs, *tps, "anims [-keys] <model>")
	scene.WriteAnimations(os.Stdout, sc, *keys)
}

func cmdBounds(args []string) {
	fs := flag.NewFlagSet("bounds", flag.ExitOnError)
	tps := fs.Float64("tps", loader.DefaultTicksPerSecond, "Keyframe ticks per second")
	tick := fs.Int("tick", 0, "Tick to pose")
	clip := fs.String("clip", "", "Clip name (default first)")
	fs.Parse(args)

	sc := loadScene(fs, *tps, "bounds [-tick N] <model>")
	ctx, err := scene.NewAnimationContext(sc, sc.Clip(*clip))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx.Tick = *tick
	if err := ctx.Pose(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	lo, hi, ok := sc.Bounds()
	if !ok {
		fmt.Println("no vertices")
		return
	}
	size := hi.Sub(lo)
	fmt.Printf("Tick:   %d\n", *tick)
	fmt.Printf("Min:    %8.3f %8.3f %8.3f\n", lo.X, lo.Y, lo.Z)
	fmt.Printf("Max:    %8.3f %8.3f %8.3f\n", hi.X, hi.Y, hi.Z)
	fmt.Printf("Size:   %8.3f %8.3f %8.3f\n", size.X, size.Y, size.Z)
}
