// Command gbcore is a headless runner: it loads a ROM, runs a fixed
// number of frames with no input, and writes the final frame out as a
// PPM image. It exists as test/demo tooling only — spec.md's Non-goals
// exclude a real frontend (window management, input mapping, audio).
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"gbcore"
	"gbcore/internal/ppu"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Usage = "run a Game Boy ROM headlessly and dump its final frame"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "frames", Value: 60, Usage: "number of frames to run before dumping output"},
		cli.StringFlag{Name: "out", Value: "frame.ppm", Usage: "output PPM path"},
		cli.StringFlag{Name: "boot", Usage: "optional boot ROM path"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gbcore:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("usage: gbcore [options] <rom path>")
	}
	rom, err := os.ReadFile(ctx.Args().Get(0))
	if err != nil {
		return err
	}

	var opts []gbcore.Option
	if bootPath := ctx.String("boot"); bootPath != "" {
		boot, err := os.ReadFile(bootPath)
		if err != nil {
			return err
		}
		opts = append(opts, gbcore.WithBootROM(boot))
	}

	core, err := gbcore.New(rom, opts...)
	if err != nil {
		return err
	}

	for i := 0; i < ctx.Int("frames"); i++ {
		core.RunFrame()
	}

	return writePPM(ctx.String("out"), core.Framebuffer())
}

func writePPM(path string, frame *ppu.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P6\n%d %d\n255\n", ppu.ScreenWidth, ppu.ScreenHeight)
	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			px := frame[y][x]
			w.Write(px[:])
		}
	}
	return w.Flush()
}
