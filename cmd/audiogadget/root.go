// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command audiogadget drives the usbaudio engine against the in-memory
// sim harness instead of a real USB controller and audio graph, so the
// flow-control behaviour can be exercised and heard without target
// hardware.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/usbarmory/usbaudio/audio"
	"github.com/usbarmory/usbaudio/dma"
	"github.com/usbarmory/usbaudio/internal/cache"
	"github.com/usbarmory/usbaudio/sim"
)

var rootCmd = &cobra.Command{
	Use:   "audiogadget",
	Short: "USB Audio Class 1.0 engine demo over an in-memory audio graph",
	Long:  `Drives the usbaudio flow-control engine against a simulated host and audio graph, feeding a test tone into the playback side and optionally rendering the capture side's output to a real sound device.`,
	RunE:  run,
}

func init() {
	rootCmd.Flags().IntP("channels", "c", 2, "capture channel count (even, 2-8)")
	rootCmd.Flags().BoolP("high-speed", "s", true, "negotiate High Speed feedback format")
	rootCmd.Flags().DurationP("duration", "d", 5*time.Second, "how long to run before exiting")
	rootCmd.Flags().BoolP("monitor", "m", false, "render capture output to the default sound device")
	rootCmd.Flags().Float64P("tone-hz", "t", 440.0, "playback test tone frequency")
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "audiogadget: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	channels, _ := cmd.Flags().GetInt("channels")
	highSpeed, _ := cmd.Flags().GetBool("high-speed")
	duration, _ := cmd.Flags().GetDuration("duration")
	useMonitor, _ := cmd.Flags().GetBool("monitor")
	toneHz, _ := cmd.Flags().GetFloat64("tone-hz")

	pool := sim.NewPool(64)
	graph := sim.NewGraph(pool)

	engine := audio.NewEngine(pool, graph, graph)
	engine.Configure(audio.Config{
		HighSpeed:       highSpeed,
		CaptureChannels: channels,
		Clock:           func() int64 { return time.Now().UnixMilli() },
		Log:             func(line string) { fmt.Println(line) },
	})

	// The simulated host selects the streaming alternate setting right
	// away; on real hardware this tracks the host's SET_INTERFACE.
	engine.SetCaptureStreaming(true)

	// Off real silicon there is no cache to maintain, so the no-op
	// controller is correct; a tamago build substitutes one backed by
	// arm.CPU.CacheFlushData here instead.
	engine.SetCache(cache.NewNoop())

	// arena stands in for the USB device stack's DMA-addressable scratch
	// pool: the RX packet buffer handed to the engine each frame is drawn
	// from it, cache-line aligned, as a real controller requires of every
	// buffer it DMAs into.
	arena := dma.NewArena(64 * 1024)

	ctl, err := sim.NewController(engine, arena, audio.BlockSamples*4, channels)
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}

	var mon *monitor
	if useMonitor {
		m, err := newMonitor(44100, uint32(channels))
		if err != nil {
			return fmt.Errorf("start monitor: %w", err)
		}
		mon = m
		defer mon.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Printf("audiogadget: running %d-channel capture, %s playback monitor, for %s (Ctrl+C to stop)\n",
		channels, boolLabel(useMonitor), duration)

	return driveLoop(ctx, engine, ctl, mon, toneHz)
}

func boolLabel(b bool) string {
	if b {
		return "with"
	}
	return "without"
}

// driveLoop ticks the audio graph at the block cadence, feeding a
// synthetic tone into the playback side each frame and (optionally)
// rendering whatever comes back out of the capture side to a monitor.
func driveLoop(ctx context.Context, engine *audio.Engine, ctl *sim.Controller, mon *monitor, toneHz float64) error {
	tickHz := 44100.0 / float64(audio.BlockSamples)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / tickHz))
	defer ticker.Stop()

	var phase float64

	for {
		select {
		case <-ctx.Done():
			fmt.Println("audiogadget: stopped")
			return nil
		case <-ticker.C:
			packet, _, err := ctl.Frame(synthesizeStereo(&phase, toneHz, audio.BlockSamples))
			if err != nil {
				return err
			}

			engine.Update()

			if mon != nil {
				mon.push(interleavedBytesToInt16(packet))
			}
		}
	}
}

// synthesizeStereo fills a little-endian packed stereo int16 packet
// with a sine tone, standing in for the host's RX payload.
func synthesizeStereo(phase *float64, hz float64, n int) []byte {
	buf := make([]byte, n*4)
	step := 2 * math.Pi * hz / 44100.0

	for i := 0; i < n; i++ {
		s := int16(8000 * math.Sin(*phase))
		*phase += step

		buf[i*4+0] = byte(s)
		buf[i*4+1] = byte(s >> 8)
		buf[i*4+2] = byte(s)
		buf[i*4+3] = byte(s >> 8)
	}

	return buf
}

func interleavedBytesToInt16(buf []byte) []int16 {
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
	}
	return out
}
