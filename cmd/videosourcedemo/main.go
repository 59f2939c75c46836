package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mverra/videosource"
	"github.com/mverra/videosource/gocvdecoder"
	"github.com/mverra/videosource/statuslog"
	"github.com/mverra/videosource/statusmetrics"
)

func main() {
	device := flag.Int("device", 0, "capture device index")
	bufferSize := flag.Int("buffer", 64, "frame buffer capacity")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	fmt.Println("videosource Demo")
	fmt.Println("================")
	fmt.Println("This demo opens a capture device and buffers decoded frames.")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  pause        - pause frame consumption")
	fmt.Println("  mute         - stop buffering new frames, keep grabbing")
	fmt.Println("  resume       - resume from pause or mute")
	fmt.Println("  restart      - restart the decode from scratch")
	fmt.Println("  stats        - show buffer and pace metrics")
	fmt.Println("  quit         - exit the application")
	fmt.Println("")

	var logger *zap.Logger
	var err error
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("error building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	decoder := gocvdecoder.New(gocvdecoder.Options{Width: 640, Height: 480, FPS: 30})
	listener := fanoutListener{
		statuslog.New(logger),
		statusmetrics.New(),
	}

	src := videosource.NewVideoSource(*device, decoder,
		videosource.WithBufferSize(*bufferSize),
		videosource.WithStatusListener(listener),
	)

	if err := src.Start(); err != nil {
		fmt.Printf("error starting video source: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		src.Terminate(false)
		os.Exit(0)
	}()

	go consumeFrames(src)

	fmt.Println("Video source running. Enter commands below:")
	fmt.Print("> ")
	processCommands(src)
}

// consumeFrames drains frames in the background so the buffer does not
// fill up while the operator is only issuing commands.
func consumeFrames(src *videosource.VideoSource) {
	for {
		if _, err := src.ReadFrame(); err != nil {
			return
		}
	}
}

func processCommands(src *videosource.VideoSource) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "pause":
			report(src.Pause())
		case "mute":
			report(src.Mute())
		case "resume":
			report(src.Resume())
		case "restart":
			report(src.Restart(true))
		case "stats":
			printStats(src)
		case "quit", "exit":
			src.Terminate(false)
			os.Exit(0)
		default:
			fmt.Printf("Unknown command: %s\n", parts[0])
		}

		fmt.Print("> ")
	}
}

func report(err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func printStats(src *videosource.VideoSource) {
	m := src.Metrics()
	meta := src.DescribeSource()

	fmt.Println("Video Source Statistics:")
	fmt.Printf("  State:              %s\n", meta.State)
	fmt.Printf("  Frames captured:    %d\n", m.FramesCaptured)
	fmt.Printf("  Adaptive drops:     %d\n", m.AdaptiveFramesDropped)
	fmt.Printf("  Buffer occupancy:   %d/%d\n", m.BufferLength, m.BufferCapacity)
	fmt.Printf("  Decoding FPS:       %.1f\n", m.DecodingFPS)
	fmt.Printf("  Reader FPS:         %.1f\n", m.ReaderFPS)
	fmt.Printf("  Stream FPS:         %.1f\n", m.StreamConsumptionFPS)
	fmt.Printf("  Checked at:         %s\n", time.Now().Format("15:04:05.000"))
}

// fanoutListener broadcasts a StatusUpdate to every listed listener,
// letting the demo log structured events and export metrics side by side
// from a single VideoSourceOption.
type fanoutListener []videosource.StatusListener

func (f fanoutListener) OnStatusUpdate(u videosource.StatusUpdate) {
	for _, listener := range f {
		listener.OnStatusUpdate(u)
	}
}
