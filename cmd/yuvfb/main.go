package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"periph.io/x/host/v3"

	display "github.com/BeatGlow/yuvfb"
	"github.com/BeatGlow/yuvfb/framebuffer"
	"github.com/BeatGlow/yuvfb/pattern"
	"github.com/BeatGlow/yuvfb/v4l2"
	"github.com/BeatGlow/yuvfb/yuv"
)

type config struct {
	fb       string
	raw      bool
	input    string
	width    int
	height   int
	video    string
	timeout  time.Duration
	rng      yuv.Range
	snapshot string
	caption  string
}

func main() {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flags.Usage = func() { usage(flags) }
	c, args, err := parseConfig(flags, os.Args[1:])
	if err != nil {
		fatal(err)
	}

	if _, err = host.Init(); err != nil {
		fatal(err)
	}

	command := "show"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch strings.ToLower(command) {
	case "show":
		err = show(c, args)
	case "capture":
		err = capture(c, args)
	case "pattern":
		err = writePattern(c, args)
	case "encode":
		err = encode(c, args)
	case "clear":
		err = clearDisplay(c)
	default:
		usage(flags)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

// parseConfig parses the command line flags, it returns the remaining arguments.
func parseConfig(flags *flag.FlagSet, arguments []string) (*config, []string, error) {
	fbFlag := flags.String("fb", "/dev/fb0", "Framebuffer device")
	rawFlag := flags.Bool("raw", false, "Map the framebuffer as a raw file of -width by -height pixels, without querying the device")
	inputFlag := flags.String("input", "output.yuv", "Raw NV12 frame file")
	widthFlag := flags.Int("width", 3840, "Frame width")
	heightFlag := flags.Int("height", 2160, "Frame height")
	videoFlag := flags.String("video", "/dev/video0", "V4L2 capture device")
	timeoutFlag := flags.Duration("timeout", 2*time.Second, "Capture timeout")
	rangeFlag := flags.String("range", "video", "YCbCr range (video or full)")
	snapshotFlag := flags.String("snapshot", "", "Also save the converted frame as PNG, JPEG or BMP image")
	captionFlag := flags.String("caption", "yuvfb", "Test pattern caption")
	if err := flags.Parse(arguments); err != nil {
		return nil, nil, err
	}

	rng, err := yuv.ParseRange(*rangeFlag)
	if err != nil {
		return nil, nil, err
	}

	return &config{
		fb:       *fbFlag,
		raw:      *rawFlag,
		input:    *inputFlag,
		width:    *widthFlag,
		height:   *heightFlag,
		video:    *videoFlag,
		timeout:  *timeoutFlag,
		rng:      rng,
		snapshot: *snapshotFlag,
		caption:  *captionFlag,
	}, flags.Args(), nil
}

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command> [args]\n\n", flags.Name())
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  show [file]              show a raw NV12 frame (default: -input)")
	fmt.Fprintln(os.Stderr, "  capture [file]           show a frame from the V4L2 device, optionally saving it")
	fmt.Fprintln(os.Stderr, "  pattern [file]           write a color bars NV12 frame (default: -input)")
	fmt.Fprintln(os.Stderr, "  encode <image> [file]    convert an image to a raw NV12 frame (default: -input)")
	fmt.Fprintln(os.Stderr, "  clear                    blank the framebuffer")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flags.PrintDefaults()
}

func openDisplay(c *config) (*framebuffer.Device, error) {
	var (
		output *framebuffer.Device
		err    error
	)
	if c.raw {
		output, err = framebuffer.OpenRaw(c.fb, c.width, c.height)
	} else {
		output, err = framebuffer.Open(c.fb)
	}
	if err != nil {
		return nil, err
	}
	fmt.Printf("using display: %s\n", output)
	return output, nil
}

func show(c *config, args []string) error {
	name := c.input
	if len(args) > 0 {
		name = args[0]
	}

	output, err := openDisplay(c)
	if err != nil {
		return err
	}
	defer output.Close()

	frame, err := yuv.ReadFile(name, c.width, c.height)
	if err != nil {
		return err
	}
	fmt.Printf("read frame: %s (%dx%d)\n", name, c.width, c.height)

	return present(c, output, frame)
}

func capture(c *config, args []string) error {
	input, err := v4l2.Open(c.video)
	if err != nil {
		return err
	}
	defer input.Close()
	fmt.Printf("using capture device: %s, format %s\n", input, input.Format())

	frame, err := input.Capture(c.timeout)
	if err != nil {
		return err
	}
	fmt.Printf("captured frame: %s\n", frame.Bounds().Size())

	if len(args) > 0 {
		if err = writeFrame(args[0], frame); err != nil {
			return err
		}
	}

	output, err := openDisplay(c)
	if err != nil {
		return err
	}
	defer output.Close()

	return present(c, output, frame)
}

func present(c *config, output display.Display, frame *yuv.NV12) error {
	img := display.Convert(frame, c.rng)
	if err := display.Present(output, img); err != nil {
		return err
	}
	fmt.Printf("frame displayed (%s range)\n", c.rng)

	if c.snapshot != "" {
		if err := imgio.Save(c.snapshot, img, encoderFor(c.snapshot)); err != nil {
			return err
		}
		fmt.Printf("saved snapshot: %s\n", c.snapshot)
	}
	return nil
}

func writePattern(c *config, args []string) error {
	name := c.input
	if len(args) > 0 {
		name = args[0]
	}

	img, err := pattern.Bars(c.width, c.height, c.caption)
	if err != nil {
		return err
	}
	return encodeImage(c, img, name)
}

func encode(c *config, args []string) error {
	if len(args) < 1 {
		return errors.New("encode: missing image file name")
	}
	name := c.input
	if len(args) > 1 {
		name = args[1]
	}

	img, err := imgio.Open(args[0])
	if err != nil {
		return err
	}
	return encodeImage(c, img, name)
}

func encodeImage(c *config, img image.Image, name string) error {
	frame, err := yuv.Encode(img, c.rng)
	if err != nil {
		return err
	}
	return writeFrame(name, frame)
}

func writeFrame(name string, frame *yuv.NV12) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	n, err := frame.WriteTo(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	size := frame.Bounds().Size()
	fmt.Printf("wrote frame: %s (%dx%d, %d bytes)\n", name, size.X, size.Y, n)
	return nil
}

func clearDisplay(c *config) error {
	output, err := openDisplay(c)
	if err != nil {
		return err
	}
	defer output.Close()

	return output.Halt()
}

func encoderFor(name string) imgio.Encoder {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(95)
	case ".bmp":
		return imgio.BMPEncoder()
	default:
		return imgio.PNGEncoder()
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
