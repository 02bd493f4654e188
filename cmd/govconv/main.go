// Command govconv converts a video's colorspace frame by frame: matrix
// coefficients, primaries, transfer characteristic, range, and optionally
// pixel format, the way ffmpeg's colorspace filter does, driven by
// govconv's pure-Go conversion core instead of a C filter graph.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	ffms "github.com/GreatValueCreamSoda/goffms2"
	"github.com/GreatValueCreamSoda/gopixfmts"

	"github.com/GreatValueCreamSoda/govconv"
	"github.com/GreatValueCreamSoda/govconv/frameio"
	"github.com/GreatValueCreamSoda/govconv/pixfmtadapt"
)

type cliFlags struct {
	input, output string

	all, iall               string
	space, ispace            int
	colorRange, iColorRange  string
	primaries, iprimaries    int
	trc, itrc                int
	format                   string
	fast                     bool
	dither                   string
	wpadapt                  string
	logFile                  string
}

func main() {
	var flags cliFlags

	root := &cobra.Command{
		Use:   "govconv -i input.mkv -o output.raw [flags]",
		Short: "Convert a video's colorspace using govconv's pure-Go pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	f := root.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "input video path (required)")
	f.StringVarP(&flags.output, "output", "o", "", "output raw-plane path (required)")
	f.StringVar(&flags.all, "all", "", "named output colorspace preset")
	f.StringVar(&flags.iall, "iall", "", "named input colorspace preset")
	f.IntVar(&flags.space, "space", 0, "output matrix tag override")
	f.IntVar(&flags.ispace, "ispace", 0, "input matrix tag override")
	f.StringVar(&flags.colorRange, "range", "", "output range: tv | pc")
	f.StringVar(&flags.iColorRange, "irange", "", "input range: tv | pc")
	f.IntVar(&flags.primaries, "primaries", 0, "output primaries tag override")
	f.IntVar(&flags.iprimaries, "iprimaries", 0, "input primaries tag override")
	f.IntVar(&flags.trc, "trc", 0, "output transfer tag override")
	f.IntVar(&flags.itrc, "itrc", 0, "input transfer tag override")
	f.StringVar(&flags.format, "format", "", "output pixel format (gopixfmts numeric tag); empty keeps the input format")
	f.BoolVar(&flags.fast, "fast", false, "force rgb2rgb_passthrough, skip primary/tone mapping")
	f.StringVar(&flags.dither, "dither", "none", "dither mode: none | fsb")
	f.StringVar(&flags.wpadapt, "wpadapt", "bradford", "chromatic adaptation: bradford | vonkries | identity")
	f.StringVar(&flags.logFile, "log-file", "", "rotate structured logs to this path instead of stderr")

	root.MarkFlagRequired("input")
	root.MarkFlagRequired("output")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorstring.Color("[red]govconv:[reset] "+err.Error()))
		os.Exit(1)
	}
}

func parseRange(s string) govconv.Range {
	switch s {
	case "tv":
		return govconv.RangeTV
	case "pc":
		return govconv.RangePC
	default:
		return govconv.RangeUnspecified
	}
}

func parseCone(s string) govconv.ConeMatrix {
	switch s {
	case "vonkries":
		return govconv.ConeVonKries
	case "identity":
		return govconv.ConeIdentity
	default:
		return govconv.ConeBradford
	}
}

func parseDither(s string) govconv.DitherMode {
	if s == "fsb" {
		return govconv.DitherFSB
	}
	return govconv.DitherNone
}

func run(ctx context.Context, flags cliFlags) error {
	var logger *govconv.Logger
	if flags.logFile != "" {
		logger = govconv.NewFileLogger(flags.logFile, 100, 3, 28)
	} else {
		var err error
		logger, err = govconv.NewProductionLogger()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
	}
	defer logger.Sync()

	indexer, _, err := ffms.CreateIndexer(flags.input)
	if err != nil {
		return fmt.Errorf("index %s: %w", flags.input, err)
	}
	index, _, err := indexer.DoIndexing(ffms.IEHAbort)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", flags.input, err)
	}
	track, _, err := index.GetFirstTrackOfType(ffms.TypeVideo)
	if err != nil {
		return fmt.Errorf("no video track in %s: %w", flags.input, err)
	}
	video, _, err := ffms.CreateVideoSource(flags.input, index, track,
		runtime.NumCPU()/2, ffms.SeekNormal)
	if err != nil {
		return fmt.Errorf("open video source: %w", err)
	}

	props, err := video.GetVideoProperties()
	if err != nil {
		return fmt.Errorf("video properties: %w", err)
	}

	firstFrame, _, err := video.GetFrame(0)
	if err != nil {
		return fmt.Errorf("read frame 0: %w", err)
	}

	inFmt, err := pixfmtadapt.FromGopixfmts(gopixfmts.PixelFormat(firstFrame.ConvertedPixelFormat))
	if err != nil {
		return fmt.Errorf("resolve input pixel format: %w", err)
	}

	outPf := gopixfmts.PixelFormat(firstFrame.ConvertedPixelFormat)
	if flags.format != "" {
		tag, err := strconv.Atoi(flags.format)
		if err != nil {
			return fmt.Errorf("--format must be a gopixfmts numeric tag: %w", err)
		}
		outPf = gopixfmts.PixelFormat(tag)
	}
	outFmt, err := pixfmtadapt.FromGopixfmts(outPf)
	if err != nil {
		return fmt.Errorf("adapt output pixel format: %w", err)
	}

	cfg := govconv.Config{
		All: flags.all, IAll: flags.iall,
		Space: govconv.MatrixTag(flags.space), ISpace: govconv.MatrixTag(flags.ispace),
		Range: parseRange(flags.colorRange), IRange: parseRange(flags.iColorRange),
		Primaries: govconv.PrimariesTag(flags.primaries), IPrimaries: govconv.PrimariesTag(flags.iprimaries),
		TRC: govconv.TransferTag(flags.trc), ITRC: govconv.TransferTag(flags.itrc),
		Fast: flags.fast, Dither: parseDither(flags.dither), WPAdapt: parseCone(flags.wpadapt),
	}
	if cfg.Space == 0 {
		cfg.Space = govconv.MatrixAuto
	}
	if cfg.ISpace == 0 {
		cfg.ISpace = govconv.MatrixAuto
	}

	outFile, err := os.Create(flags.output)
	if err != nil {
		return fmt.Errorf("create output %s: %w", flags.output, err)
	}
	defer outFile.Close()

	converter := govconv.NewConverter(cfg, logger)
	scratch := govconv.NewScratchManager()
	engine := govconv.NewEngine(scratch)

	bar := progressbar.Default(int64(props.NumFrames), "converting")
	start := time.Now()

	for i := 0; i < props.NumFrames; i++ {
		raw, _, err := video.GetFrame(i)
		if err != nil {
			return fmt.Errorf("read frame %d: %w", i, err)
		}
		in := frameio.FromFFMS2(&raw)

		plan, err := converter.Build(inFmt, outFmt, in.Meta, in.Meta, in.Width, in.Height)
		if err != nil {
			return fmt.Errorf("plan frame %d: %w", i, err)
		}

		// The scratch RGB intermediate is always signed int16 (2 bytes) for
		// the integer pipeline, regardless of the YUV side's bit depth
		// (spec.md section 3's RGB-intermediate invariant); it widens to 4
		// bytes when both sides are float and they are not both half-float.
		pixelBytes := 2
		if inFmt.Float() && outFmt.Float() && !(inFmt.Depth() == 16 && outFmt.Depth() == 16) {
			pixelBytes = 4
		}
		scratch.Resize(in.Width, in.Height, pixelBytes)

		out := frameio.Alloc(outFmt, in.Width, in.Height, plan.OutMeta)

		if err := govconv.ConvertParallel(ctx, engine, plan, in, out, in.Width, in.Height, runtime.NumCPU()); err != nil {
			return fmt.Errorf("convert frame %d: %w", i, err)
		}

		for p := 0; p < 4; p++ {
			if out.Plane(p) == nil {
				continue
			}
			if _, err := outFile.Write(out.Plane(p)); err != nil {
				return fmt.Errorf("write frame %d plane %d: %w", i, p, err)
			}
		}

		bar.Add(1)
	}

	elapsed := time.Since(start)
	fmt.Println(colorstring.Color(fmt.Sprintf(
		"[green]done:[reset] %d frames in %s (%.1f fps)",
		props.NumFrames, elapsed.Round(time.Millisecond), float64(props.NumFrames)/elapsed.Seconds())))

	logger.Debugf("wrote output to %s", flags.output)
	return nil
}
