package main

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fademix/internal/adapter/output"
	"github.com/jmylchreest/fademix/internal/audio"
	"github.com/jmylchreest/fademix/internal/core"
	"github.com/jmylchreest/fademix/internal/mixer"
)

var statusOpts struct {
	// Filter options
	filter string
	search string
	active bool
	limit  int

	// Sort options
	sortBy    string
	sortOrder string

	// Output options
	format    string
	field     string
	template  string
	separator string
	noIndex   bool
}

var statusCmd = &cobra.Command{
	Use:   "status [key|index]",
	Short: "Show the configured sound table",
	Long: `Load the configured sound table into a silent mixer and print its state.

Every sound file is decoded, so status also reports which files are missing
or unreadable (they are skipped with a warning) and how much decoded audio
the table holds.

With a key or 1-based index argument, outputs that single sound.

Filter fields: key, state, loop, fading, volume, output, fade, left, duration
Filter operators: = != ~ (contains) ~= (regex) > < >= <=

Examples:
  # Table overview
  fademix status

  # Sound keys, one per line
  fademix status --format keys

  # Looping sounds as JSON, loudest first
  fademix status --filter loop=true --sort volume --order desc --format json

  # Duration of a single sound
  fademix status rain --field duration

  # Pick a sound with a launcher and play it
  fademix status --format dmenu | fuzzel -d | cut -d' ' -f3 | xargs fademix play`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	// Filter flags
	statusCmd.Flags().StringVar(&statusOpts.filter, "filter", "",
		"Filter expression (e.g., \"state=playing,volume>0.5\")")
	statusCmd.Flags().StringVarP(&statusOpts.search, "search", "s", "",
		"Only sounds whose key contains this text")
	statusCmd.Flags().BoolVar(&statusOpts.active, "active", false,
		"Only playing or paused sounds")
	statusCmd.Flags().IntVarP(&statusOpts.limit, "limit", "n", 0,
		"Maximum number of sounds to show (0=unlimited)")

	// Sort flags
	statusCmd.Flags().StringVar(&statusOpts.sortBy, "sort", "key",
		"Sort by field (key, volume, output, left, duration)")
	statusCmd.Flags().StringVar(&statusOpts.sortOrder, "order", "asc",
		"Sort order (asc, desc)")

	// Output flags
	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, dmenu, keys)")
	statusCmd.Flags().StringVar(&statusOpts.field, "field", "",
		"Output a single field of one sound (key, state, volume, output, fade, duration, left)")
	statusCmd.Flags().StringVar(&statusOpts.template, "template", "",
		"Custom Go template for each sound (plain and dmenu formats)")
	statusCmd.Flags().StringVar(&statusOpts.separator, "separator", " | ",
		"Field separator for dmenu format")
	statusCmd.Flags().BoolVar(&statusOpts.noIndex, "no-index", false,
		"Omit the index column")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format := output.FormatType(statusOpts.format)
	if !slices.Contains(output.FormatTypes(), format) {
		return fmt.Errorf("unknown format %q (use plain, json, yaml, dmenu, or keys)", statusOpts.format)
	}

	expr, err := core.ParseFilter(statusOpts.filter)
	if err != nil {
		return err
	}

	snap := loadSnapshot()

	sounds := core.Search(snap.Sounds, statusOpts.search)
	sounds = core.FilterWithExpr(sounds, expr)
	core.Sort(sounds, core.SortOptions{
		Field: core.ParseSortField(statusOpts.sortBy),
		Order: core.ParseSortOrder(statusOpts.sortOrder),
	})
	sounds = core.Filter(sounds, core.FilterOptions{
		ActiveOnly: statusOpts.active,
		Limit:      statusOpts.limit,
	})
	snap.Sounds = sounds

	opts := output.DefaultFormatterOptions()
	opts.Template = statusOpts.template
	opts.Separator = statusOpts.separator
	opts.ShowIndex = !statusOpts.noIndex

	if len(args) > 0 {
		s := core.Lookup(sounds, args[0])
		if s == nil {
			return fmt.Errorf("sound not found: %s", args[0])
		}
		return outputSound(snap, s, format, opts)
	}

	if statusOpts.field != "" {
		return fmt.Errorf("--field needs a key or index argument")
	}

	return output.NewFormatter(format, opts).Format(os.Stdout, snap)
}

// loadSnapshot binds the sound table to a mixer that is never opened and
// captures its state.
func loadSnapshot() output.Snapshot {
	c := getConfig()

	device := audio.NewDevice(c.Audio, logger)
	mx := mixer.New(device, mixer.WithLogger(logger))
	defer mx.Release()
	mx.SetMaxVolume(c.Mixer.Volume, c.Mixer.MaxVolume)

	manager := audio.NewManager(c, nil, logger)
	defer manager.Stop()
	manager.Populate(mx)

	snap := output.Capture(mx, time.Now())
	snap.CacheBytes = manager.Library().Size()
	return snap
}

// outputSound writes a single sound.
func outputSound(snap output.Snapshot, s *mixer.SoundState, format output.FormatType, opts output.FormatterOptions) error {
	if statusOpts.field != "" {
		fmt.Println(output.FormatField(s, statusOpts.field))
		return nil
	}

	switch format {
	case output.FormatJSON:
		return output.NewJSONFormatter(opts).FormatSingle(os.Stdout, s)
	case output.FormatKeys:
		fmt.Println(s.Key)
		return nil
	default:
		opts.ShowIndex = false
		snap.Sounds = []mixer.SoundState{*s}
		snap.ActiveEffects = 0
		if s.Fading {
			snap.ActiveEffects = 1
		}
		return output.NewFormatter(format, opts).Format(os.Stdout, snap)
	}
}
