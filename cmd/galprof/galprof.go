package main

import(
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"galprof/pkg/catalog"
	"galprof/pkg/frameio"
	"galprof/pkg/photom"
	"galprof/pkg/render"
)

var(
	fDir       string
	fBand      string
	fType      string
	fConfig    string
	fOutPrefix string
	fThreshold float64
	fVerbose   bool
)

func init() {
	flag.StringVar(&fDir, "dir", ".", "directory of raw FITS frames")
	flag.StringVar(&fBand, "band", "", "filter band to select (e.g. R)")
	flag.StringVar(&fType, "type", "", "acquisition type to select (e.g. LIGHT)")
	flag.StringVar(&fConfig, "config", "", "yaml config file")
	flag.StringVar(&fOutPrefix, "o", "", "prefix for output files")
	flag.Float64Var(&fThreshold, "threshold", 0, "radius threshold as a fraction of peak brightness")
	flag.BoolVar(&fVerbose, "v", false, "debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if fVerbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func main() {
	cfg := photom.NewConfig()
	if fConfig != "" {
		var err error
		if cfg, err = photom.LoadConfig(fConfig); err != nil {
			log.Fatal().Err(err).Msg("bad config")
		}
	}

	// Command line wins over the config file, where given
	if fBand != "" { cfg.Band = fBand }
	if fType != "" { cfg.ImageType = fType }
	if fOutPrefix != "" { cfg.OutputPrefix = fOutPrefix }
	if fThreshold > 0 { cfg.ThresholdFrac = fThreshold }

	if cfg.Band == "" {
		log.Fatal().Msg("no band selected (-band)")
	}

	ctx := context.Background()

	cat, err := catalog.Open(cfg.CatalogDB)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog open failed")
	}
	defer cat.Close()

	if _, err := cat.Scan(ctx, fDir); err != nil {
		log.Fatal().Err(err).Msg("catalog scan failed")
	}

	recs, err := cat.Query(ctx, cfg.Band, cfg.ImageType)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog query failed")
	}
	if len(recs) == 0 {
		err := photom.EmptySelectionError{Band: cfg.Band, ImageType: cfg.ImageType}
		log.Fatal().Err(err).Msg("nothing to stack")
	}

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.Filename
	}
	log.Info().Int("frames", len(ids)).Str("band", cfg.Band).Str("type", cfg.ImageType).Msg("stacking")

	load := func(id string) (*photom.Grid, error) {
		return frameio.ReadPixelGrid(filepath.Join(cat.Dir(), id))
	}

	combined, err := photom.Aggregate(load, ids)
	if err != nil {
		var shape photom.ShapeMismatchError
		if errors.As(err, &shape) {
			log.Fatal().Err(err).Msg("frame dimensions disagree; check the catalog")
		}
		log.Fatal().Err(err).Msg("aggregation failed")
	}

	corrected, sky := photom.Normalize(combined)
	log.Info().Float64("sky", sky).Str("image", corrected.Stats()).Msg("background subtracted")

	center, err := photom.WeightedCentroid(corrected)
	if err != nil {
		var degen photom.DegenerateImageError
		if !errors.As(err, &degen) {
			log.Fatal().Err(err).Msg("centroid failed")
		}
		// Documented fallback: a zero-intensity image has no weighted
		// center, so use the middle of the frame.
		center = photom.GeometricCenter(corrected)
		log.Warn().Err(err).Str("center", center.String()).Msg("falling back to geometric center")
	}

	extent := photom.RadialExtentFrom(corrected, center, cfg.ThresholdFrac)
	if !extent.Found {
		log.Warn().Float64("frac", cfg.ThresholdFrac).Msg("no pixel above radius threshold")
	}

	profile := photom.FitProfile(corrected, center, cfg.Isophote)

	fmt.Printf("Estimated center: %s\n", center)
	fmt.Printf("Estimated radius: %.2f pixels (threshold %.2f x peak)\n", extent.Radius, cfg.ThresholdFrac)
	fmt.Printf("Isophotes fitted: %d valid of %d rings\n\n", profile.ValidCount(), len(profile))
	fmt.Println(render.ProfileTable(profile))

	outputs := []struct{
		name string
		fn   func() error
	}{
		{cfg.OutputPrefix + "-corrected.png", func() error {
			return render.WriteGrayPNG(corrected, fmt.Sprintf("%s band, sky %.1f", cfg.Band, sky), cfg.OutputPrefix + "-corrected.png")
		}},
		{cfg.OutputPrefix + "-corrected.tif", func() error {
			return render.WriteGrayTIFF(corrected, cfg.OutputPrefix + "-corrected.tif")
		}},
		{cfg.OutputPrefix + "-profile.png", func() error {
			return render.WriteProfilePlot(profile, "Surface brightness profile", cfg.OutputPrefix + "-profile.png")
		}},
	}
	for _, out := range outputs {
		if err := out.fn(); err != nil {
			log.Fatal().Err(err).Str("file", out.name).Msg("write failed")
		}
		log.Info().Str("file", out.name).Msg("written")
	}
}
