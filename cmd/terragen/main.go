// Command terragen pre-generates a tile store's pyramid: it seeds every
// node down to a chosen level as needing base data, then drains each
// requested layer's backlog through the layer's generator, writing results
// back to the store. It is the offline counterpart to the engine's
// streaming runtime, useful for warming a store ahead of time or for
// regenerating a layer after a generator change.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/fintelia/terra/internal/generate"
	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/progress"
	"github.com/fintelia/terra/internal/raster"
	"github.com/fintelia/terra/internal/sysinfo"
	"github.com/fintelia/terra/internal/tilestore"
	"github.com/fintelia/terra/internal/vnode"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		storeDir        string
		layersFlag      string
		textureQuality  string
		vertexQuality   string
		seedMaxLevel    int
		presentHeights  int
		presentTextures int
		concurrency     int
		remoteBaseURL   string
		verbose         bool
		showVersion     bool
		cpuProfile      string
		memProfile      string
	)

	flag.StringVar(&storeDir, "store", "", "Tile store root directory (required)")
	flag.StringVar(&layersFlag, "layers", "heightmaps,displacements,normals,albedo", "Comma-separated layers to generate, in dependency order")
	flag.StringVar(&textureQuality, "texture-quality", "high", "Texture quality: low, high, ultra")
	flag.StringVar(&vertexQuality, "vertex-quality", "high", "Vertex quality: low, medium, high (informational; affects nothing generated by this tool directly)")
	flag.IntVar(&seedMaxLevel, "seed-max-level", 6, "Deepest quadtree level to seed as needing generation")
	flag.IntVar(&presentHeights, "present-level-heights", 0, "Deepest level heightmaps are generated at; deeper displacements sample an ancestor's heightmap (0 = generate.DefaultConfig default)")
	flag.IntVar(&presentTextures, "present-level-textures", 0, "Deepest level normals/albedo are generated at (0 = generate.DefaultConfig default)")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel workers per layer")
	flag.StringVar(&remoteBaseURL, "remote", "", "Base URL to fetch downloadable layers (albedo, heightmaps, roughness) from on a local miss")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: terragen -store <dir> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Pre-generate a tile store's layer pyramid down to -seed-max-level.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("terragen %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if storeDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatalf("Creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}
	if memProfile != "" {
		defer func() {
			f, err := os.Create(memProfile)
			if err != nil {
				log.Fatalf("Creating memory profile: %v", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("Writing memory profile: %v", err)
			}
		}()
	}

	tq, err := parseTextureQuality(textureQuality)
	if err != nil {
		log.Fatalf("Texture quality: %v", err)
	}
	vq, err := parseVertexQuality(vertexQuality)
	if err != nil {
		log.Fatalf("Vertex quality: %v", err)
	}

	genCfg := generate.DefaultConfig()
	genCfg.TextureQuality = tq
	genCfg.VertexQuality = vq
	if presentHeights > 0 {
		genCfg.MaxHeightsPresentLevel = uint8(presentHeights)
	}
	if presentTextures > 0 {
		genCfg.MaxTexturePresentLevel = uint8(presentTextures)
	}

	layerTypes, err := parseLayers(layersFlag)
	if err != nil {
		log.Fatalf("Layers: %v", err)
	}

	params := layer.DefaultParams(genCfg.TextureQuality.Resolution())

	if limit := sysinfo.ComputeMemoryLimit(sysinfo.DefaultMemoryPressureFraction); verbose {
		if limit > 0 {
			log.Printf("Detected system RAM budget: %d MB available for tile caching", limit/(1024*1024))
		} else {
			log.Printf("Could not detect system RAM; caches will need an explicit size")
		}
	}

	store, err := tilestore.Open(storeDir, params, remoteBaseURL)
	if err != nil {
		log.Fatalf("Opening tile store: %v", err)
	}
	defer store.Close()

	fmt.Printf("terragen %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-22s %s\n", "Store:", storeDir)
	fmt.Printf("  %-22s %s\n", "Layers:", layersFlag)
	fmt.Printf("  %-22s %s\n", "Texture quality:", tq)
	fmt.Printf("  %-22s %d\n", "Seed max level:", seedMaxLevel)
	fmt.Printf("  %-22s %d\n", "Concurrency:", concurrency)

	start := time.Now()
	seeded, err := seedPyramid(store, layerTypes, seedMaxLevel)
	if err != nil {
		log.Fatalf("Seeding pyramid: %v", err)
	}
	if verbose {
		log.Printf("Seeded %d (layer, node) pairs in %v", seeded, time.Since(start).Round(time.Millisecond))
	}

	imagery, err := raster.NewCache[uint8](64, proceduralImagerySource{})
	if err != nil {
		log.Fatalf("Creating imagery cache: %v", err)
	}

	if err := ensureNoiseTexture(store, verbose); err != nil {
		log.Fatalf("Generating noise texture: %v", err)
	}

	for _, layerType := range layerTypes {
		layerStart := time.Now()

		backlog, err := store.GetMissingBase(layerType)
		if err != nil {
			log.Fatalf("Listing %s backlog: %v", layerType, err)
		}
		bar := progress.NewBar(layerType.String(), int64(len(backlog)))

		stop := make(chan struct{})
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			progress.Watch(bar, 2*time.Second, stop, func(s progress.Snapshot) {
				if verbose && s.Total > 0 {
					log.Printf("%-14s %6.2f%% (%d/%d, %.1f/s)", s.Label, s.Fraction()*100, s.Processed, s.Total, s.Rate())
				}
			})
		}()

		tileFunc := tileFuncFor(layerType, store, params, genCfg, imagery)
		runErr := generate.RunLayer(context.Background(), store, layerType, concurrency, tileFunc, func(done, total int) {
			bar.Increment(1)
		})
		close(stop)
		<-watchDone

		if runErr != nil {
			log.Fatalf("Generating %s: %v", layerType, runErr)
		}
		fmt.Printf("  %-14s %d tile(s) in %v\n", layerType, len(backlog), time.Since(layerStart).Round(time.Millisecond))
	}

	fmt.Printf("Done in %v\n", time.Since(start).Round(time.Millisecond))
}

// seedPyramid marks every node down to maxLevel as MissingBase for each
// requested layer, so RunLayer has a backlog to drain. A real deployment
// seeds incrementally as the frame selector discovers new nodes are desired
// (spec §4.8); this tool seeds the whole pyramid up front instead, for
// batch pre-generation.
func seedPyramid(store *tilestore.Store, layerTypes []layer.Type, maxLevel int) (int, error) {
	count := 0
	var seedErr error
	vnode.BreadthFirst(func(node vnode.VNode) bool {
		if seedErr != nil {
			return false
		}
		for _, layerType := range layerTypes {
			if _, err := store.ReloadTileState(layerType, node, true); err != nil {
				seedErr = fmt.Errorf("seeding %s tile %v: %w", layerType, node, err)
				return false
			}
			count++
		}
		return int(node.Level()) < maxLevel
	})
	return count, seedErr
}

// ensureNoiseTexture generates and persists the shared noise texture if the
// store doesn't already have one on disk. Unlike the per-node layers, the
// noise texture is a single named blob the whole engine shares, so it's
// stored via Store.WriteTexture rather than keyed by (layer, VNode).
func ensureNoiseTexture(store *tilestore.Store, verbose bool) error {
	if store.ReloadTexture("noise") {
		if verbose {
			log.Printf("Noise texture already present, skipping")
		}
		return nil
	}

	data := generate.GenerateNoiseTexture()
	desc := tilestore.TextureDescriptor{
		Width:  generate.NoiseTextureResolution,
		Height: generate.NoiseTextureResolution,
		Depth:  1,
		Format: layer.FormatRGBA8,
		Bytes:  len(data),
	}
	if verbose {
		log.Printf("Generating noise texture (%dx%d)", desc.Width, desc.Height)
	}
	return store.WriteTexture("noise", desc, data)
}

func tileFuncFor(layerType layer.Type, store *tilestore.Store, params map[layer.Type]layer.Params, cfg generate.Config, imagery *raster.Cache[uint8]) generate.TileFunc {
	switch layerType {
	case layer.Heightmaps:
		p := params[layer.Heightmaps]
		return func(ctx context.Context, node vnode.VNode) ([]byte, error) {
			if node.Level() > cfg.MaxHeightsPresentLevel {
				return nil, generate.ErrTooFine{Node: node}
			}
			return generate.GenerateHeightmap(ctx, node, uint16(p.TextureResolution), uint16(p.TextureBorderSize), nil)
		}

	case layer.Displacements:
		heightParams := params[layer.Heightmaps]
		dispParams := params[layer.Displacements]
		return func(ctx context.Context, node vnode.VNode) ([]byte, error) {
			if node.Level() <= cfg.MaxHeightsPresentLevel {
				hm, err := store.ReadTile(ctx, layer.Heightmaps, node)
				if err != nil {
					return nil, err
				}
				return generate.GenerateDisplacement(node, uint16(dispParams.TextureResolution),
					uint16(heightParams.TextureResolution), uint16(heightParams.TextureBorderSize), hm, nil), nil
			}

			ancestor, generations, offsetX, offsetY, ok := node.FindAncestor(func(candidate vnode.VNode) bool {
				return candidate.Level() <= cfg.MaxHeightsPresentLevel
			})
			if !ok {
				return nil, generate.ErrTooFine{Node: node}
			}
			hm, err := store.ReadTile(ctx, layer.Heightmaps, ancestor)
			if err != nil {
				return nil, err
			}
			sample := &generate.AncestorSample{
				Heightmap:   hm,
				Resolution:  int(heightParams.TextureResolution),
				Generations: generations,
				OffsetX:     offsetX,
				OffsetY:     offsetY,
			}
			return generate.GenerateDisplacement(node, uint16(dispParams.TextureResolution),
				uint16(heightParams.TextureResolution), uint16(heightParams.TextureBorderSize), nil, sample), nil
		}

	case layer.Normals:
		heightParams := params[layer.Heightmaps]
		normalParams := params[layer.Normals]
		return func(ctx context.Context, node vnode.VNode) ([]byte, error) {
			if node.Level() > cfg.MaxTexturePresentLevel {
				return nil, generate.ErrTooFine{Node: node}
			}
			hm, err := store.ReadTile(ctx, layer.Heightmaps, node)
			if err != nil {
				return nil, err
			}
			return generate.GenerateNormals(node, hm, uint16(heightParams.TextureResolution),
				uint16(heightParams.TextureBorderSize), uint16(normalParams.TextureResolution)), nil
		}

	case layer.Albedo:
		albedoParams := params[layer.Albedo]
		const sourceSpacingMeters = 1000.0 // ~1km/px procedural imagery
		return func(ctx context.Context, node vnode.VNode) ([]byte, error) {
			if node.Level() > cfg.MaxTexturePresentLevel {
				return nil, generate.ErrTooFine{Node: node}
			}
			return generate.GenerateColormap(ctx, node, uint16(albedoParams.TextureResolution),
				uint16(albedoParams.TextureBorderSize), imagery, sourceSpacingMeters)
		}

	default:
		return func(ctx context.Context, node vnode.VNode) ([]byte, error) {
			return nil, fmt.Errorf("terragen: no generator wired for layer %s (fetch from -remote instead)", layerType)
		}
	}
}

func parseLayers(s string) ([]layer.Type, error) {
	var out []layer.Type
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, t := range layer.AllTypes() {
			if t.String() == part {
				out = append(out, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown layer %q", part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no layers specified")
	}
	return out, nil
}

func parseTextureQuality(s string) (generate.TextureQuality, error) {
	switch strings.ToLower(s) {
	case "low":
		return generate.TextureQualityLow, nil
	case "high":
		return generate.TextureQualityHigh, nil
	case "ultra":
		return generate.TextureQualityUltra, nil
	default:
		return 0, fmt.Errorf("unknown texture quality %q (want low, high, ultra)", s)
	}
}

func parseVertexQuality(s string) (generate.VertexQuality, error) {
	switch strings.ToLower(s) {
	case "low":
		return generate.VertexQualityLow, nil
	case "medium":
		return generate.VertexQualityMedium, nil
	case "high":
		return generate.VertexQualityHigh, nil
	default:
		return 0, fmt.Errorf("unknown vertex quality %q (want low, medium, high)", s)
	}
}
