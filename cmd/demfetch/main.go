// Command demfetch downloads a DEM coverage for a bounding box, optionally
// derives slope/aspect rasters and renders a PNG preview.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/agrefed/dem-harvester/internal/harvester"
	"github.com/agrefed/dem-harvester/internal/httpclient"
	"github.com/agrefed/dem-harvester/internal/logger"
	"github.com/agrefed/dem-harvester/internal/model"
	"github.com/agrefed/dem-harvester/internal/source"
	"github.com/agrefed/dem-harvester/internal/terrain"
	"github.com/agrefed/dem-harvester/internal/viewer"
	"github.com/agrefed/dem-harvester/internal/wcs"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	outDir := flag.String("out", "./dem", "output directory for downloaded rasters")
	bboxFlag := flag.String("bbox", source.GetMetadata().BBox.String(), "bounding box minx,miny,maxx,maxy (lon/lat)")
	res := flag.Float64("res", 0, "resolution in arc-seconds (0 = source native)")
	url := flag.String("url", source.DefaultServiceURL, "WCS service URL")
	crs := flag.String("crs", source.DefaultCRS, "coordinate reference system")
	list := flag.Bool("list", false, "list available layers and exit")
	slope := flag.Bool("slope", false, "derive a slope raster from the downloaded DEM")
	aspect := flag.Bool("aspect", false, "derive an aspect raster from the downloaded DEM")
	render := flag.String("render", "", "write a PNG preview of the downloaded DEM to this path")
	logLevel := flag.String("log-level", "info", "log level: debug|info|warn|error")
	flag.Parse()

	zl := logger.Build(logger.Config{
		Level:     *logLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "demfetch",
	}, os.Stdout)
	log := logger.NewSlog(&zl)
	log.Info("starting demfetch", "version", Version, "service", *url)

	ctx := context.Background()
	client := wcs.NewClient(log, httpclient.NewOutbound(httpclient.DefaultTimeout))

	if *list {
		if _, err := client.ListLayers(ctx, *url); err != nil {
			log.Error("list layers failed", "err", err)
			return 1
		}
		return 0
	}

	bbox, err := model.ParseBBox(*bboxFlag)
	if err != nil {
		log.Error("invalid bbox", "err", err)
		return 2
	}

	h := harvester.New(log, client)
	result, err := h.Fetch(ctx, model.DownloadRequest{
		OutDir:           *outDir,
		BBox:             bbox,
		ResolutionArcsec: *res,
		ServiceURL:       *url,
		CRS:              *crs,
	})
	if err != nil {
		// log-and-continue contract: report the failure, no stack unwinding
		log.Error("download failed", "err", err)
		return 1
	}

	if *slope {
		out, err := terrain.Slope(result.Path, terrain.Options{})
		if err != nil {
			log.Error("slope derivation failed", "err", err)
			return 1
		}
		log.Info("slope written", "path", out)
	}
	if *aspect {
		out, err := terrain.Aspect(result.Path, terrain.Options{})
		if err != nil {
			log.Error("aspect derivation failed", "err", err)
			return 1
		}
		log.Info("aspect written", "path", out)
	}
	if *render != "" {
		if err := viewer.RenderPNG(result.Path, *render, 0); err != nil {
			log.Error("render failed", "err", err)
			return 1
		}
		log.Info("preview written", "path", *render)
	}
	return 0
}
