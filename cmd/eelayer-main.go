package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/geolayers/eelayer/eeclient"
	"github.com/geolayers/eelayer/fonts"
	"github.com/geolayers/eelayer/layer"
	"github.com/geolayers/eelayer/prefetch"
	"github.com/geolayers/eelayer/tilecache"
	"github.com/geolayers/eelayer/tilecache/disktilecache"
	"github.com/geolayers/eelayer/tilecache/postgrestilecache"
	"github.com/geolayers/eelayer/tilefetch"
	"github.com/geolayers/eelayer/tilerenderer"
	"github.com/geolayers/eelayer/webservices"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/userextra"
	"github.com/paulmach/osm"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	DEFAULT_PORT               = 9000
	DEFAULT_REMOTE_API_TIMEOUT = time.Second * 30
)

var logger *logpkg.Logger

func main() {
	verbose := kingpin.Flag("v", "verbose logging").Bool()

	logLevel := logpkg.LogLevelInfo
	if *verbose {
		logLevel = logpkg.LogLevelDebug
	}
	logger = logpkg.NewLogger(os.Stderr, logLevel)

	setupServe()
	setupPrefetch()

	kingpin.Parse()
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

var tileCacheHelp = fmt.Sprintf("tile cache to store fetched tiles in. It should be the cache type, followed by the separator (%s), followed by the path or connection string. For example: %s%s/var/cache/eelayer",
	tilecache.ConnectionPathSeparator,
	string(tilecache.CacheTypeDisk),
	tilecache.ConnectionPathSeparator,
)

func setupServe() {
	cmd := kingpin.Command("serve", "serve webserver")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).String()
	apiURL := cmd.Arg("api-url", "base URL of the remote compute API").Required().String()
	propsFilePath := cmd.Flag("props-file", "JSON file with initial layer props to apply on startup").String()
	tileCacheConnString := cmd.Flag("tile-cache", tileCacheHelp).String()
	maxConcurrentFetches := cmd.Flag("max-concurrent-fetches", "maximum amount of tile fetches in flight at once").Default(fmt.Sprintf("%d", tilefetch.DefaultMaxConcurrentFetches)).Uint()
	prefetchWorkers := cmd.Flag("prefetch-workers", "maximum amount of workers for queued prefetch jobs").Default(fmt.Sprintf("%d", prefetch.DefaultPrefetchWorkers)).Uint()
	shouldProfile := cmd.Flag("profile", "profile the request performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			cache, err := loadTileCache(*tileCacheConnString)
			if err != nil {
				return errorsx.Wrap(err)
			}

			controller, err := buildController(*apiURL, cache, *maxConcurrentFetches)
			if err != nil {
				return errorsx.Wrap(err)
			}

			if *propsFilePath != "" {
				props, err := loadPropsFile(*propsFilePath)
				if err != nil {
					return errorsx.Wrap(err)
				}

				err = controller.UpdateProps(context.Background(), *props)
				if err != nil {
					return errorsx.Wrap(err)
				}
			}

			router, err := createServer(controller, cache, *prefetchWorkers, *shouldProfile)
			if err != nil {
				return errorsx.Wrap(err)
			}

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			logger.Info("about to start serving on %q", *addr)

			err2 := server.ListenAndServe()
			if err2 != nil {
				return errorsx.Wrap(err2)
			}
			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

func setupPrefetch() {
	cmd := kingpin.Command("prefetch", "fetch every tile in a bounds/zoom range, warming the tile cache")
	apiURL := cmd.Arg("api-url", "base URL of the remote compute API").Required().String()
	propsFilePath := cmd.Arg("props-file", "JSON file with the layer props to prefetch for").Required().String()
	boundsStr := cmd.Flag("bounds", "bounds to prefetch within. [W,N,E,S] Example: -1,1,1,-1").Default("").String()
	minZoom := cmd.Flag("min-zoom", "lowest zoom level to prefetch").Default("0").Int()
	maxZoom := cmd.Flag("max-zoom", "highest zoom level to prefetch").Default("5").Int()
	tileCacheConnString := cmd.Flag("tile-cache", tileCacheHelp).String()
	manifestFilePath := cmd.Flag("manifest", "parquet file to write per-tile fetch outcomes to").String()
	workers := cmd.Flag("workers", "maximum amount of concurrent tile fetches").Default(fmt.Sprintf("%d", prefetch.DefaultPrefetchWorkers)).Uint()
	shouldProfile := cmd.Flag("profile", "profile the prefetch performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) (err error) {
		defer func() {
			errorx, ok := err.(errorsx.Error)
			if ok {
				logger.Error("%s\n%s\n", errorx.Error(), errorx.Stack())
			}
		}()

		if *shouldProfile {
			defer profile.Start(profile.CPUProfile).Stop()
		}

		bounds, err := boundsStrToOSMBounds(strings.Split(*boundsStr, ","))
		if err != nil {
			return err
		}

		props, err := loadPropsFile(*propsFilePath)
		if err != nil {
			return err
		}

		cache, err := loadTileCache(*tileCacheConnString)
		if err != nil {
			return err
		}

		controller, err := buildController(*apiURL, cache, uint(tilefetch.DefaultMaxConcurrentFetches))
		if err != nil {
			return err
		}

		err = controller.UpdateProps(context.Background(), *props)
		if err != nil {
			return err
		}

		var manifest *prefetch.ManifestWriter
		if *manifestFilePath != "" {
			manifest, err = prefetch.NewManifestWriter(*manifestFilePath)
			if err != nil {
				return err
			}
		}

		startTime := time.Now()

		prefetcher := prefetch.NewPrefetcher(logger, controller, *workers)
		result, err := prefetcher.PrefetchBounds(context.Background(), bounds, *minZoom, *maxZoom, manifest)
		if err != nil {
			return err
		}

		if manifest != nil {
			err = manifest.Close()
			if err != nil {
				return err
			}
		}

		logger.Info("prefetch finished in %s. Requested: %d, fetched: %d, failed: %d",
			time.Since(startTime), result.TilesRequested, result.TilesFetched, result.TilesFailed)

		return nil
	})
}

func boundsStrToOSMBounds(boundsStr []string) (osm.Bounds, errorsx.Error) {
	if len(boundsStr) == 1 && boundsStr[0] == "" {
		return osm.Bounds{
			MaxLat: 90,
			MinLat: -90,
			MaxLon: 180,
			MinLon: -180,
		}, nil
	}

	bounds := osm.Bounds{}

	if len(boundsStr) != 4 {
		return bounds, errorsx.Errorf("expected 4 (or 0) bounds, but found %d", len(boundsStr))
	}

	for idx, boundStr := range boundsStr {
		boundFloat, err := strconv.ParseFloat(boundStr, 64)
		if err != nil {
			return bounds, errorsx.Wrap(err)
		}
		switch idx {
		case 0:
			bounds.MinLon = boundFloat
		case 1:
			bounds.MaxLat = boundFloat
		case 2:
			bounds.MaxLon = boundFloat
		case 3:
			bounds.MinLat = boundFloat
		}
	}

	return bounds, nil
}

func loadPropsFile(filePath string) (*layer.Props, errorsx.Error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer file.Close()

	props := new(layer.Props)
	err = json.NewDecoder(file).Decode(props)
	if err != nil {
		return nil, errorsx.Wrap(err, "props file path", filePath)
	}

	return props, nil
}

func loadTileCache(cacheConnString string) (tilecache.TileCache, errorsx.Error) {
	if cacheConnString == "" {
		return nil, nil
	}

	cacheConnConfig, err := tilecache.ParseCacheConnString(cacheConnString)
	if err != nil {
		return nil, errorsx.Wrap(err, "cache connection string", cacheConnString)
	}

	switch cacheConnConfig.Type {
	case tilecache.CacheTypeDisk:
		basePath, err := userextra.ExpandUser(cacheConnConfig.ConnectionPath)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		return disktilecache.NewDiskTileCache(gofs.NewOsFs(), basePath)
	case tilecache.CacheTypePostgresql:
		return postgrestilecache.NewPostgresTileCache(cacheConnConfig.ConnectionPath)
	default:
		return nil, errorsx.Errorf("unrecognized cache connection type: %q", cacheConnConfig.Type)
	}
}

func buildController(apiURL string, cache tilecache.TileCache, maxConcurrentFetches uint) (*layer.Controller, errorsx.Error) {
	doer := &http.Client{
		Timeout: DEFAULT_REMOTE_API_TIMEOUT,
	}

	client := eeclient.NewHTTPAPIClient(apiURL, doer)
	session := eeclient.NewSessionContext(client)
	fetcher := tilefetch.NewFetcher(logger, doer, cache, maxConcurrentFetches)

	return layer.NewController(logger, session, client, fetcher), nil
}

func ensureTraceDir() (string, errorsx.Error) {
	traceDir, err := userextra.ExpandUser("~/.local/share/github.com/geolayers/eelayer/trace")
	if err != nil {
		return "", errorsx.Wrap(err)
	}

	err = os.MkdirAll(traceDir, 0700)
	if err != nil {
		return "", errorsx.Wrap(err)
	}

	return traceDir, nil
}

const (
	adminPath = "admin"
)

func isLocalhost(addr string) bool {
	return addr == "::1" || addr == "127.0.0.1"
}

func createLocalhostMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if !isLocalhost(r.RemoteAddr) {
				http.Error(w, "connections only allowed from the same computer the server is running on", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

func createServer(controller *layer.Controller, cache tilecache.TileCache, prefetchWorkers uint, shouldProfile bool) (chi.Router, errorsx.Error) {
	placeholder := tilerenderer.NewPlaceholderRenderer(fonts.DefaultFont())

	prefetcher := prefetch.NewPrefetcher(logger, controller, prefetchWorkers)
	prefetchQueue := prefetch.NewQueue(prefetcher)

	traceDir, err := ensureTraceDir()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	traceFilePath := filepath.Join(traceDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
	logger.Info("tracing at %q", traceFilePath)

	traceFile, createErr := os.Create(traceFilePath)
	if createErr != nil {
		return nil, errorsx.Wrap(createErr)
	}

	tracer := tracing.NewTracer(traceFile)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Route("/api/", func(r chi.Router) {
		r.Mount("/info", webservices.NewInfoService(logger, controller, cache))
		r.Mount("/tiles/", webservices.NewTileService(logger, controller, placeholder, shouldProfile))
		r.Mount("/layer/", webservices.NewLayerService(logger, controller))
	})
	router.Route(fmt.Sprintf("/%s/", adminPath), func(r chi.Router) {
		r.Use(createLocalhostMiddleware())
		r.Mount("/", webservices.NewAdminService(logger, prefetchQueue))
	})

	return router, nil
}
