package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"property-portal/internal/application/properties"
	"property-portal/internal/application/retrieval"
	"property-portal/internal/config"
	"property-portal/internal/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const usage = `commands:
  all                  list every property
  featured [n]         first n properties (default from FEATURED_LIMIT)
  search <text>        debounced search; blank clears
  city <name>          properties in a city; blank clears
  state <name>         properties in a state; blank clears
  show <id>            one property
  near <id>            properties in the same neighbourhood as <id>
  refetch              repeat the last view's request
  help | quit`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	flags := pflag.NewFlagSet("catalog", pflag.ExitOnError)
	baseURL := flags.String("base-url", cfg.PropertiesAPIBaseURL, "listings API base URL")
	timeout := flags.Duration("timeout", cfg.PropertiesAPITimeout, "per-request timeout (0: none)")
	debounce := flags.Duration("debounce", cfg.SearchDebounce, "search debounce")
	featured := flags.Int("featured", cfg.FeaturedLimit, "default featured limit")
	verbose := flags.BoolP("verbose", "v", false, "log retriever activity")
	_ = flags.Parse(os.Args[1:])

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	api := properties.NewHTTPClient(*baseURL, *timeout)
	s := newSession(context.Background(), api, newPrinter(os.Stdout), *debounce, *featured)
	defer s.close()

	fmt.Println("property catalog:", *baseURL)
	fmt.Println(usage)
	s.run(os.Stdin)
}

// session owns one retriever per view; a view is created on first use and
// rebound afterwards.
type session struct {
	ctx      context.Context
	api      properties.API
	out      *printer
	debounce time.Duration
	limit    int

	all      *retrieval.AllProperties
	featured *retrieval.Featured
	search   *retrieval.Search
	city     *retrieval.ByCity
	state    *retrieval.ByState
	property *retrieval.Property
	last     func(ctx context.Context)

	closers []func()
}

func newSession(ctx context.Context, api properties.API, out *printer, debounce time.Duration, limit int) *session {
	return &session{ctx: ctx, api: api, out: out, debounce: debounce, limit: limit}
}

func (s *session) run(in io.Reader) {
	sc := bufio.NewScanner(in)
	s.out.prompt()
	for sc.Scan() {
		if !s.handle(sc.Text()) {
			return
		}
		s.out.prompt()
	}
}

// handle executes one command line and reports whether to keep reading.
func (s *session) handle(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit":
		return false
	case "help":
		s.out.line(usage)
	case "all":
		if s.all == nil {
			s.all = retrieval.NewAllProperties(s.ctx, s.api)
			s.watchList("all", s.all.Subscribe)
			s.track(s.all.Close)
		} else {
			s.all.Refetch(s.ctx)
		}
		s.last = func(ctx context.Context) { s.all.Refetch(ctx) }
	case "featured":
		limit := s.limit
		if arg != "" {
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				s.out.line("featured: limit must be a number")
				return true
			}
			limit = n
		}
		if s.featured == nil {
			s.featured = retrieval.NewFeatured(s.ctx, s.api, limit)
			s.watchList("featured", s.featured.Subscribe)
			s.track(s.featured.Close)
		} else {
			s.featured.SetLimit(limit)
		}
		s.last = func(ctx context.Context) { s.featured.Refetch(ctx) }
	case "search":
		if s.search == nil {
			s.search = retrieval.NewSearch(s.ctx, s.api, arg, retrieval.WithDebounce(s.debounce))
			s.watchList("search", s.search.Subscribe)
			s.track(s.search.Close)
		} else {
			s.search.SetQuery(arg)
		}
		s.last = func(ctx context.Context) { s.search.Refetch(ctx) }
	case "city":
		if s.city == nil {
			s.city = retrieval.NewByCity(s.ctx, s.api, arg)
			s.watchList("city", s.city.Subscribe)
			s.track(s.city.Close)
		} else {
			s.city.SetCity(arg)
		}
		s.last = func(ctx context.Context) { s.city.Refetch(ctx) }
	case "state":
		if s.state == nil {
			s.state = retrieval.NewByState(s.ctx, s.api, arg)
			s.watchList("state", s.state.Subscribe)
			s.track(s.state.Close)
		} else {
			s.state.SetState(arg)
		}
		s.last = func(ctx context.Context) { s.state.Refetch(ctx) }
	case "show":
		id := strings.TrimSpace(arg)
		if s.property == nil {
			s.property = retrieval.NewProperty(s.ctx, s.api, id)
			s.track(s.property.Subscribe(func(st retrieval.State[*domain.PropertyListing]) {
				s.out.property(st)
			}))
			s.track(s.property.Close)
		} else {
			s.property.SetID(id)
		}
		s.last = func(ctx context.Context) { s.property.Refetch(ctx) }
	case "near":
		s.near(strings.TrimSpace(arg))
	case "refetch":
		if s.last == nil {
			s.out.line("nothing to refetch")
			return true
		}
		s.last(s.ctx)
	default:
		s.out.line("unknown command " + strconv.Quote(cmd) + ", try help")
	}
	return true
}

// near is a one-shot view: one lookup for the centre, one for the catalogue.
func (s *session) near(id string) {
	if id == "" {
		s.out.line("near: id required")
		return
	}
	center, err := s.api.GetPropertyByID(s.ctx, id)
	if err != nil {
		s.out.line("near: " + err.Error())
		return
	}
	all, err := s.api.GetAllProperties(s.ctx)
	if err != nil {
		s.out.line("near: " + err.Error())
		return
	}
	near := domain.Near(*center, all, domain.NeighbourhoodPrecision)
	s.out.list("near "+center.Geohash(domain.NeighbourhoodPrecision), retrieval.State[[]domain.PropertyListing]{Result: near})
}

func (s *session) watchList(view string, subscribe func(retrieval.Listener[[]domain.PropertyListing]) func()) {
	s.track(subscribe(func(st retrieval.State[[]domain.PropertyListing]) {
		s.out.list(view, st)
	}))
}

func (s *session) track(fn func()) {
	s.closers = append(s.closers, fn)
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
