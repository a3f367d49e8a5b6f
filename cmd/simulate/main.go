// Package main runs batches of ATB combat encounters from YAML content and
// prints their outcomes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/dice"
	"github.com/cory-johannsen/brave/internal/game/encounter"
	"github.com/cory-johannsen/brave/internal/game/event"
	"github.com/cory-johannsen/brave/internal/game/ruleset"
	"github.com/cory-johannsen/brave/internal/game/skill"
	"github.com/cory-johannsen/brave/internal/observability"
	"github.com/cory-johannsen/brave/internal/scripting"
	"github.com/cory-johannsen/brave/internal/server"
	"github.com/cory-johannsen/brave/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	party := flag.String("party", "knight,mage", "comma-separated job ids for the allied party")
	foes := flag.String("enemies", "goblin,goblin", "comma-separated enemy ids")
	level := flag.Float64("level", 1, "enemy level modifier, clamped to [0.5, 2]")
	encounters := flag.Int("encounters", 1, "number of encounters to run")
	seed := flag.Uint64("seed", 0, "dice seed; 0 draws from crypto/rand")
	pace := flag.Duration("pace", 0, "wall-clock delay between simulation steps")
	maxSteps := flag.Int("max-steps", 100000, "steps before an encounter counts as stalled (0 = unbounded)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	// Load content
	contentStart := time.Now()
	catalog, err := skill.LoadCatalog(cfg.Content.SkillsDir)
	if err != nil {
		logger.Fatal("loading skill catalog", zap.Error(err))
	}
	rules, err := ruleset.LoadRegistry(cfg.Content.JobsDir, cfg.Content.EnemiesDir)
	if err != nil {
		logger.Fatal("loading ruleset", zap.Error(err))
	}
	known := make(map[string]bool, len(catalog))
	for _, s := range catalog {
		known[s.ID] = true
	}
	if err := rules.CheckSkills(func(id string) bool { return known[id] }); err != nil {
		logger.Fatal("validating ruleset skills", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("skills", len(catalog)),
		zap.Int("jobs", len(rules.Jobs())),
		zap.Int("enemies", len(rules.Enemies())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	bus := event.NewBus(logger)

	if cfg.Reports.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		recorder := postgres.NewRecorder(pool.Reports(), 5*time.Second, logger)
		recorder.Attach(bus)
		logger.Info("battle reports enabled",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}

	scripts := scripting.NewManager(roller, logger)
	defer scripts.Close()

	engine := combat.NewEngine(combat.SessionConfigFrom(cfg.Combat), roller, catalog, bus, logger)
	runner := encounter.NewRunner(engine, rules, scripts, encounter.Options{
		Tick:             cfg.Combat.Tick,
		Pace:             *pace,
		MaxSteps:         *maxSteps,
		ScriptsDir:       filepath.Join(cfg.Content.ScriptsDir, "ai"),
		InstructionLimit: cfg.Scripting.InstructionLimit,
	}, logger)
	if err := runner.LoadScripts(); err != nil {
		logger.Fatal("loading enemy scripts", zap.Error(err))
	}

	p := encounter.Party{
		Jobs:          splitIDs(*party),
		Enemies:       splitIDs(*foes),
		LevelModifier: *level,
	}

	var outcomes []encounter.Outcome
	lc := server.NewLifecycle(logger)
	lc.Add("simulation", server.FuncService(func(ctx context.Context) error {
		var err error
		outcomes, err = runner.RunMany(ctx, p, *encounters)
		return err
	}))

	logger.Info("simulator ready",
		zap.Strings("party", p.Jobs),
		zap.Strings("enemies", p.Enemies),
		zap.Int("encounters", *encounters),
		zap.Duration("startup", time.Since(start)),
	)

	runErr := lc.Run(ctx)
	report(outcomes)
	if runErr != nil {
		logger.Error("simulation failed", zap.Error(runErr))
		os.Exit(1)
	}
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func report(outcomes []encounter.Outcome) {
	for i, o := range outcomes {
		fmt.Fprintf(os.Stdout, "#%d %s turns=%d survivors=%s [%s]\n",
			i+1, o.State, o.Turns, strings.Join(o.Survivors, ","), o.Elapsed.Round(time.Millisecond))
	}
	tally := encounter.Tally(outcomes)
	fmt.Fprintf(os.Stdout, "victory=%d defeat=%d fled=%d\n",
		tally[combat.StateVictory], tally[combat.StateDefeat], tally[combat.StateFled])
}
