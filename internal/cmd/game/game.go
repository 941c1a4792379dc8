// Package game parses game command flags and runs the interactive
// transition loop over stdin/stdout.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"

	entrypoint "github.com/louisbranch/emberfall/internal/platform/cmd"

	"github.com/louisbranch/emberfall/internal/chronicle"
	chroniclesqlite "github.com/louisbranch/emberfall/internal/chronicle/sqlite"
	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/classify"
	"github.com/louisbranch/emberfall/internal/game/consistency"
	"github.com/louisbranch/emberfall/internal/game/pipeline"
	"github.com/louisbranch/emberfall/internal/game/rules"
	"github.com/louisbranch/emberfall/internal/game/simulate"
	"github.com/louisbranch/emberfall/internal/game/state"
	"github.com/louisbranch/emberfall/internal/narrative"
	openainarrative "github.com/louisbranch/emberfall/internal/narrative/openai"
	"github.com/louisbranch/emberfall/internal/random"
)

// Config holds game command configuration.
type Config struct {
	Location      string `env:"EMBERFALL_START_LOCATION" envDefault:"village"`
	Skill         string `env:"EMBERFALL_START_SKILL" envDefault:"swordsmanship"`
	Seed          int64  `env:"EMBERFALL_SEED"`
	RulesPath     string `env:"EMBERFALL_RULES_PATH"`
	ChroniclePath string `env:"EMBERFALL_CHRONICLE_PATH"`
	OpenAIKey     string `env:"EMBERFALL_OPENAI_API_KEY"`
	OpenAIModel   string `env:"EMBERFALL_OPENAI_MODEL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Location, "location", cfg.Location, "The starting location")
	fs.StringVar(&cfg.Skill, "skill", cfg.Skill, "The character's focus skill")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "The simulation seed (0 generates one)")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Path to a Lua custom rule pack")
	fs.StringVar(&cfg.ChroniclePath, "chronicle", cfg.ChroniclePath, "Path to the SQLite chronicle archive")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// request is one stdin line: an action plus optional narrative context.
type request struct {
	Action       action.Action `json:"action"`
	StoryContext string        `json:"story_context,omitempty"`
}

// Run wires the pipeline and processes stdin actions until EOF or cancel.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		manager, store, err := Build(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if store != nil {
				if err := store.Close(); err != nil {
					log.Printf("close chronicle: %v", err)
				}
			}
		}()
		return loop(ctx, manager, store, os.Stdin, os.Stdout)
	})
}

// Build assembles a pipeline manager and an optional chronicle store from
// configuration.
func Build(cfg Config) (*pipeline.Manager, chronicle.Store, error) {
	seed := cfg.Seed
	if seed == 0 {
		generated, err := random.NewSeed()
		if err != nil {
			return nil, nil, err
		}
		seed = generated
		log.Printf("generated seed %d", seed)
	}
	rng := rand.New(rand.NewSource(seed))

	registry := rules.NewRegistry()
	if cfg.RulesPath != "" {
		loaded, err := rules.LoadLuaRules(cfg.RulesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load rule pack: %w", err)
		}
		for _, rule := range loaded {
			if err := registry.AddCustomRule(rule); err != nil {
				return nil, nil, fmt.Errorf("register rule %s/%s: %w", rule.Domain, rule.Name, err)
			}
		}
		log.Printf("loaded %d custom rules from %s", len(loaded), cfg.RulesPath)
	}

	var generator narrative.Generator = narrative.StaticGenerator{}
	if cfg.OpenAIKey != "" {
		client, err := openainarrative.New(cfg.OpenAIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, nil, fmt.Errorf("narrative client: %w", err)
		}
		generator = client
	}

	manager := pipeline.New(pipeline.Options{
		Classifier: classify.New(),
		Registry:   registry,
		Simulator:  simulate.New(rng, registry),
		Validator:  consistency.New(),
		Generator:  generator,
		Profile:    pipeline.NewMemoryProfile(cfg.Skill),
		RNG:        rng,
		Initial:    state.New(cfg.Location),
	})

	var store chronicle.Store
	if cfg.ChroniclePath != "" {
		opened, err := chroniclesqlite.Open(cfg.ChroniclePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open chronicle: %w", err)
		}
		store = opened
	}
	return manager, store, nil
}

func loop(ctx context.Context, manager *pipeline.Manager, store chronicle.Store, in io.Reader, out io.Writer) error {
	decoder := json.NewDecoder(in)
	encoder := json.NewEncoder(out)
	var parentID int64

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var req request
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode action: %w", err)
		}

		result := manager.ProcessAction(ctx, req.Action, req.StoryContext)
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}

		if store != nil {
			id, err := archive(ctx, store, parentID, req.Action, result, manager)
			if err != nil {
				log.Printf("archive transition: %v", err)
				continue
			}
			parentID = id
		}
	}
}

// archive persists one transition as a chronicle node and returns its ID so
// the next transition chains under it.
func archive(ctx context.Context, store chronicle.Store, parentID int64, act action.Action, result pipeline.Result, manager *pipeline.Manager) (int64, error) {
	stateJSON, err := json.Marshal(manager.CurrentState())
	if err != nil {
		return 0, fmt.Errorf("marshal state: %w", err)
	}
	node := chronicle.Node{
		ParentID:   parentID,
		ActionKind: string(act.Kind),
		ActionName: act.Name,
		Success:    result.Success,
		StateJSON:  stateJSON,
	}
	if result.Outcome.Narrative != nil {
		node.Narrative = result.Outcome.Narrative.Narrative
	}
	return store.AppendNode(ctx, node)
}
