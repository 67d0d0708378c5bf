package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foundrycraft/foundrycraft/internal/config"
	"github.com/foundrycraft/foundrycraft/pkg/building"
	"github.com/foundrycraft/foundrycraft/pkg/consolefmt"
	"github.com/foundrycraft/foundrycraft/pkg/conveyor"
	"github.com/foundrycraft/foundrycraft/pkg/inventory"
	"github.com/foundrycraft/foundrycraft/pkg/kinematics"
	"github.com/foundrycraft/foundrycraft/pkg/machine"
	"github.com/foundrycraft/foundrycraft/pkg/quest"
	"github.com/foundrycraft/foundrycraft/pkg/sim"
	"github.com/foundrycraft/foundrycraft/pkg/simlog"
	"github.com/foundrycraft/foundrycraft/pkg/streaming"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/terrain"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

var (
	configPath string
	logPath    string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation with a line-oriented console",
		RunE:  runSimulation,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (defaults to built-in constants)")
	cmd.Flags().StringVar(&logPath, "log-file", "", "rotating log file path (stderr only if unset)")
	return cmd
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log, err := simlog.New(simlog.Options{FilePath: logPath})
	if err != nil {
		return fmt.Errorf("starting logger: %w", err)
	}
	defer log.Sync()

	s, err := buildSimulation(cfg, log)
	if err != nil {
		return fmt.Errorf("starting simulation: %w", err)
	}

	lines := make(chan string, 8)
	go readConsole(lines)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRate))
	defer ticker.Stop()

	fmt.Println(consolefmt.OK(fmt.Sprintf("foundrycraftd running at %d Hz, saves in %q", cfg.TickRate, cfg.SavePath)))

	for {
		select {
		case <-ctx.Done():
			fmt.Println(consolefmt.OK("shutting down"))
			return nil
		case line := <-lines:
			if reply := dispatchCommand(s, line); reply != "" {
				fmt.Println(reply)
			}
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				return fatalSimulationError(s, log, err)
			}
		}
	}
}

// fatalSimulationError is reached only when Tick itself returns an error —
// an unrecoverable chunk-streaming escalation, per spec.md §7. It attempts
// one last persistence pass to crash.save before the process exits 2.
func fatalSimulationError(s *sim.Simulation, log *zap.Logger, cause error) error {
	log.Error("unrecoverable simulation error", zap.Error(cause))
	fmt.Println(consolefmt.Err("unrecoverable simulation error: " + cause.Error()))

	crashPath := filepath.Join(s.SaveDir, "crash.save")
	if err := s.CrashSave(crashPath); err != nil {
		fmt.Println(consolefmt.Err("crash save failed: " + err.Error()))
	} else {
		fmt.Println(consolefmt.OK("wrote " + crashPath))
	}
	os.Exit(2)
	return nil // unreachable
}

func readConsole(lines chan<- string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines <- line
	}
}

// buildSimulation wires every subsystem the same way newTestSim does in
// pkg/sim's tests, just sized from config instead of fixed test constants.
func buildSimulation(cfg config.Config, log *zap.Logger) (*sim.Simulation, error) {
	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating save directory: %w", err)
	}

	reg := taxonomy.NewDefaultRegistry()
	recipes := taxonomy.NewDefaultRecipeBook(reg)
	gen := terrain.NewGenerator(cfg.Seed, reg)
	world := voxel.NewWorld(gen)

	inv := inventory.NewStore(reg, nil)
	conv := conveyor.NewNetwork(world, reg, nil, nil, cfg.BeltSpeed, cfg.ItemSpacing, cfg.BeltLength)
	conv.Inventory = inv
	mach := machine.NewManager(reg, recipes, gen, conv, cfg.TMine, cfg.BufferCap)
	conv.Machines = mach

	ironIngot := reg.MustLookup("foundrycraft:iron_ingot")
	copperIngot := reg.MustLookup("foundrycraft:copper_ingot")
	quests := quest.NewTracker([]quest.Quest{
		{
			ID:       "deliver_iron",
			Required: map[taxonomy.Handle]uint32{ironIngot: 5},
			Reward:   map[taxonomy.Handle]uint32{copperIngot: 5},
		},
	}, inv, nil)

	streamer := streaming.NewManager(world, gen, cfg.ViewRadius, cfg.MaxChunkRetries)

	pipeline := &building.Pipeline{
		World:         world,
		Reg:           reg,
		Inventory:     inv,
		Machines:      mach,
		Conveyors:     conv,
		ReachDistance: cfg.ReachDistance,
	}

	player := &kinematics.Player{Pos: mgl32.Vec3{0, 72, 0}, Mode: kinematics.Survival}

	autosaveTicks := cfg.TickRate * 60 // once a minute
	s := sim.New(world, reg, recipes, gen, inv, mach, conv, quests, streamer, pipeline, player, log, cfg.ReachDistance, cfg.SavePath, autosaveTicks)

	spawn := voxel.ChunkOf(taxonomy.BlockPos{X: 0, Y: int32(player.Pos[1]), Z: 0})
	if err := streamer.Sync(context.Background(), spawn); err != nil {
		return nil, fmt.Errorf("initial chunk load: %w", err)
	}

	return s, nil
}
