package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/foundrycraft/foundrycraft/pkg/consolefmt"
	"github.com/foundrycraft/foundrycraft/pkg/kinematics"
	"github.com/foundrycraft/foundrycraft/pkg/sim"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

// dispatchCommand parses one console line and applies it, in the shape of
// the teacher's handleCommand: strings.Fields, a switch on the first token,
// one handle* function per command. The command grammar itself is spec.md
// §6's command-string surface, translated into sim.Intent submissions.
func dispatchCommand(s *sim.Simulation, line string) string {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return ""
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/creative":
		return setMode(s, "creative")
	case "/survival":
		return setMode(s, "survival")
	case "/tp":
		return handleTp(s, args)
	case "/look":
		return handleLook(s, args)
	case "/setblock":
		return handleSetBlock(s, args)
	case "/spawn":
		return handleSpawn(s, args)
	case "/give":
		return handleGive(s, args)
	case "/save":
		return handleSave(s, args)
	case "/load":
		return handleLoad(s, args)
	default:
		return consolefmt.Err("Unknown command: " + cmd)
	}
}

// setMode flips the simulation's single ToggleCreative intent only when the
// player isn't already in the requested mode, since /creative and /survival
// name a destination state but the intent surface (spec.md §6) only exposes
// a toggle.
func setMode(s *sim.Simulation, want string) string {
	cur := "survival"
	if s.Player.Mode == kinematics.Creative {
		cur = "creative"
	}
	if cur == want {
		return consolefmt.OK("already in " + want + " mode")
	}
	if err := s.Submit(sim.Intent{Kind: sim.KindToggleCreative}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK("switched to " + want + " mode")
}

func handleTp(s *sim.Simulation, args []string) string {
	if len(args) != 3 {
		return consolefmt.Err("usage: /tp X Y Z")
	}
	x, errX := strconv.ParseFloat(args[0], 64)
	y, errY := strconv.ParseFloat(args[1], 64)
	z, errZ := strconv.ParseFloat(args[2], 64)
	if errX != nil || errY != nil || errZ != nil {
		return consolefmt.Err("invalid coordinates, usage: /tp X Y Z")
	}
	if err := s.Submit(sim.Intent{Kind: sim.KindTeleport, X: x, Y: y, Z: z}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK(fmt.Sprintf("teleporting to %.1f %.1f %.1f", x, y, z))
}

func handleLook(s *sim.Simulation, args []string) string {
	if len(args) != 2 {
		return consolefmt.Err("usage: /look PITCH YAW")
	}
	pitch, errP := strconv.ParseFloat(args[0], 64)
	yaw, errY := strconv.ParseFloat(args[1], 64)
	if errP != nil || errY != nil {
		return consolefmt.Err("invalid angles, usage: /look PITCH YAW (degrees)")
	}
	if err := s.Submit(sim.Intent{Kind: sim.KindLook, Pitch: pitch, Yaw: yaw}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK(fmt.Sprintf("looking at pitch %.1f yaw %.1f", pitch, yaw))
}

func handleSetBlock(s *sim.Simulation, args []string) string {
	if len(args) != 4 {
		return consolefmt.Err("usage: /setblock X Y Z ITEM_NAME")
	}
	pos, ok := parseBlockPos(args[0], args[1], args[2])
	if !ok {
		return consolefmt.Err("invalid coordinates, usage: /setblock X Y Z ITEM_NAME")
	}
	item := canonicalID(args[3])
	if err := s.Submit(sim.Intent{Kind: sim.KindSetBlock, Pos: pos, Item: item}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK(fmt.Sprintf("set %d %d %d to %s", pos.X, pos.Y, pos.Z, item))
}

func handleSpawn(s *sim.Simulation, args []string) string {
	if len(args) < 4 {
		return consolefmt.Err("usage: /spawn X Y Z KIND [FACING]")
	}
	pos, ok := parseBlockPos(args[0], args[1], args[2])
	if !ok {
		return consolefmt.Err("invalid coordinates, usage: /spawn X Y Z KIND [FACING]")
	}
	kind := strings.ToLower(args[3])

	facing := taxonomy.North
	if len(args) >= 5 {
		f, ok := parseFacing(args[4])
		if !ok {
			return consolefmt.Err("unknown facing: " + args[4])
		}
		facing = f
	}

	if err := s.Submit(sim.Intent{Kind: sim.KindSpawnMachine, Pos: pos, SpawnKind: kind, Facing: facing}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK(fmt.Sprintf("spawning %s at %d %d %d facing %s", kind, pos.X, pos.Y, pos.Z, facing))
}

func handleGive(s *sim.Simulation, args []string) string {
	if len(args) != 2 {
		return consolefmt.Err("usage: /give ITEM_NAME COUNT")
	}
	count, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return consolefmt.Err("invalid count, usage: /give ITEM_NAME COUNT")
	}
	item := canonicalID(args[0])
	if err := s.Submit(sim.Intent{Kind: sim.KindGiveItem, Item: item, Count: uint32(count)}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK(fmt.Sprintf("giving %d %s", count, item))
}

func handleSave(s *sim.Simulation, args []string) string {
	slot := ""
	if len(args) >= 1 {
		slot = args[0]
	}
	if err := s.Submit(sim.Intent{Kind: sim.KindSaveGame, Slot: slot}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK("saving")
}

func handleLoad(s *sim.Simulation, args []string) string {
	slot := ""
	if len(args) >= 1 {
		slot = args[0]
	}
	if err := s.Submit(sim.Intent{Kind: sim.KindLoadGame, Slot: slot}); err != nil {
		return consolefmt.Err(err.Error())
	}
	return consolefmt.OK("loading")
}

func parseBlockPos(xs, ys, zs string) (taxonomy.BlockPos, bool) {
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	z, errZ := strconv.Atoi(zs)
	if errX != nil || errY != nil || errZ != nil {
		return taxonomy.BlockPos{}, false
	}
	return taxonomy.BlockPos{X: int32(x), Y: int32(y), Z: int32(z)}, true
}

func parseFacing(s string) (taxonomy.Direction, bool) {
	switch strings.ToLower(s) {
	case "north":
		return taxonomy.North, true
	case "south":
		return taxonomy.South, true
	case "east":
		return taxonomy.East, true
	case "west":
		return taxonomy.West, true
	default:
		return 0, false
	}
}

// canonicalID qualifies a bare item name with the default namespace, the
// way an operator typing "/give iron_ingot 4" expects to work without
// spelling out "foundrycraft:iron_ingot".
func canonicalID(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return "foundrycraft:" + name
}
