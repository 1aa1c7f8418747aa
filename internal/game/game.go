// Package game is the ebiten debug viewer: it runs a sim.Sim at a fixed step
// and draws the obstacle grid, planned paths, steering targets and an
// inspector for the selected agent.
package game

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/config"
	"github.com/Garsondee/Ship-Sense/internal/sim"
	"github.com/Garsondee/Ship-Sense/internal/steer"
)

// borderWidth is the pixel gap between the window edge and the playfield.
const borderWidth = 24

// hudScale is the integer upscale factor applied to HUD text.
const hudScale = 2

const (
	playfieldW = 1280
	playfieldH = 880

	tickDT = 1.0 / 60.0

	// logKeepTicks bounds the SimLog the viewer keeps for debug reports.
	logKeepTicks = 1800
	reportTicks  = 600
	statusTicks  = 180
)

// Ship tuning for the demo fleet.
const (
	shipRadius   = 110.0
	shipSpeed    = 320.0
	shipHealth   = 100.0
	playerRadius = 150.0
	playerSpeed  = 380.0
	debugDamage  = 25.0
)

// Options configures the viewer.
type Options struct {
	Config config.Config
	// ConfigPath is watched for edits when set.
	ConfigPath string
	Seed       int64
	Allies     int
	Hostiles   int
	Logger     *log.Logger
}

// Game implements ebiten.Game.
type Game struct {
	width      int
	height     int
	gameWidth  int
	gameHeight int
	offX       int
	offY       int

	sim        *sim.Sim
	rng        *rand.Rand
	logger     *log.Logger
	watcher    *config.Watcher
	thoughtLog *ThoughtLog
	logCursor  int
	reporter   *sim.SimReporter
	shots      []shotTrace

	cam       camera
	showGrid  bool
	showPaths bool
	showLog   bool
	showHUD   bool
	prevKeys  map[ebiten.Key]bool

	inspector     Inspector
	prevMouseLeft bool

	// Simulation speed control.
	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	tickAccum float64 // fractional tick accumulator for sub-1x speeds

	status      string
	statusUntil int

	hudBuf  *ebiten.Image
	inspBuf *ebiten.Image
}

// shotTrace is a fading line for one fire request.
type shotTrace struct {
	from, to cp.Vector
	ttl      int
}

// New builds the viewer and spawns the demo fleet. A watcher failure is
// logged and hot reload stays off.
func New(opts Options) *Game {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Allies <= 0 {
		opts.Allies = 6
	}
	if opts.Hostiles <= 0 {
		opts.Hostiles = 6
	}
	g := &Game{
		width:      borderWidth + playfieldW + borderWidth + logPanelWidth,
		height:     borderWidth + playfieldH + borderWidth,
		gameWidth:  playfieldW,
		gameHeight: playfieldH,
		offX:       borderWidth,
		offY:       borderWidth,
		rng:        rand.New(rand.NewSource(opts.Seed)), // #nosec G404 -- spawn layout only
		logger:     logger,
		thoughtLog: NewThoughtLog(),
		reporter:   sim.NewSimReporter(0, opts.Config.Progress.TrappedAfter, false),
		showPaths:  true,
		showLog:    true,
		showHUD:    true,
		prevKeys:   make(map[ebiten.Key]bool),
		simSpeed:   1,
	}
	g.sim = sim.New(opts.Config,
		sim.WithSeed(opts.Seed),
		sim.WithLogger(logger.WithPrefix("sim")),
	)
	g.cam = newCamera(g.sim.World(), g.gameWidth, g.gameHeight)
	g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
	g.inspBuf = ebiten.NewImage(inspBufW, inspBufH)
	g.spawnFleet(opts.Allies, opts.Hostiles)

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath)
		if err != nil {
			logger.Warn("config hot reload disabled", "path", opts.ConfigPath, "err", err)
		} else {
			g.watcher = w
			logger.Info("watching config", "path", opts.ConfigPath)
		}
	}
	return g
}

// Close stops the config watcher.
func (g *Game) Close() error {
	if g.watcher == nil {
		return nil
	}
	return g.watcher.Close()
}

// Sim exposes the running simulation.
func (g *Game) Sim() *sim.Sim { return g.sim }

func (g *Game) shipSpec(kind behavior.Kind, pos cp.Vector) sim.AgentSpec {
	jitter := 0.85 + g.rng.Float64()*0.3
	return sim.AgentSpec{
		Kind: kind,
		Kinematics: sim.Kinematics{
			Position:            pos,
			Speed:               shipSpeed * jitter,
			Radius:              shipRadius * jitter,
			LookAheadMultiplier: 1,
		},
		MaxHealth: shipHealth,
	}
}

// spawnFleet places allies on the west side, hostiles on the east and the
// player in the middle.
func (g *Game) spawnFleet(allies, hostiles int) {
	b := g.sim.Bounds()
	w := b.Width()
	for i := 0; i < allies; i++ {
		p := cp.Vector{
			X: b.Min.X + w*0.15 + g.rng.Float64()*w*0.15,
			Y: b.Min.Y + b.Height()*(0.2+0.6*g.rng.Float64()),
		}
		g.sim.Spawn(g.shipSpec(behavior.KindAlly, p))
	}
	for i := 0; i < hostiles; i++ {
		g.spawnHostile()
	}
	g.sim.SpawnPlayer(sim.AgentSpec{
		Kinematics: sim.Kinematics{
			Position: b.Center(),
			Speed:    playerSpeed,
			Radius:   playerRadius,
		},
		MaxHealth: shipHealth,
	})
}

func (g *Game) spawnHostile() sim.AgentID {
	b := g.sim.Bounds()
	w := b.Width()
	p := cp.Vector{
		X: b.Max.X - w*0.15 - g.rng.Float64()*w*0.15,
		Y: b.Min.Y + b.Height()*(0.2+0.6*g.rng.Float64()),
	}
	return g.sim.Spawn(g.shipSpec(behavior.KindHostile, p))
}

func (g *Game) setStatus(format string, args ...any) {
	g.status = fmt.Sprintf(format, args...)
	g.statusUntil = g.sim.Tick() + statusTicks
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.handleInput()
	g.applyReloads()

	if g.simSpeed <= 0 {
		return nil
	}
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.simTick()
	}
	if g.cam.followLock {
		if pid, ok := g.sim.Player(); ok {
			p, _ := g.sim.Agent(pid)
			g.cam.lookAt(p.Kinematics.Position)
		}
	}
	if g.status != "" && g.sim.Tick() > g.statusUntil {
		g.status = ""
	}
	return nil
}

// simTick runs one simulation tick.
func (g *Game) simTick() {
	g.flyPlayer()
	g.sim.Step(tickDT)

	for _, s := range g.sim.Shots() {
		g.shots = append(g.shots, shotTrace{from: s.Origin, to: s.Target, ttl: 12})
	}
	kept := g.shots[:0]
	for _, s := range g.shots {
		if s.ttl--; s.ttl > 0 {
			kept = append(kept, s)
		}
	}
	g.shots = kept

	g.drainSimLog()
	if g.sim.Tick()%60 == 0 {
		g.reporter.Collect(g.sim.Tick(), g.sim.Snapshot())
	}
}

// drainSimLog copies new events into the thought log and trims old ones.
func (g *Game) drainSimLog() {
	sl := g.sim.SimLog()
	entries := sl.Entries()
	for _, e := range entries[g.logCursor:] {
		g.thoughtLog.AddSimEntry(e)
	}
	g.logCursor = len(entries)
	g.logCursor -= sl.DropBefore(g.sim.Tick() - logKeepTicks)
}

// flyPlayer moves the player from WASD input. The viewer plays the host's
// role here and owns the player's kinematics.
func (g *Game) flyPlayer() {
	pid, ok := g.sim.Player()
	if !ok {
		return
	}
	var in cp.Vector
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		in.Y--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		in.Y++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		in.X--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		in.X++
	}
	p, _ := g.sim.Agent(pid)
	k := p.Kinematics
	dir, moving := steer.Unit(in)
	k.Velocity = dir.Mult(k.Speed)
	k.Moving = moving
	if moving {
		k.Position = g.sim.Bounds().Clamp(k.Position.Add(k.Velocity.Mult(tickDT)))
		k.Rotation = math.Atan2(dir.Y, dir.X)
	}
	g.sim.SetKinematics(pid, k)
}

// applyReloads drains pending config reloads without blocking.
func (g *Game) applyReloads() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case r, ok := <-g.watcher.Reloads:
			if !ok {
				g.watcher = nil
				return
			}
			if r.Err != nil {
				g.logger.Error("config reload failed", "err", r.Err)
				g.setStatus("reload failed: %v", r.Err)
				continue
			}
			g.sim.SetConfig(r.Config)
			g.cam = g.rebuildCamera()
			g.setStatus("config reloaded")
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.logger.Warn("config watcher", "err", err)
			}
		default:
			return
		}
	}
}

// rebuildCamera refits the camera after the world may have changed size,
// keeping zoom and follow mode.
func (g *Game) rebuildCamera() camera {
	c := newCamera(g.sim.World(), g.gameWidth, g.gameHeight)
	c.zoom = g.cam.zoom
	c.followLock = g.cam.followLock
	c.lookAt(g.cam.center)
	return c
}

// pressed reports a key that went down this frame.
func (g *Game) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !g.prevKeys[k]
}

// handleInput processes camera, overlay and debug keys (edge-triggered).
func (g *Game) handleInput() {
	cur := map[ebiten.Key]bool{}

	if g.pressed(cur, ebiten.KeyG) {
		g.showGrid = !g.showGrid
	}
	if g.pressed(cur, ebiten.KeyT) {
		g.showPaths = !g.showPaths
	}
	if g.pressed(cur, ebiten.KeyL) {
		g.showLog = !g.showLog
	}
	if g.pressed(cur, ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if g.pressed(cur, ebiten.KeyF) {
		g.cam.followLock = !g.cam.followLock
	}

	const panSpeed = 8.0
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.cam.pan(0, -panSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.cam.pan(0, panSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.cam.pan(-panSpeed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.cam.pan(panSpeed, 0)
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		g.cam.zoomBy(math.Pow(1.12, wy))
	}
	if g.pressed(cur, ebiten.KeyEqual) {
		g.cam.zoomBy(1.25)
	}
	if g.pressed(cur, ebiten.KeyMinus) {
		g.cam.zoomBy(1 / 1.25)
	}

	speeds := []float64{0, 0.5, 1, 2, 4}
	if g.pressed(cur, ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if g.pressed(cur, ebiten.KeyComma) {
		g.simSpeed = stepSpeed(speeds, g.simSpeed, -1)
	}
	if g.pressed(cur, ebiten.KeyPeriod) {
		g.simSpeed = stepSpeed(speeds, g.simSpeed, 1)
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && !g.prevMouseLeft {
		mx, my := ebiten.CursorPosition()
		g.handleInspectorClick(mx, my)
	}
	g.prevMouseLeft = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	if g.pressed(cur, ebiten.KeyI) {
		g.inspector.rawView = !g.inspector.rawView
	}
	if g.pressed(cur, ebiten.KeyC) {
		g.copyReport()
	}
	if g.pressed(cur, ebiten.KeyJ) {
		g.damageSelected()
	}
	if g.pressed(cur, ebiten.KeyX) {
		g.swapSelected()
	}
	if g.pressed(cur, ebiten.KeyK) {
		g.destroySelected()
	}
	if g.pressed(cur, ebiten.KeyN) {
		id := g.spawnHostile()
		g.setStatus("spawned %s", id)
	}

	g.prevKeys = cur
}

// stepSpeed moves one notch along speeds from the current value.
func stepSpeed(speeds []float64, current float64, dir int) float64 {
	idx := 0
	for i, s := range speeds {
		if s <= current {
			idx = i
		}
	}
	idx += dir
	if idx < 0 {
		idx = 0
	}
	if idx >= len(speeds) {
		idx = len(speeds) - 1
	}
	return speeds[idx]
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 6, G: 8, B: 12, A: 255})

	field := screen.SubImage(imageRect(g.offX, g.offY, g.gameWidth, g.gameHeight)).(*ebiten.Image)
	g.drawWorld(field)

	ox, oy := float32(g.offX), float32(g.offY)
	gw, gh := float32(g.gameWidth), float32(g.gameHeight)
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2.0, color.RGBA{R: 60, G: 80, B: 120, A: 255}, false)

	if g.showLog {
		g.thoughtLog.Draw(screen, g.offX+g.gameWidth+g.offX, g.height)
	}
	if g.showHUD {
		g.drawHUD(screen)
	}
	drawText(screen, fmt.Sprintf("zoom: %.1fx", g.cam.zoom), g.offX+6, g.offY+6, color.RGBA{R: 180, G: 190, B: 210, A: 255})
	g.drawInspector(screen)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// WindowSize is the native window size in pixels.
func (g *Game) WindowSize() (int, int) { return g.width, g.height }
