// Package glyphbridge mirrors an emulator's screen onto a character canvas.
// A Session owns every piece of mutable bridge state: the emulator, the
// latest-frame slot, the render pipeline and the held controller buttons.
package glyphbridge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"glyphbridge/internal/batch"
	"glyphbridge/internal/codec"
	"glyphbridge/internal/controller"
	"glyphbridge/internal/editid"
	"glyphbridge/internal/frames"
	"glyphbridge/internal/grid"
	"glyphbridge/internal/input"
	"glyphbridge/internal/net/proto"
	"glyphbridge/internal/render"
	"glyphbridge/internal/schedule"
	"glyphbridge/internal/telemetry"
	"glyphbridge/logging"
	"glyphbridge/logging/pipeline"
)

const (
	DefaultRenderHz  = 2.0
	DefaultAdvanceHz = 60.0
)

var (
	// ErrRunning is returned by Start on a session that is already running.
	ErrRunning = errors.New("glyphbridge: session already running")
	// ErrReloadInProgress is returned when a second reload overlaps the first.
	ErrReloadInProgress = errors.New("glyphbridge: reload already in progress")
	// ErrNoLoader is returned by Reload when no ROM source is configured.
	ErrNoLoader = errors.New("glyphbridge: no rom loader configured")
)

// Loader fetches a ROM. frames.Fetcher is the production implementation.
type Loader interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Config describes one session.
type Config struct {
	ID        string
	Policy    codec.Policy
	Order     codec.ChannelOrder
	Mapper    grid.Mapper
	Interlace bool
	MaxBatch  int
	RenderHz  float64
	AdvanceHz float64
	Hold      time.Duration
	IDs       *editid.Allocator

	// Controller, when set, is drawn and linked after every connect.
	Controller *controller.Layout
	Greeting   string
	Nickname   string
	Color      string
	// Admins may issue the reload token. An empty list allows everyone.
	Admins []string

	ROMSource string
	Loader    Loader

	Clock     logging.Clock
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

// Diagnostics is a point-in-time view of a session.
type Diagnostics struct {
	SessionID     string            `json:"sessionId"`
	Running       bool              `json:"running"`
	Policy        string            `json:"policy"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	Rows          int               `json:"rows"`
	Cols          int               `json:"cols"`
	Interlaced    bool              `json:"interlaced"`
	Field         int               `json:"field"`
	MaxBatch      int               `json:"maxBatch"`
	FramesStored  uint64            `json:"framesStored"`
	FramesDropped uint64            `json:"framesDropped"`
	HeldButtons   string            `json:"heldButtons"`
	HeldTokens    int               `json:"heldTokens"`
	LastEditID    uint64            `json:"lastEditId"`
	Telemetry     TelemetrySnapshot `json:"telemetry"`
}

// Session drives the producer and consumer tasks and reacts to canvas
// traffic.
type Session struct {
	id        string
	cfg       Config
	emu       frames.Emulator
	slot      *frames.Slot
	holder    *input.Holder
	emitter   *batch.Emitter
	announcer Announcer
	ids       *editid.Allocator
	clock     logging.Clock
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	pub       logging.Publisher
	telemetry telemetryCounters

	renderMu sync.Mutex
	renderer *render.Renderer

	lifecycleMu sync.Mutex
	runCtx      context.Context
	producer    *schedule.Task
	consumer    *schedule.Task
	running     bool
	reloading   atomic.Bool
}

// NewSession validates the emulator geometry against the policy and wires
// the pipeline. Nothing runs until Start.
func NewSession(cfg Config, emu frames.Emulator, transport batch.Transport) (*Session, error) {
	if emu == nil {
		return nil, errors.New("glyphbridge: nil emulator")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Policy == nil {
		cfg.Policy = codec.HalfBlock{}
	}
	if cfg.RenderHz <= 0 {
		cfg.RenderHz = DefaultRenderHz
	}
	if cfg.AdvanceHz <= 0 {
		cfg.AdvanceHz = DefaultAdvanceHz
	}
	if cfg.IDs == nil {
		cfg.IDs = editid.NewSeeded()
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(nil)
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}

	width, height := emu.Size()
	renderer, err := render.New(render.Config{
		Width:     width,
		Height:    height,
		Policy:    cfg.Policy,
		Order:     cfg.Order,
		Mapper:    cfg.Mapper,
		Interlace: cfg.Interlace,
		IDs:       cfg.IDs,
	})
	if err != nil {
		return nil, fmt.Errorf("glyphbridge: %w", err)
	}

	s := &Session{
		id:     cfg.ID,
		cfg:    cfg,
		emu:    emu,
		slot:   frames.NewSlot(width, height),
		holder: input.NewHolder(cfg.Hold),
		emitter: batch.NewEmitter(batch.Config{
			MaxEdits:  cfg.MaxBatch,
			Transport: transport,
			Logger:    cfg.Logger,
			Metrics:   cfg.Metrics,
		}),
		announcer: Announcer{Nickname: cfg.Nickname, Color: cfg.Color, Transport: transport},
		ids:       cfg.IDs,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		pub:       cfg.Publisher,
		renderer:  renderer,
	}
	s.producer = schedule.NewTask(schedule.Config{
		Name:    "advance",
		Rate:    cfg.AdvanceHz,
		Clock:   cfg.Clock,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	}, func(context.Context, schedule.Tick) { s.AdvanceTick() })
	s.consumer = schedule.NewTask(schedule.Config{
		Name:    "render",
		Rate:    cfg.RenderHz,
		Clock:   cfg.Clock,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	}, func(ctx context.Context, _ schedule.Tick) { s.RenderTick(ctx) })

	emu.OnFrame(func(pix []codec.Pixel) {
		if err := s.slot.Store(pix); err != nil {
			s.logger.Printf("dropping frame: %v", err)
		}
	})
	return s, nil
}

// ID returns the session id used as the actor of its events.
func (s *Session) ID() string {
	return s.id
}

// Start loads the ROM and starts both periodic tasks. A load failure is
// returned and nothing is started.
func (s *Session) Start(ctx context.Context, rom []byte) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.running {
		return ErrRunning
	}
	if err := s.emu.Load(rom); err != nil {
		return fmt.Errorf("glyphbridge: load rom: %w", err)
	}
	s.telemetry.RecordROM(len(rom))
	pipeline.ROMLoaded(ctx, s.pub, s.id, pipeline.ROMPayload{Source: s.cfg.ROMSource, Bytes: len(rom)})

	s.runCtx = ctx
	if err := s.startTasksLocked(); err != nil {
		return err
	}
	s.logger.Printf("session %s started: %s policy, render %.1f Hz, advance %.1f Hz", s.id, s.cfg.Policy.Name(), s.cfg.RenderHz, s.cfg.AdvanceHz)
	return nil
}

// Stop halts both tasks and waits for them to return.
func (s *Session) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	s.stopTasksLocked()
}

func (s *Session) startTasksLocked() error {
	if err := s.producer.Start(s.runCtx); err != nil {
		return err
	}
	if err := s.consumer.Start(s.runCtx); err != nil {
		s.producer.Stop()
		return err
	}
	s.running = true
	return nil
}

func (s *Session) stopTasksLocked() {
	s.producer.Stop()
	s.consumer.Stop()
	s.running = false
}

// Reload fetches the ROM again and swaps it in with both tasks stopped. On
// failure the previous ROM keeps running and the error is announced.
func (s *Session) Reload(ctx context.Context) error {
	if s.cfg.Loader == nil {
		return ErrNoLoader
	}
	if !s.reloading.CompareAndSwap(false, true) {
		return ErrReloadInProgress
	}
	defer s.reloading.Store(false)

	rom, err := s.cfg.Loader.Fetch(ctx)
	if err != nil {
		s.reloadFailed(ctx, err)
		return err
	}

	s.lifecycleMu.Lock()
	wasRunning := s.running
	s.stopTasksLocked()
	loadErr := s.emu.Load(rom)
	if wasRunning && s.runCtx.Err() == nil {
		if err := s.startTasksLocked(); err != nil {
			s.logger.Printf("restart after reload: %v", err)
		}
	}
	s.lifecycleMu.Unlock()

	if loadErr != nil {
		err := fmt.Errorf("glyphbridge: load rom: %w", loadErr)
		s.reloadFailed(ctx, err)
		return err
	}

	s.telemetry.RecordReload(true)
	s.telemetry.RecordROM(len(rom))
	pipeline.ROMLoaded(ctx, s.pub, s.id, pipeline.ROMPayload{Source: s.cfg.ROMSource, Bytes: len(rom)})
	s.logger.Printf("reloaded rom (%d bytes)", len(rom))
	if err := s.announcer.Sayf(ctx, "rom reloaded (%d bytes)", len(rom)); err != nil {
		s.logger.Printf("announce reload: %v", err)
	}
	return nil
}

func (s *Session) reloadFailed(ctx context.Context, err error) {
	s.telemetry.RecordReload(false)
	s.logger.Printf("reload failed: %v", err)
	pipeline.ReloadFailed(ctx, s.pub, s.id, pipeline.ReloadFailurePayload{Source: s.cfg.ROMSource, Error: err.Error()})
	if sayErr := s.announcer.Sayf(ctx, "reload failed: %v", err); sayErr != nil {
		s.logger.Printf("announce reload failure: %v", sayErr)
	}
}

// HandleInbound decodes one canvas payload and acts on any command token it
// carries. Malformed payloads return an error wrapping proto.ErrMalformed.
func (s *Session) HandleInbound(payload []byte) error {
	msg, err := proto.DecodeInbound(payload)
	if err != nil {
		return err
	}
	if !msg.HasText() {
		return nil
	}
	s.OnCommand(msg.Text, msg.Sender)
	return nil
}

// OnCommand applies a token and reports whether it was recognized and
// allowed. Button tokens are held for the hold duration; the reload token
// starts an asynchronous reload.
func (s *Session) OnCommand(token, sender string) bool {
	cmd, ok := input.Parse(token)
	if !ok {
		return false
	}
	ctx := s.context()

	switch cmd.Action {
	case input.ActionReload:
		if !s.isAdmin(sender) {
			s.telemetry.RecordCommand(false)
			s.logger.Printf("ignoring reload from %q", sender)
			return false
		}
		go func() {
			if err := s.Reload(ctx); err != nil && !errors.Is(err, ErrReloadInProgress) {
				s.logger.Printf("reload requested by %q: %v", sender, err)
			}
		}()
	default:
		s.holder.Trigger(cmd.Token, cmd.Buttons, s.clock.Now())
	}

	s.telemetry.RecordCommand(true)
	s.addMetric("commands_total", 1)
	names := make([]string, 0, 2)
	for _, b := range cmd.Buttons.Buttons() {
		names = append(names, b.String())
	}
	pipeline.Command(ctx, s.pub, sender, pipeline.CommandPayload{Token: cmd.Token, Buttons: names})
	return true
}

func (s *Session) isAdmin(sender string) bool {
	return len(s.cfg.Admins) == 0 || slices.Contains(s.cfg.Admins, sender)
}

func (s *Session) context() context.Context {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}

// AdvanceTick applies the held buttons and steps the emulator once.
func (s *Session) AdvanceTick() {
	frames.ApplyButtons(s.emu, s.holder.Held(s.clock.Now()))
	s.emu.Advance()
}

// RenderTick renders the latest frame and emits the changed cells.
func (s *Session) RenderTick(ctx context.Context) {
	start := s.clock.Now()
	frame := s.slot.Latest()

	s.renderMu.Lock()
	field := s.renderer.Field()
	edits := s.renderer.Tick(frame, start)
	tick := s.renderer.Ticks()
	s.renderMu.Unlock()

	messages, err := s.emitter.Emit(ctx, edits)
	s.telemetry.RecordTick(len(edits), messages, err != nil, s.clock.Now().Sub(start))
	dropped := s.slot.Dropped()
	if s.metrics != nil {
		s.metrics.Store("frames_dropped", dropped)
	}
	if err != nil {
		pipeline.BatchDropped(ctx, s.pub, tick, s.id, pipeline.DropPayload{Edits: len(edits), Error: err.Error()})
	}
	pipeline.TickRendered(ctx, s.pub, tick, s.id, pipeline.TickPayload{
		Field:         field,
		Edits:         len(edits),
		Messages:      messages,
		DroppedFrames: int64(dropped),
	})
}

// OnConnect greets the page and draws the controller overlay.
func (s *Session) OnConnect(ctx context.Context) {
	if s.cfg.Greeting != "" {
		if err := s.announcer.Say(ctx, s.cfg.Greeting); err != nil {
			s.logger.Printf("greeting: %v", err)
		}
	}
	layout := s.cfg.Controller
	if layout == nil || s.announcer.Transport == nil {
		return
	}
	if _, err := s.emitter.Emit(ctx, layout.Edits(s.clock.Now(), s.ids)); err != nil {
		s.logger.Printf("controller labels: %v", err)
	}
	for _, link := range layout.Links() {
		if err := s.announcer.Transport.Send(ctx, link); err != nil {
			s.logger.Printf("controller link: %v", err)
			return
		}
	}
}

// Snapshot reports the current session state.
func (s *Session) Snapshot() Diagnostics {
	s.lifecycleMu.Lock()
	running := s.running
	s.lifecycleMu.Unlock()

	s.renderMu.Lock()
	geometry := s.renderer.Geometry()
	field := s.renderer.Field()
	s.renderMu.Unlock()

	now := s.clock.Now()
	return Diagnostics{
		SessionID:     s.id,
		Running:       running,
		Policy:        s.cfg.Policy.Name(),
		Width:         geometry.Width,
		Height:        geometry.Height,
		Rows:          geometry.Rows(),
		Cols:          geometry.Cols(),
		Interlaced:    s.cfg.Interlace,
		Field:         field,
		MaxBatch:      s.emitter.MaxEdits(),
		FramesStored:  s.slot.Stored(),
		FramesDropped: s.slot.Dropped(),
		HeldButtons:   s.holder.Held(now).String(),
		HeldTokens:    s.holder.Pending(),
		LastEditID:    s.ids.Last(),
		Telemetry:     s.telemetry.Snapshot(),
	}
}

func (s *Session) addMetric(key string, delta uint64) {
	if s.metrics != nil {
		s.metrics.Add(key, delta)
	}
}
